package config

import (
	"os"
	"strconv"
	"time"
)

type EvidenceStoreConfig struct {
	BaseURL   string
	Bucket    string
	AccessKey string
	SecretKey string
}

type GatewayConfig struct {
	MerchantID string
	Currency   string

	BaseURL   string
	PartnerID string
	ClientID  string
	ClientKey string
	HMACKey   string

	PNSubKey    string
	PNSubSecret string
	PNUUID      string
	PNChannel   string
	PNCipherKey string
}

type Config struct {
	// Server configuration
	Port        string
	Environment string
	PublicURL   string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (staff fan-out)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	StaffChannel       string

	// Payment gateway configuration
	Gateway GatewayConfig

	// Evidence object store configuration
	Evidence EvidenceStoreConfig

	// Registration limits
	MaxTicketsPerRegistration int
	MaxEvidenceSize           int64

	// Timeout configuration
	CheckoutTimeout  time.Duration
	EvidenceURLTTL   time.Duration
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8090"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		StaffChannel:       getEnv("STAFF_CHANNEL", "staff-registrations"),

		// Gateway
		Gateway: GatewayConfig{
			MerchantID: getEnv("GATEWAY_MERCHANT_ID", ""),
			Currency:   getEnv("GATEWAY_CURRENCY", "EUR"),

			BaseURL:   getEnv("GATEWAY_BASE_URL", ""),
			PartnerID: getEnv("GATEWAY_PARTNER_ID", ""),
			ClientID:  getEnv("GATEWAY_CLIENT_ID", ""),
			ClientKey: getEnv("GATEWAY_CLIENT_KEY", ""),
			HMACKey:   getEnv("GATEWAY_HMAC_KEY", ""),

			PNSubKey:    getEnv("GATEWAY_PN_SUBKEY", ""),
			PNSubSecret: getEnv("GATEWAY_PN_SUBSECRET", ""),
			PNUUID:      getEnv("GATEWAY_PN_UUID", ""),
			PNChannel:   getEnv("GATEWAY_PN_CHANNEL", ""),
			PNCipherKey: getEnv("GATEWAY_PN_CIPHERKEY", ""),
		},

		// Evidence store
		Evidence: EvidenceStoreConfig{
			BaseURL:   getEnv("EVIDENCE_BASE_URL", ""),
			Bucket:    getEnv("EVIDENCE_BUCKET", "payment-proofs"),
			AccessKey: getEnv("EVIDENCE_ACCESS_KEY", ""),
			SecretKey: getEnv("EVIDENCE_SECRET_KEY", ""),
		},

		// Limits
		MaxTicketsPerRegistration: getEnvAsInt("MAX_TICKETS_PER_REGISTRATION", 5),
		MaxEvidenceSize:           int64(getEnvAsInt("MAX_EVIDENCE_SIZE", 5*1024*1024)),

		// Timeouts
		CheckoutTimeout:  getEnvAsDuration("CHECKOUT_TIMEOUT", "30m"),
		EvidenceURLTTL:   getEnvAsDuration("EVIDENCE_URL_TTL", "2m"),
		SubmitRateLimit:  getEnvAsInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getEnvAsDuration("SUBMIT_RATE_WINDOW", "1m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
