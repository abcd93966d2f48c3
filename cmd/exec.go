package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"registration-system/config"
	"registration-system/internal/handlers"
	"registration-system/internal/services"
	"registration-system/internal/services/evidencestore"
	"registration-system/internal/services/gateway"
	"registration-system/internal/services/gateway/hostedpay"
	"registration-system/internal/status"
	"registration-system/monitoring"
	"registration-system/security"
	"registration-system/utils"

	_ "registration-system/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub for staff fan-out
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)
	publisher := services.NewPubNubPublisher(pn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the checkout gateway
	registry := gateway.NewRegistry(gateway.NewFactory())
	if cfg.Gateway.BaseURL != "" {
		err := registry.Register(ctx, gateway.ProviderHostedPay, &hostedpay.Config{
			MerchantID: cfg.Gateway.MerchantID,
			Ccy:        cfg.Gateway.Currency,

			PNSubKey:    cfg.Gateway.PNSubKey,
			PNSubSecret: cfg.Gateway.PNSubSecret,
			PNUUID:      cfg.Gateway.PNUUID,
			PNChannel:   cfg.Gateway.PNChannel,
			PNCipherKey: cfg.Gateway.PNCipherKey,

			BaseURL:   cfg.Gateway.BaseURL,
			PartnerID: cfg.Gateway.PartnerID,
			ClientID:  cfg.Gateway.ClientID,
			ClientKey: cfg.Gateway.ClientKey,
			HMACKey:   cfg.Gateway.HMACKey,
		})
		if err != nil {
			return err
		}
	}
	defer registry.Close(ctx)

	// Initialize services
	store := services.NewPBStore(app)
	evidenceClient := evidencestore.NewClient(&evidencestore.Config{
		BaseURL:   cfg.Evidence.BaseURL,
		Bucket:    cfg.Evidence.Bucket,
		AccessKey: cfg.Evidence.AccessKey,
		SecretKey: cfg.Evidence.SecretKey,
	}, cfg.EvidenceURLTTL)

	evidenceService := services.NewEvidenceService(evidenceClient, cfg.MaxEvidenceSize)
	registrationService := services.NewRegistrationService(store, publisher, cfg.StaffChannel, cfg.MaxTicketsPerRegistration)
	reviewService := services.NewReviewService(store, evidenceService, publisher, cfg.StaffChannel)
	capacityService := services.NewCapacityService(store)

	var checkoutService *services.CheckoutService
	if gw, err := registry.Primary(); err == nil {
		checkoutService = services.NewCheckoutService(redisClient, store, gw, cfg.PublicURL, cfg.CheckoutTimeout, cfg.MaxTicketsPerRegistration)

		// Settle intents from the gateway's push channel too; the redirect
		// leg and the push leg race benignly, first one wins.
		txChannel := make(chan *status.Transaction, 1)
		gw.SetTransactionChannel(txChannel)
		go func() {
			for {
				select {
				case tx := <-txChannel:
					slog.Info("=> gateway settlement notification", "uuid", tx.UUID, "status", tx.Status)

					if tx.Status != "success" && tx.Status != "completed" {
						continue
					}
					if _, err := checkoutService.SettleFromPush(ctx, tx); err != nil {
						slog.Error("checkoutService.SettleFromPush()", "error", err)
					}

				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Printf("no checkout gateway configured, card path disabled: %v", err)
	}

	// Initialize handlers
	registrationHandler := handlers.NewRegistrationHandler(app, registrationService, evidenceService)
	reviewHandler := handlers.NewReviewHandler(app, reviewService)
	eventHandler := handlers.NewEventHandler(app, capacityService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.SubmitRateLimit, cfg.SubmitRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Keep the pending-review gauge fresh
	monitoring.NewMonitor(reviewService)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	// Serve metrics on a side port
	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Registration endpoints
		e.Router.POST("/api/registrations", registrationHandler.Create).BindFunc(rateLimiter.SubmitRateLimit())
		e.Router.GET("/api/events/{eventId}/registrations", registrationHandler.ListByEvent(reviewService))
		e.Router.GET("/api/events/{eventId}/capacity", eventHandler.Capacity)

		// Checkout endpoints (card path)
		if checkoutService != nil {
			checkoutHandler := handlers.NewCheckoutHandler(app, checkoutService)
			e.Router.POST("/api/checkout/session", checkoutHandler.BeginSession).BindFunc(rateLimiter.SubmitRateLimit())
			e.Router.GET("/api/checkout/return", checkoutHandler.Return)
		}

		// Staff review endpoints
		e.Router.GET("/api/review/pending", reviewHandler.ListPending)
		e.Router.GET("/api/review/evidence-url", reviewHandler.EvidenceURL)
		e.Router.POST("/api/review/decide", reviewHandler.Decide)
		e.Router.POST("/api/review/reopen", reviewHandler.Reopen)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
