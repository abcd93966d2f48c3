package hostedpay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"registration-system/internal/status"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"
)

type (
	Config struct {
		MerchantID string `json:"merchantId" mapstructure:"merchant_id"`
		Ccy        string `json:"ccy" mapstructure:"ccy"`

		PNSubKey    string `json:"pn_subkey" mapstructure:"pn_subkey"`
		PNSubSecret string `json:"pn_subsecret" mapstructure:"pn_subsecret"`
		PNUUID      string `json:"pn_uuid" mapstructure:"pn_uuid"`
		PNChannel   string `json:"pn_channel" mapstructure:"pn_channel"`
		PNCipherKey string `json:"pn_cipherKey" mapstructure:"pn_cipherkey"`

		BaseURL string `json:"baseUrl" mapstructure:"base_url"`

		PartnerID string `json:"partnerId" mapstructure:"partner_id"`
		ClientID  string `json:"clientId" mapstructure:"client_id"`
		ClientKey string `json:"clientKey" mapstructure:"client_key"`
		HMACKey   string `json:"hmacKey" mapstructure:"hmac_key"`
	}

	// HostedPay is a hosted checkout provider. Session creation and status
	// checks go over the signed HTTP API; settlement notifications arrive
	// on the provider's PubNub channel.
	HostedPay struct {
		MerchantID string
		CCy        string

		pnSubKey    string
		pnSubSecret string
		pnUUID      string
		pnChannels  []string
		pnCipherKey string

		listener *pubnub.Listener
		sub      *subscribe

		client *Client
	}
)

type (
	// FormSession carries everything the provider needs to build the
	// hosted checkout page.
	FormSession struct {
		UUID           string
		ReferenceLabel string
		Description    string
		Currency       string
		SuccessURL     string
		CancelURL      string
		Amount         decimal.Decimal
	}

	payload struct {
		RefID         string          `json:"refNo"`
		UUID          string          `json:"billNumber"`
		Status        string          `json:"txnStatus"`
		Ccy           string          `json:"sourceCurrency"`
		Payer         string          `json:"sourceName"`
		AccountNumber string          `json:"sourceAccount"`
		Amount        decimal.Decimal `json:"txnAmount"`
		CreatedAt     string          `json:"txnDateTime"`
	}
)

// New returns a new HostedPay instance.
func New(ctx context.Context, cfg *Config) (*HostedPay, error) {
	client := newClient(ctx, &ClientConfig{
		BaseURL:   cfg.BaseURL,
		PartnerID: cfg.PartnerID,
		ClientID:  cfg.ClientID,
		ClientKey: cfg.ClientKey,
		HMACKey:   cfg.HMACKey,
	})

	// Connect to the HostedPay backend. Get access token.
	token, err := client.connect(ctx)
	if err != nil {
		return nil, err
	}
	client.setAccessToken(token)

	// Notify access token expired.
	go client.notifyAccessTokenExpired(ctx)

	h := &HostedPay{
		MerchantID: cfg.MerchantID,
		CCy:        cfg.Ccy,

		pnSubKey:    cfg.PNSubKey,
		pnSubSecret: cfg.PNSubSecret,
		pnUUID:      cfg.PNUUID,
		pnChannels:  []string{cfg.PNChannel},
		pnCipherKey: cfg.PNCipherKey,
		listener:    pubnub.NewListener(),

		client: client,
	}

	// Set HostedPay's PubNub config.
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(h.pnUUID))
	pnCfg.SubscribeKey = h.pnSubKey
	pnCfg.CipherKey = h.pnCipherKey
	pnCfg.SecretKey = h.pnSubSecret

	// Subscribe to HostedPay's PubNub channel.
	newSub, err := h.newSubscription(ctx, pnCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to HostedPay's PubNub channel: %v", err)
	}

	newSub.pn.AddListener(newSub.lis)
	h.sub = newSub

	return h, nil
}

type subscribe struct {
	pn  *pubnub.PubNub
	lis *pubnub.Listener
	ch  chan *status.Transaction
}

func (h *HostedPay) newSubscription(ctx context.Context, pnCfg *pubnub.Config) (*subscribe, error) {
	sub := &subscribe{
		pn:  pubnub.NewPubNub(pnCfg),
		lis: pubnub.NewListener(),
	}

	go sub.processSubscription(ctx)

	return sub, nil
}

func (s *subscribe) processSubscription(ctx context.Context) error {
	listener := s.lis
	for {
		select {
		case st := <-listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				log.Println("connected to pubnub")

			case pubnub.PNReconnectedCategory:
				log.Println("reconnected to pubnub")

			case pubnub.PNDisconnectedCategory:
				log.Println("disconnected from pubnub")

			case pubnub.PNAccessDeniedCategory:
				log.Println("access denied connect to pubnub")

			case pubnub.PNTimeoutCategory:
				log.Println("timeout connect to pubnub")

			default:
				log.Println("unknown status category connect to pubnub")
			}

		case message := <-listener.Message:
			log.Println("message received pubnub: ", message.Message)

			var p payload
			dec := json.NewDecoder(strings.NewReader(message.Message.(string)))
			if err := dec.Decode(&p); err != nil {
				log.Println(err)
				continue
			}

			tran, err := p.ToDomain()
			if err != nil {
				log.Println(err)
				continue
			}

			if s.ch != nil {
				s.ch <- tran
			}

		case <-ctx.Done():
			log.Println("close subscribe")
			return nil
		}
	}
}

func (p *payload) ToDomain() (*status.Transaction, error) {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", p.CreatedAt, time.Local)
	if err != nil {
		return nil, err
	}

	return &status.Transaction{
		RefID:         p.RefID,
		UUID:          p.UUID,
		Status:        p.Status,
		Ccy:           p.Ccy,
		Payer:         p.Payer,
		AccountNumber: p.AccountNumber,
		Amount:        p.Amount,
		CreatedAt:     ts,
	}, nil
}

func (h *HostedPay) addChannel(_ context.Context, uuid string) {
	// Per-session channel; settlement for one bill lands on merchantID_uuid.
	channel := fmt.Sprintf("%s_%s", h.MerchantID, uuid)

	// Get last 2 minutes timetoken.
	tt := time.Now().Add(time.Duration(-2*time.Minute)).Unix() * 10000

	h.sub.pn.Subscribe().Channels([]string{channel}).Timetoken(tt).Execute()
}

func (h *HostedPay) Unsubscribe(ctx context.Context, uuid string) {
	h.sub.pn.Unsubscribe().Channels([]string{fmt.Sprintf("%s_%s", h.MerchantID, uuid)}).Execute()
}

func (h *HostedPay) SetTranChannel(ch chan *status.Transaction) {
	h.sub.ch = ch
}

func (h *HostedPay) CheckTransaction(ctx context.Context, uuid string) (*status.Transaction, error) {
	return h.client.checkTransaction(ctx, uuid)
}

// CreateSession creates a hosted checkout session and subscribes to the
// session's settlement channel.
func (h *HostedPay) CreateSession(ctx context.Context, f *FormSession) (string, string, error) {
	if f.Currency == "" {
		f.Currency = h.CCy
	}

	reply, err := h.client.createSession(ctx, f)
	if err != nil {
		return "", "", err
	}

	h.addChannel(ctx, f.UUID)

	return reply.SessionID, reply.URL, nil
}
