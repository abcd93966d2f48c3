package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"registration-system/internal/services/gateway"
	"registration-system/internal/status"
	"registration-system/models"
	"registration-system/monitoring"
	"registration-system/utils"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CheckoutService owns the card payment path as an explicit two-phase
// protocol. Phase 1 persists a resumable intent in Redis and hands the
// registrant off to the hosted checkout page; phase 2 runs on the return
// redirect (or on the gateway's push notification) and either creates the
// registration or discards the intent. No registration record exists while
// the redirect is in flight.
type CheckoutService struct {
	Redis     *redis.Client
	store     RecordStore
	gateway   gateway.Interface
	breaker   *utils.CircuitBreaker
	publicURL string
	timeout   time.Duration

	maxTickets int
}

func NewCheckoutService(redisClient *redis.Client, store RecordStore, gw gateway.Interface, publicURL string, timeout time.Duration, maxTickets int) *CheckoutService {
	return &CheckoutService{
		Redis:      redisClient,
		store:      store,
		gateway:    gw,
		breaker:    utils.NewCircuitBreaker("gateway"),
		publicURL:  publicURL,
		timeout:    timeout,
		maxTickets: maxTickets,
	}
}

type BeginCheckoutRequest struct {
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Note        string `json:"note"`
	TicketCount int    `json:"ticket_count"`
	IsMember    bool   `json:"is_member"`
}

type CheckoutOutcome string

const (
	OutcomeSuccess CheckoutOutcome = "success"
	OutcomeCancel  CheckoutOutcome = "cancel"
)

func intentKey(token string) string {
	return fmt.Sprintf("intent:%s", token)
}

// Begin validates the form, creates a hosted checkout session and persists
// the intent so it survives the full-page redirect. Returns the gateway URL
// and the intent token.
func (s *CheckoutService) Begin(ctx context.Context, req *BeginCheckoutRequest) (string, string, error) {
	if req.Name == "" || req.Phone == "" {
		return "", "", status.ErrMissingContact
	}
	if req.TicketCount < 1 || req.TicketCount > s.maxTickets {
		return "", "", status.ErrTicketCount
	}

	event, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		return "", "", err
	}
	if event.IsFree() {
		return "", "", status.ErrFreeEventCheckout
	}

	token, err := utils.GenerateCode(8)
	if err != nil {
		return "", "", err
	}
	secret, err := utils.GenerateCode(16)
	if err != nil {
		return "", "", err
	}
	secretHash, err := utils.HashSecret(secret)
	if err != nil {
		return "", "", err
	}

	amount := event.PriceFor(req.IsMember).Mul(decimal.NewFromInt(int64(req.TicketCount)))

	result, err := s.breaker.Execute(ctx, func() (any, error) {
		return s.gateway.CreateSession(ctx, &gateway.CheckoutRequest{
			Amount:          amount,
			Currency:        event.Currency,
			UUID:            token,
			ReferenceNumber: fmt.Sprintf("%s-%s", event.ID, token),
			Description:     event.Name,
			SuccessURL:      fmt.Sprintf("%s/api/checkout/return?status=success&intent=%s&secret=%s", s.publicURL, token, secret),
			CancelURL:       fmt.Sprintf("%s/api/checkout/return?status=cancel&intent=%s&secret=%s", s.publicURL, token, secret),
		})
	})
	if err != nil {
		// Nothing persisted yet; the caller may simply retry.
		return "", "", err
	}
	session := result.(*gateway.CheckoutSession)

	intent := map[string]any{
		"event_id":     req.EventID,
		"name":         req.Name,
		"phone":        req.Phone,
		"email":        req.Email,
		"note":         req.Note,
		"ticket_count": req.TicketCount,
		"amount":       amount.String(),
		"session_id":   session.SessionID,
		"secret_hash":  secretHash,
		"created_at":   time.Now().Unix(),
	}

	key := intentKey(token)
	for k, v := range intent {
		s.Redis.HSet(ctx, key, k, v)
	}
	s.Redis.Expire(ctx, key, s.timeout)

	return session.URL, token, nil
}

// Complete finishes the redirect leg of the protocol. Success creates the
// registration after re-verifying the settlement with the gateway; cancel
// discards the intent so a later registration cannot inherit stale contact
// details. Either way the intent is gone afterwards, which makes the push
// path a no-op when the redirect already completed (and vice versa).
func (s *CheckoutService) Complete(ctx context.Context, token, secret string, outcome CheckoutOutcome) (*models.Registration, error) {
	key := intentKey(token)
	data, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		return nil, status.ErrIntentNotFound
	}

	if !utils.CompareSecret(data["secret_hash"], secret) {
		return nil, status.ErrIntentSecret
	}

	if outcome == OutcomeCancel {
		s.Redis.Del(ctx, key)
		monitoring.TrackCheckoutSession("cancel")
		return nil, nil
	}

	// Never trust the redirect's query flag alone: confirm amount and bill
	// reference against the gateway before a record exists.
	tx, err := s.gateway.CheckTransaction(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := verifyTransaction(tx, token, data["amount"]); err != nil {
		return nil, err
	}

	return s.settle(ctx, token, data)
}

// SettleFromPush completes an intent from the gateway's push notification.
// The notification arrives on an authenticated channel, so no return secret
// is involved; amount verification still applies.
func (s *CheckoutService) SettleFromPush(ctx context.Context, tx *status.Transaction) (*models.Registration, error) {
	key := intentKey(tx.UUID)
	data, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		// Redirect already settled it, or the intent expired.
		return nil, status.ErrIntentNotFound
	}

	if err := verifyTransaction(tx, tx.UUID, data["amount"]); err != nil {
		return nil, err
	}

	return s.settle(ctx, tx.UUID, data)
}

func (s *CheckoutService) settle(ctx context.Context, token string, data map[string]string) (*models.Registration, error) {
	ticketCount, _ := strconv.Atoi(data["ticket_count"])

	reg := &models.Registration{
		EventID: data["event_id"],
		Contact: models.Contact{
			Name:  data["name"],
			Phone: data["phone"],
			Email: data["email"],
		},
		Note:          data["note"],
		TicketCount:   ticketCount,
		PaymentMethod: models.MethodCard,
		// The charge was verified against the gateway, so the status can
		// be written outright. Legacy card records without a status are
		// still handled by the bucketing inference.
		PaymentStatus: models.StatusConfirmed,
	}

	created, err := s.store.CreateRegistration(ctx, reg)
	if err != nil {
		// Keep the intent so the return page can retry the create without
		// charging again.
		return nil, err
	}

	s.Redis.Del(ctx, intentKey(token))
	monitoring.TrackCheckoutSession("success")
	monitoring.TrackRegistrationCreated(string(models.MethodCard))

	log.Printf("checkout settled: intent=%s registration=%s", token, created.ID)
	return created, nil
}

// settledStatus reports whether the gateway considers the charge collected.
// Anything else (pending, cancelled, failed) must not produce a registration,
// no matter what the redirect's query flag claims.
func settledStatus(s string) bool {
	return s == "success" || s == "completed"
}

func verifyTransaction(tx *status.Transaction, token, wantAmount string) error {
	if tx == nil || tx.UUID != token {
		return status.ErrPaymentVerification
	}
	if !settledStatus(tx.Status) {
		return status.ErrPaymentVerification
	}

	want, err := decimal.NewFromString(wantAmount)
	if err != nil {
		return status.ErrPaymentVerification
	}
	if !tx.Amount.Equal(want) {
		return status.ErrPaymentVerification
	}
	return nil
}
