package gateway

import (
	"context"
	"registration-system/internal/status"

	"github.com/shopspring/decimal"
)

// Provider represents different hosted checkout providers
type Provider string

const (
	ProviderHostedPay Provider = "hostedpay"
	ProviderStripe    Provider = "stripe"
)

// CheckoutRequest represents a generic hosted checkout session request
type CheckoutRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	UUID            string          `json:"uuid"`
	ReferenceNumber string          `json:"reference_number"`
	Description     string          `json:"description,omitempty"`
	SuccessURL      string          `json:"success_url"`
	CancelURL       string          `json:"cancel_url"`
	ExpiryMinutes   string          `json:"expiry_minutes,omitempty"`
}

// CheckoutSession is the hosted page the registrant is redirected to
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Interface defines the common interface for all checkout providers
type Interface interface {
	// GetProvider returns the checkout provider type
	GetProvider() Provider

	// CreateSession creates a hosted checkout session
	CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)

	// CheckTransaction checks the settlement state of a session
	CheckTransaction(ctx context.Context, uuid string) (*status.Transaction, error)

	// SetTransactionChannel sets the channel for receiving settlement notifications
	SetTransactionChannel(ch chan *status.Transaction)

	// Close gracefully closes any connections
	Close(ctx context.Context) error
}
