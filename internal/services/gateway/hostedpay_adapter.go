package gateway

import (
	"context"
	"fmt"

	"registration-system/internal/services/gateway/hostedpay"
	"registration-system/internal/status"
)

// HostedPayAdapter wraps the HostedPay implementation to conform to Interface
type HostedPayAdapter struct {
	client *hostedpay.HostedPay
}

// NewHostedPayAdapter creates a new HostedPay adapter
func NewHostedPayAdapter(ctx context.Context, config *hostedpay.Config) (*HostedPayAdapter, error) {
	client, err := hostedpay.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create HostedPay client: %w", err)
	}

	return &HostedPayAdapter{
		client: client,
	}, nil
}

// GetProvider returns the checkout provider type
func (a *HostedPayAdapter) GetProvider() Provider {
	return ProviderHostedPay
}

// CreateSession creates a hosted checkout session via HostedPay
func (a *HostedPayAdapter) CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	form := &hostedpay.FormSession{
		UUID:           req.UUID,
		ReferenceLabel: req.ReferenceNumber,
		Description:    req.Description,
		Currency:       req.Currency,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		Amount:         req.Amount,
	}

	sessionID, url, err := a.client.CreateSession(ctx, form)
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		SessionID: sessionID,
		URL:       url,
	}, nil
}

// CheckTransaction checks the settlement state of a session
func (a *HostedPayAdapter) CheckTransaction(ctx context.Context, uuid string) (*status.Transaction, error) {
	return a.client.CheckTransaction(ctx, uuid)
}

// SetTransactionChannel sets the channel for receiving settlement notifications
func (a *HostedPayAdapter) SetTransactionChannel(ch chan *status.Transaction) {
	a.client.SetTranChannel(ch)
}

// Close gracefully closes any connections
func (a *HostedPayAdapter) Close(ctx context.Context) error {
	// HostedPay doesn't have explicit close method
	return nil
}
