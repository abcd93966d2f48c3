package status

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEventNotFound        = errors.New("event: event not found")
	ErrRegistrationNotFound = errors.New("registration: registration not found")
	ErrMissingContact       = errors.New("registration: contact name and phone are required")
	ErrTicketCount          = errors.New("registration: ticket count out of range")
	ErrMethodRequired       = errors.New("registration: payment method required for paid event")
	ErrInvalidMethod        = errors.New("registration: unknown payment method")
	ErrProofRequired        = errors.New("registration: bank transfer requires payment evidence")
	ErrEvidenceTooLarge     = errors.New("evidence: file exceeds upload limit")
	ErrEvidenceNotImage     = errors.New("evidence: file must be an image")
	ErrCardRequiresCheckout = errors.New("registration: card payments go through checkout")
	ErrFreeEventCheckout    = errors.New("checkout: free event does not require payment")
	ErrIntentNotFound       = errors.New("checkout: intent not found or expired")
	ErrIntentSecret         = errors.New("checkout: intent secret mismatch")
	ErrAlreadyDecided       = errors.New("review: registration already decided")
	ErrUnknownOutcome       = errors.New("review: unknown decision outcome")
	ErrPaymentVerification  = errors.New("checkout: gateway transaction does not match intent")
	ErrFailedPayment        = errors.New("payment: payment failed")
)

// Transaction is a gateway-reported settlement, as delivered by the checkout
// provider's push channel or its status endpoint.
type Transaction struct {
	RefID         string
	UUID          string
	Status        string
	Payer         string
	AccountNumber string
	Ccy           string
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
