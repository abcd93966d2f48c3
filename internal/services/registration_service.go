package services

import (
	"context"

	"registration-system/internal/status"
	"registration-system/models"
	"registration-system/monitoring"
)

// RegistrationService is the submission engine for the non-card paths:
// free events, cash at the door, and bank transfers with uploaded evidence.
// Card submissions are owned by CheckoutService.
type RegistrationService struct {
	store        RecordStore
	publisher    Publisher
	staffChannel string
	maxTickets   int
}

func NewRegistrationService(store RecordStore, publisher Publisher, staffChannel string, maxTickets int) *RegistrationService {
	return &RegistrationService{
		store:        store,
		publisher:    publisher,
		staffChannel: staffChannel,
		maxTickets:   maxTickets,
	}
}

type CreateRegistrationRequest struct {
	EventID     string               `json:"event_id"`
	Name        string               `json:"name"`
	Phone       string               `json:"phone"`
	Email       string               `json:"email"`
	Note        string               `json:"note"`
	TicketCount int                  `json:"ticket_count"`
	Method      models.PaymentMethod `json:"payment_method"`

	// ProofRef is the evidence store reference for bank transfers,
	// uploaded and validated before the record is created.
	ProofRef string `json:"proof_ref"`
}

func (s *RegistrationService) validate(req *CreateRegistrationRequest) error {
	if req.Name == "" || req.Phone == "" {
		return status.ErrMissingContact
	}
	if req.TicketCount < 1 || req.TicketCount > s.maxTickets {
		return status.ErrTicketCount
	}
	return nil
}

// Create produces exactly one registration record with a payment status
// consistent with its payment method. Validation failures never reach the
// record store.
func (s *RegistrationService) Create(ctx context.Context, req *CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		EventID: req.EventID,
		Contact: models.Contact{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
		},
		Note:        req.Note,
		TicketCount: req.TicketCount,
	}

	switch {
	case event.IsFree():
		// No payment path at all; settled at creation.
		reg.PaymentStatus = models.StatusConfirmed

	default:
		if req.Method == "" {
			return nil, status.ErrMethodRequired
		}
		if !req.Method.Valid() {
			return nil, status.ErrInvalidMethod
		}
		if req.Method == models.MethodCard {
			return nil, status.ErrCardRequiresCheckout
		}

		reg.PaymentMethod = req.Method

		if req.Method.IsTransfer() {
			// A transfer registration never exists without its evidence.
			if req.ProofRef == "" {
				return nil, status.ErrProofRequired
			}
			reg.PaymentProof = req.ProofRef
			reg.PaymentStatus = models.StatusPending
		}
		// Cash settles physically at the event; status stays unwritten.
	}

	created, err := s.store.CreateRegistration(ctx, reg)
	if err != nil {
		return nil, err
	}

	monitoring.TrackRegistrationCreated(string(created.PaymentMethod))

	notify(s.publisher, s.staffChannel, map[string]any{
		"type":            "registration_created",
		"registration_id": created.ID,
		"event_id":        created.EventID,
		"bucket":          string(created.ComputeBucket(event)),
		"needs_review":    created.HasPendingEvidence(),
	})

	return created, nil
}

// ListByEvent returns the raw per-event registration list with computed
// buckets attached by the caller.
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	return s.store.ListRegistrations(ctx, eventID)
}
