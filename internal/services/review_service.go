package services

import (
	"context"
	"sort"
	"sync"

	"registration-system/internal/status"
	"registration-system/models"
	"registration-system/monitoring"
)

type DecisionOutcome string

const (
	OutcomeApprove DecisionOutcome = "approve"
	OutcomeReject  DecisionOutcome = "reject"
)

// ReviewService lets staff resolve registrations awaiting evidence review.
// It keeps one canonical in-memory copy per registration id; the per-event
// list and the cross-event review queue are projections over that single
// registry, so a successful decision is visible in every view before any
// subsequent read. Decisions are never applied optimistically: the store
// write happens first and a failure leaves the registry untouched.
type ReviewService struct {
	store     RecordStore
	evidence  *EvidenceService
	publisher Publisher
	channel   string

	mu       sync.RWMutex
	registry map[string]*models.Registration
	events   map[string]*models.Event
}

func NewReviewService(store RecordStore, evidence *EvidenceService, publisher Publisher, channel string) *ReviewService {
	return &ReviewService{
		store:     store,
		evidence:  evidence,
		publisher: publisher,
		channel:   channel,
		registry:  make(map[string]*models.Registration),
		events:    make(map[string]*models.Event),
	}
}

// refresh pulls the given scope from the store into the registry. Store
// copies are canonical; local entries for fetched ids are overwritten.
func (s *ReviewService) refresh(ctx context.Context, eventID string) error {
	regs, err := s.store.ListRegistrations(ctx, eventID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range regs {
		s.registry[reg.ID] = reg
	}
	return nil
}

func (s *ReviewService) eventFor(ctx context.Context, eventID string) (*models.Event, bool) {
	s.mu.RLock()
	event, ok := s.events[eventID]
	s.mu.RUnlock()
	if ok {
		return event, true
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		// Not cached: a transient lookup failure must recover on retry.
		return nil, false
	}

	s.mu.Lock()
	s.events[eventID] = event
	s.mu.Unlock()
	return event, true
}

// bucketFor classifies one registration for display. A stored status needs no
// event configuration. An absent status normally falls back to the event's
// pricing, but when the event cannot be fetched nothing proves the fee was
// zero, so the row fails toward pending rather than reading as settled.
func (s *ReviewService) bucketFor(ctx context.Context, reg *models.Registration) models.Bucket {
	if reg.PaymentStatus != models.StatusAbsent {
		return reg.ComputeBucket(nil)
	}

	event, ok := s.eventFor(ctx, reg.EventID)
	if !ok {
		return models.BucketPending
	}
	return reg.ComputeBucket(event)
}

// RegistrationView is one row of a staff-facing list.
type RegistrationView struct {
	*models.Registration
	Bucket models.Bucket `json:"bucket"`
}

// ListByEvent is the per-event staff view.
func (s *ReviewService) ListByEvent(ctx context.Context, eventID string) ([]*RegistrationView, error) {
	if err := s.refresh(ctx, eventID); err != nil {
		return nil, err
	}
	return s.project(ctx, func(reg *models.Registration) bool {
		return reg.EventID == eventID
	}), nil
}

// ListReviewables is the cross-event "payments needing review" view,
// optionally scoped to one event. Membership is driven by the pending
// evidence predicate, not the display bucket.
func (s *ReviewService) ListReviewables(ctx context.Context, eventID string) ([]*RegistrationView, error) {
	if err := s.refresh(ctx, eventID); err != nil {
		return nil, err
	}
	return s.project(ctx, func(reg *models.Registration) bool {
		if eventID != "" && reg.EventID != eventID {
			return false
		}
		return reg.HasPendingEvidence()
	}), nil
}

// CountReviewables feeds the monitoring gauge.
func (s *ReviewService) CountReviewables(ctx context.Context) (int, error) {
	views, err := s.ListReviewables(ctx, "")
	if err != nil {
		return 0, err
	}
	return len(views), nil
}

func (s *ReviewService) project(ctx context.Context, keep func(*models.Registration) bool) []*RegistrationView {
	s.mu.RLock()
	selected := make([]*models.Registration, 0)
	for _, reg := range s.registry {
		if keep(reg) {
			selected = append(selected, reg)
		}
	}
	s.mu.RUnlock()

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].CreatedAt.After(selected[j].CreatedAt)
	})

	views := make([]*RegistrationView, len(selected))
	for i, reg := range selected {
		views[i] = &RegistrationView{
			Registration: reg,
			Bucket:       s.bucketFor(ctx, reg),
		}
	}
	return views
}

// Decide resolves one reviewable registration. approve confirms, reject
// cancels. Once a registration carries a terminal status it cannot be
// decided again without an explicit Reopen.
func (s *ReviewService) Decide(ctx context.Context, id string, outcome DecisionOutcome, actor string) (*models.Registration, error) {
	var newStatus models.PaymentStatus
	switch outcome {
	case OutcomeApprove:
		newStatus = models.StatusConfirmed
	case OutcomeReject:
		newStatus = models.StatusCancelled
	default:
		return nil, status.ErrUnknownOutcome
	}

	current, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Decided() {
		return nil, status.ErrAlreadyDecided
	}

	updated, err := s.store.UpdateRegistrationStatus(ctx, id, newStatus, actor)
	if err != nil {
		// No optimistic update for payment decisions; every view still
		// shows the old state.
		return nil, err
	}

	s.mu.Lock()
	s.registry[id] = updated
	s.mu.Unlock()

	monitoring.TrackReviewDecision(string(outcome))

	notify(s.publisher, s.channel, map[string]any{
		"type":            "registration_decided",
		"registration_id": updated.ID,
		"event_id":        updated.EventID,
		"status":          string(updated.PaymentStatus),
		"actor":           actor,
	})

	return updated, nil
}

// Reopen is the one sanctioned backward transition: a decided registration
// goes back to pending for a second look.
func (s *ReviewService) Reopen(ctx context.Context, id, actor string) (*models.Registration, error) {
	if _, err := s.current(ctx, id); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateRegistrationStatus(ctx, id, models.StatusPending, actor)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.registry[id] = updated
	s.mu.Unlock()

	notify(s.publisher, s.channel, map[string]any{
		"type":            "registration_reopened",
		"registration_id": updated.ID,
		"event_id":        updated.EventID,
		"actor":           actor,
	})

	return updated, nil
}

// ResolveEvidenceURL exchanges a proof reference for a viewable URL via the
// shared evidence cache.
func (s *ReviewService) ResolveEvidenceURL(ctx context.Context, ref string) (string, error) {
	return s.evidence.ResolveURL(ctx, ref)
}

func (s *ReviewService) current(ctx context.Context, id string) (*models.Registration, error) {
	s.mu.RLock()
	reg, ok := s.registry[id]
	s.mu.RUnlock()
	if ok {
		return reg, nil
	}

	reg, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.registry[id] = reg
	s.mu.Unlock()
	return reg, nil
}
