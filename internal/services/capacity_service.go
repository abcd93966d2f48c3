package services

import (
	"context"

	"registration-system/models"
	"registration-system/monitoring"
)

// CapacityService derives confirmed ticket counts against event capacity.
// The numbers are advisory display values; submission is never blocked on
// them and nothing here reserves seats.
type CapacityService struct {
	store RecordStore
}

func NewCapacityService(store RecordStore) *CapacityService {
	return &CapacityService{store: store}
}

type CapacityReport struct {
	EventID          string `json:"event_id"`
	ConfirmedTickets int    `json:"confirmed_tickets"`
	Capacity         *int   `json:"capacity,omitempty"` // nil = unlimited
	Remaining        *int   `json:"remaining,omitempty"`
}

// Report sums ticket counts over registrations in the confirmed bucket,
// not raw record counts.
func (s *CapacityService) Report(ctx context.Context, eventID string) (*CapacityReport, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.sumConfirmed(ctx, event)
	if err != nil {
		return nil, err
	}

	monitoring.SetConfirmedTickets(eventID, confirmed)

	report := &CapacityReport{
		EventID:          eventID,
		ConfirmedTickets: confirmed,
		Capacity:         event.Capacity,
	}
	if event.Capacity != nil {
		remaining := *event.Capacity - confirmed
		report.Remaining = &remaining
	}
	return report, nil
}

// ticketSummer is the SQL fast path the PocketBase store provides.
type ticketSummer interface {
	SumConfirmedTickets(ctx context.Context, event *models.Event) (int, error)
}

func (s *CapacityService) sumConfirmed(ctx context.Context, event *models.Event) (int, error) {
	if summer, ok := s.store.(ticketSummer); ok {
		return summer.SumConfirmedTickets(ctx, event)
	}

	regs, err := s.store.ListRegistrations(ctx, event.ID)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for _, reg := range regs {
		if reg.ComputeBucket(event) == models.BucketConfirmed {
			confirmed += reg.TicketCount
		}
	}
	return confirmed, nil
}
