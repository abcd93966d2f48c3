package services

import (
	"context"
	"fmt"

	"registration-system/internal/status"
	"registration-system/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// PBStore implements RecordStore over the PocketBase collections `events`
// and `registrations`.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	return eventFromRecord(record), nil
}

func (s *PBStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	record, err := s.app.FindRecordById("registrations", id)
	if err != nil {
		return nil, status.ErrRegistrationNotFound
	}
	return registrationFromRecord(record), nil
}

func (s *PBStore) CreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	collection, err := s.app.FindCollectionByNameOrId("registrations")
	if err != nil {
		return nil, fmt.Errorf("find registrations collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event", reg.EventID)
	record.Set("name", reg.Contact.Name)
	record.Set("phone", reg.Contact.Phone)
	record.Set("email", reg.Contact.Email)
	record.Set("note", reg.Note)
	record.Set("ticket_count", reg.TicketCount)
	record.Set("payment_method", string(reg.PaymentMethod))
	if reg.PaymentStatus != models.StatusAbsent {
		record.Set("payment_status", string(reg.PaymentStatus))
	}
	if reg.PaymentProof != "" {
		record.Set("payment_proof", reg.PaymentProof)
	}
	if reg.Actor != "" {
		record.Set("actor", reg.Actor)
	}

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	return registrationFromRecord(record), nil
}

func (s *PBStore) UpdateRegistrationStatus(ctx context.Context, id string, st models.PaymentStatus, actor string) (*models.Registration, error) {
	record, err := s.app.FindRecordById("registrations", id)
	if err != nil {
		return nil, status.ErrRegistrationNotFound
	}

	record.Set("payment_status", string(st))
	record.Set("actor", actor)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return nil, fmt.Errorf("update registration status: %w", err)
	}

	return registrationFromRecord(record), nil
}

func (s *PBStore) ListRegistrations(ctx context.Context, eventID string) ([]*models.Registration, error) {
	filter := "id != ''"
	params := map[string]any{}
	if eventID != "" {
		filter = "event = {:eventId}"
		params["eventId"] = eventID
	}

	records, err := s.app.FindRecordsByFilter(
		"registrations",
		filter,
		"-created",
		-1,
		0,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	result := make([]*models.Registration, len(records))
	for i, record := range records {
		result[i] = registrationFromRecord(record)
	}
	return result, nil
}

// SumConfirmedTickets aggregates the confirmed bucket in SQL. The bucket
// inference collapses nicely here: on a fee-bearing event only an explicit
// confirmed status counts; on a free event an unwritten status counts too.
func (s *PBStore) SumConfirmedTickets(ctx context.Context, event *models.Event) (int, error) {
	conds := []dbx.Expression{dbx.HashExp{"payment_status": "confirmed"}}
	if !event.FeeBearing() {
		conds = append(conds, dbx.NewExp("payment_status = '' OR payment_status IS NULL"))
	}

	var total int
	err := s.app.DB().
		Select("COALESCE(SUM(ticket_count), 0)").
		From("registrations").
		Where(dbx.And(dbx.HashExp{"event": event.ID}, dbx.Or(conds...))).
		Row(&total)
	if err != nil {
		return 0, fmt.Errorf("sum confirmed tickets: %w", err)
	}
	return total, nil
}

func eventFromRecord(record *core.Record) *models.Event {
	event := &models.Event{
		ID:         record.Id,
		Name:       record.GetString("name"),
		Fee:        decimal.NewFromFloat(record.GetFloat("fee")),
		AccessType: models.AccessType(record.GetString("access_type")),
		Currency:   record.GetString("currency"),
		StartTime:  record.GetDateTime("start_at").Time(),
		EndTime:    record.GetDateTime("end_at").Time(),
	}

	// Number fields cannot distinguish unset from zero; only a positive
	// member fee is treated as a distinct tier.
	if memberFee := record.GetFloat("member_fee"); memberFee > 0 {
		v := decimal.NewFromFloat(memberFee)
		event.MemberFee = &v
	}
	if capacity := record.GetInt("capacity"); capacity > 0 {
		event.Capacity = &capacity
	}

	return event
}

// registrationFromRecord normalizes a stored record into the canonical
// model. Older records wrote camelCase spellings for the payment fields;
// both are accepted here and nowhere else.
func registrationFromRecord(record *core.Record) *models.Registration {
	paymentStatus := record.GetString("payment_status")
	if paymentStatus == "" {
		paymentStatus = record.GetString("paymentStatus")
	}

	paymentProof := record.GetString("payment_proof")
	if paymentProof == "" {
		paymentProof = record.GetString("paymentProof")
	}

	return &models.Registration{
		ID:      record.Id,
		EventID: record.GetString("event"),
		Contact: models.Contact{
			Name:  record.GetString("name"),
			Phone: record.GetString("phone"),
			Email: record.GetString("email"),
		},
		Note:          record.GetString("note"),
		TicketCount:   record.GetInt("ticket_count"),
		PaymentMethod: models.PaymentMethod(record.GetString("payment_method")),
		PaymentStatus: models.PaymentStatus(paymentStatus),
		PaymentProof:  paymentProof,
		Actor:         record.GetString("actor"),
		CreatedAt:     record.GetDateTime("created").Time(),
	}
}
