package services

import (
	"context"

	"registration-system/models"
)

// RecordStore is the persistence boundary for events and registrations.
// Implemented over PocketBase in production; faked in tests.
type RecordStore interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	CreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id string, st models.PaymentStatus, actor string) (*models.Registration, error)

	// ListRegistrations returns registrations, optionally scoped to one
	// event. An empty eventID means all events.
	ListRegistrations(ctx context.Context, eventID string) ([]*models.Registration, error)
}
