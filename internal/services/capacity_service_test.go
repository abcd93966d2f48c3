package services

import (
	"context"
	"testing"
	"time"

	"registration-system/internal/status"
	"registration-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestCapacityReportSumsConfirmedTickets(t *testing.T) {
	store := newFakeStore()
	event := paidEvent("evt1")
	event.Capacity = intPtr(100)
	store.addEvent(event)

	add := func(id string, tickets int, st models.PaymentStatus) {
		store.addRegistration(&models.Registration{
			ID:            id,
			EventID:       "evt1",
			TicketCount:   tickets,
			PaymentStatus: st,
			CreatedAt:     time.Now(),
		})
	}
	add("reg-1", 3, models.StatusConfirmed)
	add("reg-2", 2, models.StatusConfirmed)
	add("reg-3", 4, models.StatusPending)   // not counted
	add("reg-4", 5, models.StatusCancelled) // not counted
	add("reg-5", 1, models.StatusAbsent)    // cash on a paid event, not counted

	svc := NewCapacityService(store)
	report, err := svc.Report(context.Background(), "evt1")
	require.NoError(t, err)

	assert.Equal(t, 5, report.ConfirmedTickets)
	require.NotNil(t, report.Capacity)
	assert.Equal(t, 100, *report.Capacity)
	require.NotNil(t, report.Remaining)
	assert.Equal(t, 95, *report.Remaining)
}

func TestCapacityFreeEventCountsAbsentStatus(t *testing.T) {
	store := newFakeStore()
	store.addEvent(freeEvent("evt1"))

	// Legacy free-event records with no status ever written.
	store.addRegistration(&models.Registration{
		ID: "reg-1", EventID: "evt1", TicketCount: 2, CreatedAt: time.Now(),
	})
	store.addRegistration(&models.Registration{
		ID: "reg-2", EventID: "evt1", TicketCount: 1,
		PaymentStatus: models.StatusConfirmed, CreatedAt: time.Now(),
	})

	svc := NewCapacityService(store)
	report, err := svc.Report(context.Background(), "evt1")
	require.NoError(t, err)

	assert.Equal(t, 3, report.ConfirmedTickets)
	assert.Nil(t, report.Capacity)
	assert.Nil(t, report.Remaining)
}

func TestCapacityOverbookingReportsNegativeRemaining(t *testing.T) {
	store := newFakeStore()
	event := paidEvent("evt1")
	event.Capacity = intPtr(2)
	store.addEvent(event)

	store.addRegistration(&models.Registration{
		ID: "reg-1", EventID: "evt1", TicketCount: 5,
		PaymentStatus: models.StatusConfirmed, CreatedAt: time.Now(),
	})

	svc := NewCapacityService(store)
	report, err := svc.Report(context.Background(), "evt1")
	require.NoError(t, err)

	// Capacity is advisory; the report surfaces the overrun instead of
	// clamping it.
	require.NotNil(t, report.Remaining)
	assert.Equal(t, -3, *report.Remaining)
}

func TestCapacityUnknownEvent(t *testing.T) {
	svc := NewCapacityService(newFakeStore())

	_, err := svc.Report(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}
