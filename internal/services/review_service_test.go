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

func newReviewFixture(t *testing.T) (*ReviewService, *fakeStore, *fakeEvidenceStore) {
	t.Helper()
	store := newFakeStore()
	store.addEvent(paidEvent("evt1"))
	evidenceStore := &fakeEvidenceStore{}
	evidence := NewEvidenceService(evidenceStore, 5<<20)
	svc := NewReviewService(store, evidence, &fakePublisher{}, "staff-channel")
	return svc, store, evidenceStore
}

func transferRegistration(id, eventID string) *models.Registration {
	return &models.Registration{
		ID:            id,
		EventID:       eventID,
		Contact:       models.Contact{Name: "Ada Lovelace", Phone: "555-0100"},
		TicketCount:   1,
		PaymentMethod: models.MethodTransferInstant,
		PaymentStatus: models.StatusPending,
		PaymentProof:  "proofs/ABCDEF/slip.jpg",
		CreatedAt:     time.Now(),
	}
}

func TestDecisionVisibleInEveryView(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	// Warm both projections before deciding.
	reviewables, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	require.Len(t, reviewables, 1)

	perEvent, err := svc.ListByEvent(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, perEvent, 1)
	assert.Equal(t, models.BucketPending, perEvent[0].Bucket)

	_, err = svc.Decide(ctx, "reg-1", OutcomeApprove, "staff-9")
	require.NoError(t, err)

	perEvent, err = svc.ListByEvent(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, perEvent, 1)
	assert.Equal(t, models.BucketConfirmed, perEvent[0].Bucket)
	assert.Equal(t, models.StatusConfirmed, perEvent[0].PaymentStatus)

	reviewables, err = svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, reviewables)
}

func TestRejectRemovesFromReviewQueue(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	updated, err := svc.Decide(ctx, "reg-1", OutcomeReject, "staff-9")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.PaymentStatus)
	assert.Equal(t, "staff-9", updated.Actor)

	reviewables, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, reviewables)

	perEvent, err := svc.ListByEvent(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, perEvent, 1)
	assert.Equal(t, models.BucketCancelled, perEvent[0].Bucket)
}

func TestDecideStoreFailureLeavesViewsUntouched(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	store.updateErr = assert.AnError
	_, err := svc.Decide(ctx, "reg-1", OutcomeApprove, "staff-9")
	assert.Error(t, err)

	reviewables, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	require.Len(t, reviewables, 1)
	assert.Equal(t, models.StatusPending, reviewables[0].PaymentStatus)
}

func TestDecideIsTerminal(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	_, err := svc.Decide(ctx, "reg-1", OutcomeApprove, "staff-9")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, "reg-1", OutcomeReject, "staff-9")
	assert.ErrorIs(t, err, status.ErrAlreadyDecided)
	_, err = svc.Decide(ctx, "reg-1", OutcomeApprove, "staff-9")
	assert.ErrorIs(t, err, status.ErrAlreadyDecided)

	assert.Equal(t, 1, store.updateCalls)
}

func TestDecideUnknownOutcomeAndRegistration(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	_, err := svc.Decide(ctx, "reg-1", "defer", "staff-9")
	assert.ErrorIs(t, err, status.ErrUnknownOutcome)

	_, err = svc.Decide(ctx, "missing", OutcomeApprove, "staff-9")
	assert.ErrorIs(t, err, status.ErrRegistrationNotFound)
}

func TestReopenAllowsSecondDecision(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	ctx := context.Background()

	_, err := svc.Decide(ctx, "reg-1", OutcomeReject, "staff-9")
	require.NoError(t, err)

	reopened, err := svc.Reopen(ctx, "reg-1", "staff-lead")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reopened.PaymentStatus)

	reviewables, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	require.Len(t, reviewables, 1)

	updated, err := svc.Decide(ctx, "reg-1", OutcomeApprove, "staff-lead")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.PaymentStatus)
}

func TestReviewQueueExcludesCashWithoutEvidence(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	store.addRegistration(&models.Registration{
		ID:            "reg-2",
		EventID:       "evt1",
		Contact:       models.Contact{Name: "Grace Hopper", Phone: "555-0101"},
		TicketCount:   1,
		PaymentMethod: models.MethodCash,
		CreatedAt:     time.Now(),
	})
	ctx := context.Background()

	reviewables, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	require.Len(t, reviewables, 1)
	assert.Equal(t, "reg-1", reviewables[0].ID)

	// Both still show up in the per-event pending bucket.
	perEvent, err := svc.ListByEvent(ctx, "evt1")
	require.NoError(t, err)
	require.Len(t, perEvent, 2)
	for _, view := range perEvent {
		assert.Equal(t, models.BucketPending, view.Bucket)
	}
}

func TestReviewQueueScopedToEvent(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	store.addEvent(paidEvent("evt2"))
	store.addRegistration(transferRegistration("reg-1", "evt1"))
	store.addRegistration(transferRegistration("reg-2", "evt2"))
	ctx := context.Background()

	all, err := svc.ListReviewables(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.ListReviewables(ctx, "evt2")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "reg-2", scoped[0].ID)
}

func TestBucketFailsTowardPendingWhenEventUnknown(t *testing.T) {
	svc, store, _ := newReviewFixture(t)
	// Cash registration on an event the store cannot resolve right now.
	store.addRegistration(&models.Registration{
		ID:            "reg-1",
		EventID:       "evt-missing",
		Contact:       models.Contact{Name: "Ada Lovelace", Phone: "555-0100"},
		TicketCount:   1,
		PaymentMethod: models.MethodCash,
		CreatedAt:     time.Now(),
	})
	// A decided registration on the same unknown event keeps its status.
	decided := transferRegistration("reg-2", "evt-missing")
	decided.PaymentStatus = models.StatusConfirmed
	store.addRegistration(decided)
	ctx := context.Background()

	perEvent, err := svc.ListByEvent(ctx, "evt-missing")
	require.NoError(t, err)
	require.Len(t, perEvent, 2)

	buckets := map[string]models.Bucket{}
	for _, view := range perEvent {
		buckets[view.ID] = view.Bucket
	}
	// Absent status with no event to consult must not read as settled.
	assert.Equal(t, models.BucketPending, buckets["reg-1"])
	assert.Equal(t, models.BucketConfirmed, buckets["reg-2"])

	// Once the event resolves as free, the same row settles.
	store.addEvent(freeEvent("evt-missing"))
	perEvent, err = svc.ListByEvent(ctx, "evt-missing")
	require.NoError(t, err)
	buckets = map[string]models.Bucket{}
	for _, view := range perEvent {
		buckets[view.ID] = view.Bucket
	}
	assert.Equal(t, models.BucketConfirmed, buckets["reg-1"])
}

func TestResolveEvidenceURLCachesExchange(t *testing.T) {
	svc, _, evidenceStore := newReviewFixture(t)
	ctx := context.Background()

	first, err := svc.ResolveEvidenceURL(ctx, "proofs/ABCDEF/slip.jpg")
	require.NoError(t, err)
	assert.Contains(t, first, "signature=")

	second, err := svc.ResolveEvidenceURL(ctx, "proofs/ABCDEF/slip.jpg")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, evidenceStore.exchangeCalls)
}

func TestResolveEvidenceURLAbsolutePassthrough(t *testing.T) {
	svc, _, evidenceStore := newReviewFixture(t)

	url, err := svc.ResolveEvidenceURL(context.Background(), "https://legacy.example.com/slip.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com/slip.jpg", url)
	assert.Zero(t, evidenceStore.exchangeCalls)
}
