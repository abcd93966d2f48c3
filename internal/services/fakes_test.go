package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"registration-system/internal/services/gateway"
	"registration-system/internal/status"
	"registration-system/models"
)

// fakeStore is an in-memory RecordStore with error injection.
type fakeStore struct {
	mu     sync.Mutex
	nextID int

	events        map[string]*models.Event
	registrations map[string]*models.Registration

	createErr error
	updateErr error
	listErr   error

	createCalls int
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[string]*models.Event),
		registrations: make(map[string]*models.Registration),
	}
}

func (f *fakeStore) addEvent(event *models.Event) {
	f.events[event.ID] = event
}

func (f *fakeStore) addRegistration(reg *models.Registration) {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	f.registrations[reg.ID] = reg
}

func (f *fakeStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[id]
	if !ok {
		return nil, status.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeStore) CreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextID++
	copied := *reg
	copied.ID = fmt.Sprintf("reg-%d", f.nextID)
	copied.CreatedAt = time.Now()
	f.registrations[copied.ID] = &copied

	result := copied
	return &result, nil
}

func (f *fakeStore) UpdateRegistrationStatus(ctx context.Context, id string, st models.PaymentStatus, actor string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}

	reg, ok := f.registrations[id]
	if !ok {
		return nil, status.ErrRegistrationNotFound
	}

	updated := *reg
	updated.PaymentStatus = st
	updated.Actor = actor
	f.registrations[id] = &updated

	result := updated
	return &result, nil
}

func (f *fakeStore) ListRegistrations(ctx context.Context, eventID string) ([]*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	result := make([]*models.Registration, 0)
	for _, reg := range f.registrations {
		if eventID != "" && reg.EventID != eventID {
			continue
		}
		copied := *reg
		result = append(result, &copied)
	}
	return result, nil
}

// fakePublisher records published messages.
type fakePublisher struct {
	mu       sync.Mutex
	err      error
	messages []map[string]any
}

func (f *fakePublisher) Publish(channel string, message map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

// fakeEvidenceStore counts upload and exchange calls.
type fakeEvidenceStore struct {
	mu            sync.Mutex
	uploadCalls   int
	exchangeCalls int
	signErr       error
}

func (f *fakeEvidenceStore) Upload(ctx context.Context, key, mimeType string, size int64, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	return key, nil
}

func (f *fakeEvidenceStore) SignURL(ctx context.Context, ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://evidence.local/%s?expires=123&signature=abc", ref), nil
}

// fakeGateway is a scripted checkout provider.
type fakeGateway struct {
	sessionErr error
	checkErr   error
	tx         *status.Transaction

	createCalls int
	checkCalls  int
}

func (f *fakeGateway) GetProvider() gateway.Provider {
	return gateway.Provider("fake")
}

func (f *fakeGateway) CreateSession(ctx context.Context, req *gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	f.createCalls++
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &gateway.CheckoutSession{
		SessionID: "sess-1",
		URL:       "https://pay.local/checkout/sess-1",
	}, nil
}

func (f *fakeGateway) CheckTransaction(ctx context.Context, uuid string) (*status.Transaction, error) {
	f.checkCalls++
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	if f.tx != nil {
		return f.tx, nil
	}
	return nil, status.ErrFailedPayment
}

func (f *fakeGateway) SetTransactionChannel(ch chan *status.Transaction) {}

func (f *fakeGateway) Close(ctx context.Context) error { return nil }
