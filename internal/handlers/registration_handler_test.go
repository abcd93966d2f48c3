package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"registration-system/internal/services"
	"registration-system/internal/status"
	"registration-system/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	createErr   error
	createCalls int
}

func (s *stubStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if id != "evt1" {
		return nil, status.ErrEventNotFound
	}
	return &models.Event{
		ID:         "evt1",
		Name:       "Spring Gala",
		Fee:        decimal.NewFromInt(25),
		Currency:   "USD",
		AccessType: models.AccessAllWelcome,
	}, nil
}

func (s *stubStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	return nil, status.ErrRegistrationNotFound
}

func (s *stubStore) CreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	copied := *reg
	copied.ID = "reg-1"
	copied.CreatedAt = time.Now()
	return &copied, nil
}

func (s *stubStore) UpdateRegistrationStatus(ctx context.Context, id string, st models.PaymentStatus, actor string) (*models.Registration, error) {
	return nil, status.ErrRegistrationNotFound
}

func (s *stubStore) ListRegistrations(ctx context.Context, eventID string) ([]*models.Registration, error) {
	return nil, nil
}

type stubEvidenceStore struct{}

func (s *stubEvidenceStore) Upload(ctx context.Context, key, mimeType string, size int64, r io.Reader) (string, error) {
	return key, nil
}

func (s *stubEvidenceStore) SignURL(ctx context.Context, ref string) (string, error) {
	return "https://evidence.local/" + ref, nil
}

func newCreateFixture(store *stubStore) *RegistrationHandler {
	evidence := services.NewEvidenceService(&stubEvidenceStore{}, 5<<20)
	reg := services.NewRegistrationService(store, nil, "staff-channel", 5)
	return NewRegistrationHandler(nil, reg, evidence)
}

func multipartSubmission(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	for k, v := range map[string]string{
		"event_id":       "evt1",
		"name":           "Ada Lovelace",
		"phone":          "555-0100",
		"ticket_count":   "2",
		"payment_method": "transfer_instant",
	} {
		require.NoError(t, form.WriteField(k, v))
	}
	// multipart.Writer.CreateFormFile hardcodes Content-Type to
	// application/octet-stream, which EvidenceService.Validate rejects;
	// build the part by hand so the image part carries its real MIME type.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="evidence"; filename="slip.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	file, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = file.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())
	return body, form.FormDataContentType()
}

func requestEvent(body io.Reader, contentType string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	e := new(core.RequestEvent)
	rec := httptest.NewRecorder()
	e.Response = rec
	e.Request = httptest.NewRequest("POST", "/api/registrations", body)
	e.Request.Header.Set("Content-Type", contentType)
	return e, rec
}

func TestCreateMultipartTransfer(t *testing.T) {
	store := &stubStore{}
	handler := newCreateFixture(store)

	body, contentType := multipartSubmission(t)
	e, rec := requestEvent(body, contentType)

	require.NoError(t, handler.Create(e))
	assert.Equal(t, 200, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "reg-1", resp["registration_id"])
	assert.Equal(t, "pending", resp["payment_status"])
}

func TestCreateMultipartStoreFailureReturnsProofRef(t *testing.T) {
	store := &stubStore{createErr: assert.AnError}
	handler := newCreateFixture(store)

	body, contentType := multipartSubmission(t)
	e, rec := requestEvent(body, contentType)

	// The upload succeeded before the record write failed, so the client
	// gets the reference back and can retry over the JSON route without
	// re-uploading.
	require.NoError(t, handler.Create(e))
	assert.Equal(t, 400, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	ref, _ := resp["proof_ref"].(string)
	assert.True(t, strings.HasPrefix(ref, "proofs/"))
	assert.True(t, strings.HasSuffix(ref, "/slip.jpg"))
	assert.NotEmpty(t, resp["error"])
}

func TestCreateJSONRetryWithProofRef(t *testing.T) {
	store := &stubStore{}
	handler := newCreateFixture(store)

	payload := `{
		"event_id": "evt1",
		"name": "Ada Lovelace",
		"phone": "555-0100",
		"ticket_count": 2,
		"payment_method": "transfer_instant",
		"proof_ref": "proofs/ABCDEF/slip.jpg"
	}`
	e, rec := requestEvent(strings.NewReader(payload), "application/json")

	require.NoError(t, handler.Create(e))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, 1, store.createCalls)
}
