package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"registration-system/internal/services"
	"registration-system/internal/status"
	"registration-system/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type RegistrationHandler struct {
	app                 *pocketbase.PocketBase
	registrationService *services.RegistrationService
	evidenceService     *services.EvidenceService
}

func NewRegistrationHandler(app *pocketbase.PocketBase, registrationService *services.RegistrationService, evidenceService *services.EvidenceService) *RegistrationHandler {
	return &RegistrationHandler{
		app:                 app,
		registrationService: registrationService,
		evidenceService:     evidenceService,
	}
}

// Create - Submit a registration (free, cash or bank transfer path).
// Bank transfers send multipart form data with the evidence image attached;
// the other paths send plain JSON.
func (h *RegistrationHandler) Create(e *core.RequestEvent) error {
	req, proofRef, err := h.parseSubmission(e)
	if err != nil {
		return err
	}
	if proofRef != "" {
		req.ProofRef = proofRef
	}

	reg, err := h.registrationService.Create(e.Request.Context(), req)
	if err != nil {
		if proofRef != "" {
			// The evidence is already stored; hand the reference back so
			// the client can retry over the JSON route with proof_ref set
			// instead of re-uploading the image.
			return e.JSON(http.StatusBadRequest, map[string]any{
				"error":     err.Error(),
				"proof_ref": proofRef,
			})
		}
		return submissionError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registration_id": reg.ID,
		"payment_status":  string(reg.PaymentStatus),
	})
}

func (h *RegistrationHandler) parseSubmission(e *core.RequestEvent) (*services.CreateRegistrationRequest, string, error) {
	contentType := e.Request.Header.Get("Content-Type")
	if len(contentType) < 19 || contentType[:19] != "multipart/form-data" {
		var req services.CreateRegistrationRequest
		if err := e.BindBody(&req); err != nil {
			return nil, "", apis.NewBadRequestError("Invalid request", err)
		}
		return &req, "", nil
	}

	if err := e.Request.ParseMultipartForm(8 << 20); err != nil {
		return nil, "", apis.NewBadRequestError("Invalid form data", err)
	}

	ticketCount, _ := strconv.Atoi(e.Request.FormValue("ticket_count"))
	req := &services.CreateRegistrationRequest{
		EventID:     e.Request.FormValue("event_id"),
		Name:        e.Request.FormValue("name"),
		Phone:       e.Request.FormValue("phone"),
		Email:       e.Request.FormValue("email"),
		Note:        e.Request.FormValue("note"),
		TicketCount: ticketCount,
		Method:      models.PaymentMethod(e.Request.FormValue("payment_method")),
	}

	file, header, err := e.Request.FormFile("evidence")
	if err != nil {
		// No file attached; the service decides whether one was required.
		return req, "", nil
	}
	defer file.Close()

	ref, err := h.evidenceService.Upload(
		e.Request.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		return nil, "", submissionError(err)
	}

	return req, ref, nil
}

// ListByEvent - Per-event registration list with computed buckets, for the
// public attendance count and the staff event page.
func (h *RegistrationHandler) ListByEvent(reviewService *services.ReviewService) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		eventID := e.Request.PathValue("eventId")

		views, err := reviewService.ListByEvent(e.Request.Context(), eventID)
		if err != nil {
			return apis.NewBadRequestError("Failed to list registrations", err)
		}

		return e.JSON(http.StatusOK, views)
	}
}

// submissionError maps validation sentinels to 400s and keeps everything
// else a 400 with the original error attached, matching the store's
// non-optimistic retry contract.
func submissionError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found", err)
	case errors.Is(err, status.ErrMissingContact),
		errors.Is(err, status.ErrTicketCount),
		errors.Is(err, status.ErrMethodRequired),
		errors.Is(err, status.ErrInvalidMethod),
		errors.Is(err, status.ErrCardRequiresCheckout),
		errors.Is(err, status.ErrProofRequired),
		errors.Is(err, status.ErrEvidenceTooLarge),
		errors.Is(err, status.ErrEvidenceNotImage):
		return apis.NewBadRequestError(err.Error(), err)
	default:
		return apis.NewBadRequestError("Failed to create registration", err)
	}
}
