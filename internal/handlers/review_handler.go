package handlers

import (
	"errors"
	"net/http"

	"registration-system/internal/services"
	"registration-system/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ReviewHandler struct {
	app           *pocketbase.PocketBase
	reviewService *services.ReviewService
}

func NewReviewHandler(app *pocketbase.PocketBase, reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		app:           app,
		reviewService: reviewService,
	}
}

// ListPending - Cross-event "payments needing review" queue, optionally
// scoped to one event via ?event=.
func (h *ReviewHandler) ListPending(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.URL.Query().Get("event")

	views, err := h.reviewService.ListReviewables(e.Request.Context(), eventID)
	if err != nil {
		return apis.NewBadRequestError("Failed to list reviewable registrations", err)
	}

	return e.JSON(http.StatusOK, views)
}

// EvidenceURL - Exchange a proof reference for a short-lived viewable URL.
func (h *ReviewHandler) EvidenceURL(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ref := e.Request.URL.Query().Get("ref")
	if ref == "" {
		return apis.NewBadRequestError("Missing evidence reference", nil)
	}

	url, err := h.reviewService.ResolveEvidenceURL(e.Request.Context(), ref)
	if err != nil {
		return apis.NewBadRequestError("Failed to resolve evidence URL", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"url": url})
}

// Decide - Approve or reject one pending registration. The acting staff
// member is taken from the authenticated record, never from ambient state.
func (h *ReviewHandler) Decide(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		RegistrationID string `json:"registration_id"`
		Outcome        string `json:"outcome"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reg, err := h.reviewService.Decide(
		e.Request.Context(),
		req.RegistrationID,
		services.DecisionOutcome(req.Outcome),
		e.Auth.Id,
	)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrRegistrationNotFound):
			return apis.NewNotFoundError("Registration not found", err)
		case errors.Is(err, status.ErrUnknownOutcome),
			errors.Is(err, status.ErrAlreadyDecided):
			return apis.NewBadRequestError(err.Error(), err)
		default:
			return apis.NewBadRequestError("Failed to apply decision", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registration_id": reg.ID,
		"payment_status":  string(reg.PaymentStatus),
	})
}

// Reopen - Put a decided registration back into review.
func (h *ReviewHandler) Reopen(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		RegistrationID string `json:"registration_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reg, err := h.reviewService.Reopen(e.Request.Context(), req.RegistrationID, e.Auth.Id)
	if err != nil {
		if errors.Is(err, status.ErrRegistrationNotFound) {
			return apis.NewNotFoundError("Registration not found", err)
		}
		return apis.NewBadRequestError("Failed to reopen registration", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"registration_id": reg.ID,
		"payment_status":  string(reg.PaymentStatus),
	})
}
