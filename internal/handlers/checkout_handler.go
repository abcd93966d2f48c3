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

type CheckoutHandler struct {
	app             *pocketbase.PocketBase
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(app *pocketbase.PocketBase, checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		app:             app,
		checkoutService: checkoutService,
	}
}

// BeginSession - Phase 1 of the card path: create a hosted checkout session
// and persist the intent. The client follows the returned URL; no
// registration record exists yet.
func (h *CheckoutHandler) BeginSession(e *core.RequestEvent) error {
	var req services.BeginCheckoutRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	url, token, err := h.checkoutService.Begin(e.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Event not found", err)
		case errors.Is(err, status.ErrMissingContact),
			errors.Is(err, status.ErrTicketCount),
			errors.Is(err, status.ErrFreeEventCheckout):
			return apis.NewBadRequestError(err.Error(), err)
		default:
			// Gateway failures are retryable; nothing was persisted.
			return apis.NewBadRequestError("Failed to create checkout session", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"checkout_url": url,
		"intent":       token,
	})
}

// Return - Phase 2: the gateway redirects back here with a terminal
// outcome. Success creates the registration; cancel discards the intent.
func (h *CheckoutHandler) Return(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	token := query.Get("intent")
	secret := query.Get("secret")
	outcome := services.CheckoutOutcome(query.Get("status"))

	if token == "" || (outcome != services.OutcomeSuccess && outcome != services.OutcomeCancel) {
		return apis.NewBadRequestError("Invalid checkout return", nil)
	}

	reg, err := h.checkoutService.Complete(e.Request.Context(), token, secret, outcome)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrIntentNotFound):
			return apis.NewNotFoundError("Checkout intent not found or expired", err)
		case errors.Is(err, status.ErrIntentSecret),
			errors.Is(err, status.ErrPaymentVerification):
			return apis.NewForbiddenError("Checkout verification failed", err)
		default:
			return apis.NewBadRequestError("Failed to complete checkout", err)
		}
	}

	if reg == nil {
		return e.JSON(http.StatusOK, map[string]any{"outcome": "cancelled"})
	}

	return e.JSON(http.StatusOK, map[string]any{
		"outcome":         "registered",
		"registration_id": reg.ID,
	})
}
