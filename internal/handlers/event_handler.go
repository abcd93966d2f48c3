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

type EventHandler struct {
	app             *pocketbase.PocketBase
	capacityService *services.CapacityService
}

func NewEventHandler(app *pocketbase.PocketBase, capacityService *services.CapacityService) *EventHandler {
	return &EventHandler{
		app:             app,
		capacityService: capacityService,
	}
}

// Capacity - Confirmed tickets against capacity, for display only.
func (h *EventHandler) Capacity(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	report, err := h.capacityService.Report(e.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, status.ErrEventNotFound) {
			return apis.NewNotFoundError("Event not found", err)
		}
		return apis.NewBadRequestError("Failed to compute capacity", err)
	}

	return e.JSON(http.StatusOK, report)
}
