package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/campaign-mailer/internal/api/middleware"
	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/service"
)

// EventHandler accepts domain events from the platform's other services.
type EventHandler struct {
	svc    *service.EmailService
	logger *zap.Logger
}

func NewEventHandler(svc *service.EmailService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Publish handles POST /api/v1/events
//
// @Summary  Publish a domain event for email fan-out
// @Tags     events
// @Accept   json
// @Produce  json
// @Param    body  body      domain.PublishEventRequest  true  "Event name and payload"
// @Success  202   {object}  map[string]string
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/events [post]
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req domain.PublishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.PublishEvent(r.Context(), req); err != nil {
		h.logger.Warn("publish event failed",
			zap.String("event", string(req.Event)),
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "event": string(req.Event)})
}
