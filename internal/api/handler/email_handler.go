package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/notifyhub/campaign-mailer/internal/api/middleware"
	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/service"
)

// EmailHandler enqueues raw email jobs and reports their state.
type EmailHandler struct {
	svc    *service.EmailService
	logger *zap.Logger
}

func NewEmailHandler(svc *service.EmailService, logger *zap.Logger) *EmailHandler {
	return &EmailHandler{svc: svc, logger: logger}
}

// Send handles POST /api/v1/emails
//
// @Summary  Enqueue a single email job
// @Tags     emails
// @Accept   json
// @Produce  json
// @Param    body  body      domain.SendEmailRequest  true  "Email payload"
// @Success  202   {object}  domain.Job
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/emails [post]
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := h.svc.SendEmail(r.Context(), req)
	if err != nil {
		h.logger.Warn("enqueue email failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /api/v1/jobs/{id}
//
// @Summary  Get an email job by ID
// @Tags     emails
// @Produce  json
// @Param    id   path      string  true  "Job UUID"
// @Success  200  {object}  domain.Job
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/jobs/{id} [get]
func (h *EmailHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
