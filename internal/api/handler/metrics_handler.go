package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/service"
)

// MetricsHandler serves a human-readable JSON snapshot of queue depth and
// provider counters. Raw Prometheus series are served at /metrics.
type MetricsHandler struct {
	svc    *service.EmailService
	logger *zap.Logger
}

func NewMetricsHandler(svc *service.EmailService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{svc: svc, logger: logger}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Queue depth per state and provider success/failure counts
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  service.Snapshot
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("metrics snapshot failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read queue state")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
