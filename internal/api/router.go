package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/api/handler"
	apimw "github.com/notifyhub/campaign-mailer/internal/api/middleware"
	"github.com/notifyhub/campaign-mailer/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.EmailService,
	checks map[string]handler.Pinger,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestSize(1 << 20))
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	eh := handler.NewEventHandler(svc, logger)
	jh := handler.NewEmailHandler(svc, logger)
	mh := handler.NewMetricsHandler(svc, logger)
	hh := handler.NewHealthHandler(checks)

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Get("/ready", hh.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", eh.Publish)
		r.Post("/emails", jh.Send)
		r.Get("/jobs/{id}", jh.GetJob)
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}

// NewWorkerRouter serves probes and the Prometheus scrape endpoint for the
// worker process, which has no public API.
func NewWorkerRouter(checks map[string]handler.Pinger, reg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	hh := handler.NewHealthHandler(checks)
	r.Get("/health", hh.Health)
	r.Get("/ready", hh.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}
