package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notifyhub/campaign-mailer/internal/dispatch"
	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/queue"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsReceived   *prometheus.CounterVec
	RelayMessages    *prometheus.CounterVec
	JobsEnqueued     *prometheus.CounterVec
	RulesSkipped     *prometheus.CounterVec
	JobTransitions   *prometheus.CounterVec
	JobsProcessed    *prometheus.CounterVec
	JobLatency       prometheus.Histogram
	QueueDepth       *prometheus.GaugeVec
	ProviderAttempts *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	IdempotentSkips  prometheus.Counter
	DispatchExhaust  prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_events_received_total",
			Help: "Domain events handled by the orchestrator.",
		}, []string{"event"}),

		RelayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_relay_messages_total",
			Help: "Messages read from the cross-process event channel.",
		}, []string{"result"}),

		JobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_jobs_enqueued_total",
			Help: "Email jobs derived from domain events.",
		}, []string{"event", "role"}),

		RulesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_rules_skipped_total",
			Help: "Rules that produced no job.",
		}, []string{"event", "reason"}),

		JobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_job_transitions_total",
			Help: "Queue lifecycle transitions.",
		}, []string{"state"}),

		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_jobs_processed_total",
			Help: "Jobs processed by workers, by outcome.",
		}, []string{"outcome"}),

		JobLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailer_job_processing_seconds",
			Help:    "Processing latency from reservation to dispatch result.",
			Buckets: prometheus.DefBuckets,
		}),

		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mailer_queue_depth",
			Help: "Current number of jobs per state.",
		}, []string{"state"}),

		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_provider_attempts_total",
			Help: "Provider send attempts by result.",
		}, []string{"provider", "result"}),

		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailer_provider_send_seconds",
			Help:    "Latency of successful provider sends.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),

		IdempotentSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailer_idempotent_skips_total",
			Help: "Jobs skipped because their delivery marker was already set.",
		}),

		DispatchExhaust: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailer_dispatch_exhausted_total",
			Help: "Dispatches in which every provider failed.",
		}),
	}

	reg.MustRegister(
		m.EventsReceived,
		m.RelayMessages,
		m.JobsEnqueued,
		m.RulesSkipped,
		m.JobTransitions,
		m.JobsProcessed,
		m.JobLatency,
		m.QueueDepth,
		m.ProviderAttempts,
		m.ProviderLatency,
		m.IdempotentSkips,
		m.DispatchExhaust,
	)

	return m
}

// RecordSuccess implements provider.StatsRecorder.
func (m *Metrics) RecordSuccess(provider string, latency time.Duration) {
	m.ProviderAttempts.WithLabelValues(provider, "success").Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordFailure implements provider.StatsRecorder.
func (m *Metrics) RecordFailure(provider string) {
	m.ProviderAttempts.WithLabelValues(provider, "failure").Inc()
}

// QueueHooks returns lifecycle callbacks for queue.New.
func (m *Metrics) QueueHooks() queue.Hooks {
	count := func(state string) func(*domain.Job) {
		c := m.JobTransitions.WithLabelValues(state)
		return func(*domain.Job) { c.Inc() }
	}
	return queue.Hooks{
		OnWaiting:   count("waiting"),
		OnActive:    count("active"),
		OnCompleted: count("completed"),
		OnRetrying: func(*domain.Job, time.Duration, error) {
			m.JobTransitions.WithLabelValues("retrying").Inc()
		},
		OnFailed: func(*domain.Job, error) {
			m.JobTransitions.WithLabelValues("failed").Inc()
		},
	}
}

// WorkerHook returns the callback expected by worker.MetricHooks.
func (m *Metrics) WorkerHook() func(outcome string, latency time.Duration) {
	return func(outcome string, latency time.Duration) {
		m.JobsProcessed.WithLabelValues(outcome).Inc()
		m.JobLatency.Observe(latency.Seconds())
	}
}

// RelayHook returns the per-message callback for relay.New.
func (m *Metrics) RelayHook() func(valid bool) {
	return func(valid bool) {
		result := "forwarded"
		if !valid {
			result = "dropped"
		}
		m.RelayMessages.WithLabelValues(result).Inc()
	}
}

// SetQueueDepth publishes a per-state snapshot taken by the janitor.
func (m *Metrics) SetQueueDepth(counts domain.JobCounts) {
	for _, s := range domain.JobStates {
		m.QueueDepth.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// OnEvent, OnEnqueued and OnSkipped match orchestrator.Hooks.
func (m *Metrics) OnEvent(name domain.EventName) {
	m.EventsReceived.WithLabelValues(string(name)).Inc()
}

func (m *Metrics) OnEnqueued(name domain.EventName, role domain.Role) {
	m.JobsEnqueued.WithLabelValues(string(name), string(role)).Inc()
}

func (m *Metrics) OnSkipped(name domain.EventName, reason string) {
	m.RulesSkipped.WithLabelValues(string(name), reason).Inc()
}

// DispatchHooks returns the dispatcher callbacks.
func (m *Metrics) DispatchHooks() dispatch.Hooks {
	return dispatch.Hooks{
		OnSkipped:   m.IdempotentSkips.Inc,
		OnExhausted: m.DispatchExhaust.Inc,
	}
}
