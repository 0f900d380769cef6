package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/metrics"
	"github.com/notifyhub/campaign-mailer/internal/provider"
)

var _ provider.StatsRecorder = (*metrics.Metrics)(nil)

func TestMetrics_ProviderCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.RecordSuccess("ses", 20*time.Millisecond)
	m.RecordFailure("ses")
	m.RecordFailure("ses")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("ses", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderAttempts.WithLabelValues("ses", "failure")))
}

func TestMetrics_QueueHooksAndDepth(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hooks := m.QueueHooks()

	hooks.OnWaiting(&domain.Job{})
	hooks.OnActive(&domain.Job{})
	hooks.OnRetrying(&domain.Job{}, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobTransitions.WithLabelValues("waiting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobTransitions.WithLabelValues("retrying")))

	m.SetQueueDepth(domain.JobCounts{domain.JobWaiting: 4, domain.JobFailed: 1})
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("waiting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("active")))
}

func TestMetrics_RelayHook(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hook := m.RelayHook()

	hook(true)
	hook(false)
	hook(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RelayMessages.WithLabelValues("dropped")))
}
