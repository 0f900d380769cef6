package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/api"
	"github.com/notifyhub/campaign-mailer/internal/api/handler"
	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/provider"
	"github.com/notifyhub/campaign-mailer/internal/queue"
	"github.com/notifyhub/campaign-mailer/internal/relay"
	"github.com/notifyhub/campaign-mailer/internal/repository"
	"github.com/notifyhub/campaign-mailer/internal/service"
)

func newServer(t *testing.T, checks map[string]handler.Pinger) *httptest.Server {
	t.Helper()
	q := queue.New(repository.NewMemoryJobRepository(), queue.DefaultConfig("email-queue"), zap.NewNop(), queue.Hooks{})
	registry := provider.NewRegistry(nil, nil, zap.NewNop())
	svc := service.NewEmailService(relay.NewPublisher(relay.NewMemoryBroker(1), "events"), q, registry, zap.NewNop())

	srv := httptest.NewServer(api.NewRouter(svc, checks, prometheus.NewRegistry(), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func TestRouter_SendEmailThenGetJob(t *testing.T) {
	srv := newServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/emails", map[string]any{
		"to":       "donor@example.org",
		"subject":  "Thanks",
		"html":     "<p>Thanks</p>",
		"priority": "high",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	var job domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, domain.PriorityHigh, job.Priority)

	got, err := http.Get(srv.URL + "/api/v1/jobs/" + job.ID)
	require.NoError(t, err)
	defer got.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv := newServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/emails", map[string]any{"to": "nope", "subject": "s", "html": "h"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/events", map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	for _, id := range []string{"not-a-uuid", "3f1c2a0e-8d4b-4c7e-9a51-2b6f0d9e7c13"} {
		missing, err := http.Get(srv.URL + "/api/v1/jobs/" + id)
		require.NoError(t, err)
		missing.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusNotFound, missing.StatusCode, id)
	}

	bad, err := http.Post(srv.URL+"/api/v1/emails", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer bad.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRouter_PublishEventAccepted(t *testing.T) {
	srv := newServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/events", map[string]any{
		"event": "USER_WELCOME",
		"data":  map[string]any{"email": "s@example.org"},
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestRouter_MetricsSnapshot(t *testing.T) {
	srv := newServer(t, nil)
	postJSON(t, srv.URL+"/api/v1/emails", map[string]any{"to": "a@example.org", "subject": "s", "html": "h"})

	resp, err := http.Get(srv.URL + "/api/v1/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var snap struct {
		Queue map[string]int `json:"queue"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 1, snap.Queue["waiting"])
}

func TestRouter_Readiness(t *testing.T) {
	srv := newServer(t, map[string]handler.Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["postgres"])
	assert.Equal(t, "connection refused", body["redis"])
}
