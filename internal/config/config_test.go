package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyhub/campaign-mailer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mailer")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.WorkerConcurrency)
	assert.Equal(t, 3, cfg.JobAttempts)
	assert.Equal(t, time.Second, cfg.JobBackoff)
	assert.Equal(t, 24*time.Hour, cfg.CompletedMaxAge)
	assert.Equal(t, 7*24*time.Hour, cfg.FailedMaxAge)
	assert.Greater(t, cfg.FailedMaxCount, cfg.CompletedMaxCount)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"ses", "postmark", "smtp"}, cfg.ProviderOrder)
	assert.Equal(t, "starttls", cfg.SMTP.TLSMode)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mailer")
	t.Setenv("EMAIL_WORKER_CONCURRENCY", "12")
	t.Setenv("EMAIL_PROVIDER_ORDER", "smtp,ses")
	t.Setenv("SMTP_HOST", "mail.example.org")
	t.Setenv("EMAIL_PROVIDER_TIMEOUT", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.WorkerConcurrency)
	assert.Equal(t, []string{"smtp", "ses"}, cfg.ProviderOrder)
	assert.Equal(t, "mail.example.org", cfg.SMTP.Host)
	assert.Equal(t, 250*time.Millisecond, cfg.ProviderTimeout)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mailer")
	t.Setenv("EMAIL_WORKER_CONCURRENCY", "0")

	_, err := config.Load()
	require.Error(t, err)
}
