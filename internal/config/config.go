package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	WorkerHTTPPort  string        `env:"WORKER_HTTP_PORT" envDefault:"9090"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"5"`

	// Redis backs the idempotency markers and the cross-process event channel.
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Queue
	QueueName         string        `env:"EMAIL_QUEUE_NAME" envDefault:"email-queue"`
	JobAttempts       int           `env:"EMAIL_JOB_ATTEMPTS" envDefault:"3"`
	JobBackoff        time.Duration `env:"EMAIL_JOB_BACKOFF" envDefault:"1s"`
	CompletedMaxAge   time.Duration `env:"EMAIL_COMPLETED_MAX_AGE" envDefault:"24h"`
	CompletedMaxCount int           `env:"EMAIL_COMPLETED_MAX_COUNT" envDefault:"1000"`
	FailedMaxAge      time.Duration `env:"EMAIL_FAILED_MAX_AGE" envDefault:"168h"`
	FailedMaxCount    int           `env:"EMAIL_FAILED_MAX_COUNT" envDefault:"5000"`
	LockTimeout       time.Duration `env:"EMAIL_JOB_LOCK_TIMEOUT" envDefault:"2m"`
	PollInterval      time.Duration `env:"EMAIL_QUEUE_POLL_INTERVAL" envDefault:"1s"`
	JanitorInterval   time.Duration `env:"EMAIL_JANITOR_INTERVAL" envDefault:"1m"`

	// Worker
	WorkerConcurrency int `env:"EMAIL_WORKER_CONCURRENCY" envDefault:"5"`

	// Run the consumer pipeline inside the API server process.
	InlineWorkers bool   `env:"EMAIL_INLINE_WORKERS" envDefault:"false"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// Event relay
	RelayChannel string `env:"EVENT_RELAY_CHANNEL" envDefault:"crowdfund:events"`

	// Dispatch
	ProviderOrder   []string      `env:"EMAIL_PROVIDER_ORDER" envSeparator:"," envDefault:"ses,postmark,smtp"`
	ProviderTimeout time.Duration `env:"EMAIL_PROVIDER_TIMEOUT" envDefault:"5s"`
	IdempotencyTTL  time.Duration `env:"EMAIL_IDEMPOTENCY_TTL" envDefault:"24h"`
	// Maximum sends per second per provider; 0 disables throttling.
	ProviderRateLimit int `env:"PROVIDER_RATE_LIMIT" envDefault:"50"`

	// Addresses
	AdminEmail   string `env:"ADMIN_EMAIL" envDefault:"admin@example.org"`
	SenderEmail  string `env:"SENDER_EMAIL" envDefault:"no-reply@example.org"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"support@example.org"`

	SES      SESConfig      `envPrefix:"SES_"`
	Postmark PostmarkConfig `envPrefix:"POSTMARK_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
}

// SESConfig configures the managed relay provider. Empty keys fall back to
// the default AWS credential chain.
type SESConfig struct {
	Region           string `env:"REGION" envDefault:"eu-west-1"`
	AccessKeyID      string `env:"ACCESS_KEY_ID"`
	SecretAccessKey  string `env:"SECRET_ACCESS_KEY"`
	ConfigurationSet string `env:"CONFIGURATION_SET"`
}

type PostmarkConfig struct {
	ServerToken  string `env:"SERVER_TOKEN"`
	AccountToken string `env:"ACCOUNT_TOKEN"`
	Stream       string `env:"MESSAGE_STREAM" envDefault:"outbound"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	TLSMode  string `env:"TLS_MODE" envDefault:"starttls"` // starttls, tls, or plain
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("EMAIL_WORKER_CONCURRENCY must be positive, got %d", cfg.WorkerConcurrency)
	}
	if cfg.JobAttempts < 1 {
		return nil, fmt.Errorf("EMAIL_JOB_ATTEMPTS must be positive, got %d", cfg.JobAttempts)
	}
	if len(cfg.ProviderOrder) == 0 {
		return nil, fmt.Errorf("EMAIL_PROVIDER_ORDER must list at least one provider")
	}
	return &cfg, nil
}
