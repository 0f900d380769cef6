package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/provider"
	"github.com/notifyhub/campaign-mailer/internal/queue"
)

// EventPublisher hands a domain event to the broadcast channel (or directly
// to an in-process bus in single-binary deployments).
type EventPublisher interface {
	Publish(ctx context.Context, name domain.EventName, payload map[string]any) error
}

// JobQueue is the subset of the queue the HTTP surface needs.
type JobQueue interface {
	Add(ctx context.Context, name string, data domain.EmailJobData, opts ...queue.AddOption) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	Counts(ctx context.Context) (domain.JobCounts, error)
}

// ProviderStats exposes per-provider success and failure counters.
type ProviderStats interface {
	Stats() map[provider.Kind]provider.Stats
}

// Snapshot is the JSON body of the operational metrics endpoint.
type Snapshot struct {
	Queue     domain.JobCounts                `json:"queue"`
	Providers map[provider.Kind]provider.Stats `json:"providers"`
}

// EmailService is the producer-side facade used by the HTTP handlers.
// Workers never go through it; they consume the queue directly.
type EmailService struct {
	events    EventPublisher
	q         JobQueue
	providers ProviderStats
	logger    *zap.Logger
}

func NewEmailService(events EventPublisher, q JobQueue, providers ProviderStats, logger *zap.Logger) *EmailService {
	return &EmailService{events: events, q: q, providers: providers, logger: logger}
}

// PublishEvent validates and forwards a domain event. Names outside the
// vocabulary are still published; the orchestrator has no rules for them
// and the bus logs a warning.
func (s *EmailService) PublishEvent(ctx context.Context, req domain.PublishEventRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !req.Event.IsKnown() {
		s.logger.Warn("publishing event outside the vocabulary", zap.String("event", string(req.Event)))
	}
	if err := s.events.Publish(ctx, req.Event, req.Data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// SendEmail enqueues a raw sendEmail job, bypassing the rule table.
func (s *EmailService) SendEmail(ctx context.Context, req domain.SendEmailRequest) (*domain.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prio, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	opts := []queue.AddOption{queue.WithPriority(prio)}
	if req.Delay != "" {
		d, _ := time.ParseDuration(req.Delay) // checked by Validate
		opts = append(opts, queue.WithDelay(d))
	}

	job, err := s.q.Add(ctx, domain.JobNameSendEmail, req.Data(), opts...)
	if err != nil {
		return nil, fmt.Errorf("enqueue email: %w", err)
	}
	s.logger.Info("email job accepted",
		zap.String("job_id", job.ID),
		zap.String("priority", prio.String()),
	)
	return job, nil
}

// GetJob returns ErrNotFound for ids that are not UUIDs; the jobs table
// keys on a UUID column and would reject them with a cast error.
func (s *EmailService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.q.Get(ctx, id)
}

// Snapshot reports queue depth per state and provider counters.
func (s *EmailService) Snapshot(ctx context.Context) (Snapshot, error) {
	counts, err := s.q.Counts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("queue counts: %w", err)
	}
	snap := Snapshot{Queue: counts, Providers: map[provider.Kind]provider.Stats{}}
	if s.providers != nil {
		snap.Providers = s.providers.Stats()
	}
	return snap, nil
}
