// Package orchestrator turns domain events into email jobs using the rule
// table and the recipient resolver.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/eventbus"
	"github.com/notifyhub/campaign-mailer/internal/queue"
	"github.com/notifyhub/campaign-mailer/internal/resolver"
	"github.com/notifyhub/campaign-mailer/internal/rules"
)

// Skip reasons reported to Hooks.OnSkipped.
const (
	SkipNoRecipient  = "no_recipient"
	SkipTemplate     = "template_error"
	SkipEnqueueError = "enqueue_error"
)

// Subscriber is the registration side of the event bus.
type Subscriber interface {
	Subscribe(name domain.EventName, h eventbus.Handler)
}

// Enqueuer is the producer side of the job queue.
type Enqueuer interface {
	Add(ctx context.Context, name string, data domain.EmailJobData, opts ...queue.AddOption) (*domain.Job, error)
}

// Hooks carries metric callbacks. Nil hooks are no-ops.
type Hooks struct {
	OnEvent    func(name domain.EventName)
	OnEnqueued func(name domain.EventName, role domain.Role)
	OnSkipped  func(name domain.EventName, reason string)
}

type Orchestrator struct {
	table    rules.Table
	resolver *resolver.Resolver
	queue    Enqueuer
	hooks    Hooks
	logger   *zap.Logger
}

// New builds the orchestrator and subscribes it to every event in table.
func New(bus Subscriber, table rules.Table, res *resolver.Resolver, q Enqueuer, logger *zap.Logger, hooks Hooks) *Orchestrator {
	o := &Orchestrator{table: table, resolver: res, queue: q, hooks: hooks, logger: logger}
	for _, name := range table.Events() {
		bus.Subscribe(name, o.Handle)
	}
	logger.Info("orchestrator subscribed", zap.Int("events", len(table)))
	return o
}

// Handle applies every rule bound to evt.Name. Rules are isolated from each
// other: a failure in one is logged and the rest still run. It never
// returns an error.
func (o *Orchestrator) Handle(ctx context.Context, evt domain.Event) error {
	if o.hooks.OnEvent != nil {
		o.hooks.OnEvent(evt.Name)
	}
	for i, r := range o.table[evt.Name] {
		if reason, err := o.apply(ctx, evt, r); err != nil {
			o.skip(evt.Name, reason)
			o.logger.Error("email rule failed",
				zap.String("event", string(evt.Name)),
				zap.String("role", string(r.Role)),
				zap.Int("rule", i),
				zap.Error(err),
			)
		} else if reason != "" {
			o.skip(evt.Name, reason)
		}
	}
	return nil
}

// apply runs one rule. A non-empty reason with a nil error is a tolerated
// skip; a non-nil error is a rule failure.
func (o *Orchestrator) apply(ctx context.Context, evt domain.Event, r rules.Rule) (reason string, err error) {
	defer func() {
		if p := recover(); p != nil {
			reason, err = SkipTemplate, fmt.Errorf("rule panicked: %v", p)
		}
	}()

	to, ok := o.resolver.Resolve(r.Role, evt.Payload)
	if !ok {
		o.logger.Warn("no recipient for rule, skipping",
			zap.String("event", string(evt.Name)),
			zap.String("role", string(r.Role)),
		)
		return SkipNoRecipient, nil
	}

	if r.Template == nil {
		return SkipTemplate, fmt.Errorf("rule has no template")
	}
	content, err := r.Template(evt.Payload)
	if err != nil {
		return SkipTemplate, fmt.Errorf("render: %w", err)
	}

	data := domain.EmailJobData{
		To:             to,
		Subject:        content.Subject,
		HTML:           content.Body,
		IdempotencyKey: eventKey(evt, r.Role),
		EventName:      evt.Name,
		Role:           r.Role,
	}
	job, err := o.queue.Add(ctx, domain.JobNameSendEmail, data, queue.WithPriority(r.Priority))
	if err != nil {
		return SkipEnqueueError, fmt.Errorf("enqueue: %w", err)
	}

	if o.hooks.OnEnqueued != nil {
		o.hooks.OnEnqueued(evt.Name, r.Role)
	}
	o.logger.Debug("email job enqueued",
		zap.String("event", string(evt.Name)),
		zap.String("role", string(r.Role)),
		zap.String("job_id", job.ID),
	)
	return "", nil
}

func (o *Orchestrator) skip(name domain.EventName, reason string) {
	if o.hooks.OnSkipped != nil {
		o.hooks.OnSkipped(name, reason)
	}
}

// eventKey derives a per-recipient idempotency key when the payload carries
// an eventId, so a re-published event never sends twice.
func eventKey(evt domain.Event, role domain.Role) string {
	v, ok := evt.Payload["eventId"]
	if !ok || v == nil {
		return ""
	}
	var id string
	switch t := v.(type) {
	case float64:
		id = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		id = strings.TrimSpace(fmt.Sprint(t))
	}
	if id == "" {
		return ""
	}
	return fmt.Sprintf("email:%s:%s:%s", evt.Name, id, role)
}
