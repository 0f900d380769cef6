package eventbus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// Handler reacts to one event. A returned error is logged by the bus and
// never reaches the publisher.
type Handler func(ctx context.Context, evt domain.Event) error

// Bus is the process-local publish/subscribe registry.
//
// Publish runs every handler registered for the event name in subscription
// order. Each invocation is supervised: errors and panics are captured and
// logged per handler, so one bad subscriber never breaks its siblings.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventName][]Handler
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[domain.EventName][]Handler),
		logger:   logger,
	}
}

// Subscribe registers h for name. Names outside the known vocabulary are
// accepted with a warning.
func (b *Bus) Subscribe(name domain.EventName, h Handler) {
	if h == nil {
		return
	}
	if !name.IsKnown() {
		b.logger.Warn("subscribing to unknown event", zap.String("event", string(name)))
	}

	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], h)
	b.mu.Unlock()
}

// Publish delivers the event to every current subscriber of name and returns
// once all of them have finished.
func (b *Bus) Publish(ctx context.Context, name domain.EventName, payload map[string]any) {
	if !name.IsKnown() {
		b.logger.Warn("publishing unknown event", zap.String("event", string(name)))
	}
	if payload == nil {
		payload = map[string]any{}
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no subscribers for event", zap.String("event", string(name)))
		return
	}

	evt := domain.Event{Name: name, Payload: payload}
	for i, h := range handlers {
		if err := b.invoke(ctx, h, evt); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event", string(name)),
				zap.Int("handler", i),
				zap.Error(err),
			)
		}
	}
}

// SubscribersCount returns the number of handlers registered for name.
func (b *Bus) SubscribersCount(name domain.EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

func (b *Bus) invoke(ctx context.Context, h Handler, evt domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, evt)
}
