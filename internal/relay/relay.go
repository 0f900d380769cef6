package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// LocalBus is the part of the event bus the relay re-emits into.
type LocalBus interface {
	Publish(ctx context.Context, name domain.EventName, payload map[string]any)
}

// envelope is the wire format on the broadcast channel.
type envelope struct {
	Event domain.EventName `json:"event"`
	Data  json.RawMessage  `json:"data,omitempty"`
}

// Publisher writes events onto the broadcast channel so that a consuming
// process can re-emit them on its own bus.
type Publisher struct {
	broker  Broker
	channel string
}

func NewPublisher(broker Broker, channel string) *Publisher {
	return &Publisher{broker: broker, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, name domain.EventName, payload map[string]any) error {
	if name == "" {
		return domain.ErrInvalidEvent
	}
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg, err := json.Marshal(envelope{Event: name, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.broker.Publish(ctx, p.channel, msg)
}

// Relay forwards messages from the broadcast channel into the local bus.
type Relay struct {
	broker  Broker
	channel string
	bus     LocalBus
	logger  *zap.Logger

	// onMessage observes every message; valid reports whether it was forwarded.
	onMessage func(valid bool)
}

func New(broker Broker, channel string, bus LocalBus, logger *zap.Logger, onMessage func(valid bool)) *Relay {
	if onMessage == nil {
		onMessage = func(bool) {}
	}
	return &Relay{broker: broker, channel: channel, bus: bus, logger: logger, onMessage: onMessage}
}

// Run subscribes to the channel and blocks until ctx is cancelled (nil
// error) or the subscription is closed by the broker.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.broker.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("subscribe relay channel: %w", err)
	}
	defer sub.Close() //nolint:errcheck

	r.logger.Info("event relay started", zap.String("channel", r.channel))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopping")
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg []byte) {
	evt, err := decode(msg)
	if err != nil {
		r.onMessage(false)
		r.logger.Warn("dropping malformed relay message",
			zap.Error(err),
			zap.ByteString("message", truncate(msg, 256)),
		)
		return
	}
	r.onMessage(true)
	r.bus.Publish(ctx, evt.Name, evt.Payload)
}

func decode(msg []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return domain.Event{}, fmt.Errorf("invalid json: %w", err)
	}
	if env.Event == "" {
		return domain.Event{}, errors.New("missing event name")
	}

	payload := map[string]any{}
	if len(env.Data) > 0 && !bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("data is not an object: %w", err)
		}
	}
	return domain.Event{Name: env.Event, Payload: payload}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
