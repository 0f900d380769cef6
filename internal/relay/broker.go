package relay

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriptionClosed is returned by Relay.Run when the broker closes the
// subscription underneath it.
var ErrSubscriptionClosed = errors.New("relay subscription closed")

// Broker is the external broadcast channel shared by the publishing and the
// consuming process. Every subscriber of a channel receives every message.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription delivers raw messages until Close is called.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// MemoryBroker is an in-process Broker used in tests and single-process runs.
// Slow subscribers lose messages once their buffer is full instead of
// blocking the publisher.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySubscription]struct{}
	buffer int
}

func NewMemoryBroker(buffer int) *MemoryBroker {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{}), buffer: buffer}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channel string) (Subscription, error) {
	s := &memorySubscription{broker: b, channel: channel, ch: make(chan []byte, b.buffer)}
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	ch      chan []byte
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs[s.channel], s)
		close(s.ch)
		s.broker.mu.Unlock()
	})
	return nil
}

var _ Broker = (*MemoryBroker)(nil)
