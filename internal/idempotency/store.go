// Package idempotency keeps set-once delivery markers with an expiry.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store records delivery markers. Acquire reports true only for the caller
// that set the marker; every later caller gets false until the marker
// expires or is released.
type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisStore keeps markers as Redis keys written with SET NX EX.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// MemoryStore is the in-process Store used in tests.
type MemoryStore struct {
	mu      sync.Mutex
	markers map[string]time.Time
	now     func() time.Time

	// AcquireErr, when set, is returned by every Acquire call.
	AcquireErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if s.AcquireErr != nil {
		return false, s.AcquireErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.markers[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.markers[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.markers, key)
	s.mu.Unlock()
	return nil
}

// Held reports whether key currently has a live marker.
func (s *MemoryStore) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.markers[key]
	return ok && s.now().Before(exp)
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
