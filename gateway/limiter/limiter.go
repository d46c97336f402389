// Package limiter implements the fixed-window request limit applied per
// authenticated agent. Counters live in a shared cache so every edge replica
// enforces the same budget; when the cache is unreachable the limiter fails
// open and records the outage instead of refusing traffic.
package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLimit is the number of requests allowed per agent per window.
	DefaultLimit = 100
	// DefaultWindow is the fixed window length.
	DefaultWindow = 60 * time.Second
)

// CounterStore increments a windowed counter and returns the new value. The
// TTL is applied only when the increment creates the key.
type CounterStore interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisStore backs the limiter with a shared Redis instance.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Incr atomically increments key and sets its expiry on first touch.
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

// MemoryStore is a process-local CounterStore for development and tests. It
// does not coordinate across replicas.
type MemoryStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	nowFn   func() time.Time
}

// NewMemoryStore builds an in-process store. nowFn may be nil.
func NewMemoryStore(nowFn func() time.Time) *MemoryStore {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &MemoryStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		nowFn:   nowFn,
	}
}

// Incr implements CounterStore. Every call sweeps expired entries; keys are
// window-indexed, so a stale key is never touched again on its own.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	for stale, deadline := range s.expires {
		if now.After(deadline) {
			delete(s.counts, stale)
			delete(s.expires, stale)
		}
	}
	if _, ok := s.counts[key]; !ok {
		s.expires[key] = now.Add(ttl)
	}
	s.counts[key]++
	return s.counts[key], nil
}

// Decision is the limiter's verdict for one request.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter applies a fixed window of Limit requests per Window, keyed by the
// caller's identifier.
type Limiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
	logger *slog.Logger
	nowFn  func() time.Time
}

// New builds a Limiter. Zero limit or window fall back to the defaults.
func New(store CounterStore, limit int64, window time.Duration, logger *slog.Logger, nowFn func() time.Time) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger, nowFn: nowFn}
}

// Allow records one request for id and reports whether it fits the window.
// Store failures allow the request through so a cache outage never becomes a
// full service outage.
func (l *Limiter) Allow(ctx context.Context, id string) Decision {
	now := l.nowFn().UTC()
	windowSecs := int64(l.window / time.Second)
	bucket := now.Unix() / windowSecs
	key := fmt.Sprintf("ratelimit:%s:%d", id, bucket)

	count, err := l.store.Incr(ctx, key, l.window+time.Second)
	if err != nil {
		l.logger.WarnContext(ctx, "rate_limiter_unavailable",
			slog.String("agent_did", id),
			slog.String("error", err.Error()),
		)
		return Decision{Allowed: true, Remaining: 0}
	}
	if count > l.limit {
		windowEnd := time.Unix((bucket+1)*windowSecs, 0)
		return Decision{Allowed: false, RetryAfter: windowEnd.Sub(now)}
	}
	return Decision{Allowed: true, Remaining: l.limit - count}
}
