package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	now := time.Unix(1717171717, 0)
	clock := func() time.Time { return now }
	l := New(NewMemoryStore(clock), 5, time.Minute, nil, clock)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d := l.Allow(ctx, "did:key:aa")
		require.True(t, d.Allowed, "request %d", i)
	}
	d := l.Allow(ctx, "did:key:aa")
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, d.RetryAfter, time.Minute)
}

func TestLimiterKeysByCaller(t *testing.T) {
	now := time.Unix(1717171717, 0)
	clock := func() time.Time { return now }
	l := New(NewMemoryStore(clock), 1, time.Minute, nil, clock)

	ctx := context.Background()
	require.True(t, l.Allow(ctx, "did:key:aa").Allowed)
	require.False(t, l.Allow(ctx, "did:key:aa").Allowed)
	require.True(t, l.Allow(ctx, "did:key:bb").Allowed)
}

func TestLimiterResetsAtWindowBoundary(t *testing.T) {
	now := time.Unix(1717171717, 0)
	clock := func() time.Time { return now }
	l := New(NewMemoryStore(func() time.Time { return now }), 1, time.Minute, nil, clock)

	ctx := context.Background()
	require.True(t, l.Allow(ctx, "did:key:aa").Allowed)
	require.False(t, l.Allow(ctx, "did:key:aa").Allowed)

	// Advance into the next fixed window; the key changes and the budget is
	// fresh even though the old counter has not expired yet.
	now = now.Add(time.Minute)
	require.True(t, l.Allow(ctx, "did:key:aa").Allowed)
}

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	l := New(failingStore{}, 1, time.Minute, nil, nil)
	d := l.Allow(context.Background(), "did:key:aa")
	require.True(t, d.Allowed)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Unix(1717171717, 0)
	store := NewMemoryStore(func() time.Time { return now })

	ctx := context.Background()
	count, err := store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	now = now.Add(2 * time.Minute)
	count, err = store.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestMemoryStoreSweepsStaleKeys(t *testing.T) {
	now := time.Unix(1717171717, 0)
	store := NewMemoryStore(func() time.Time { return now })

	// Window-indexed keys are abandoned once their window closes; an
	// increment on a fresh key must still reclaim them.
	ctx := context.Background()
	for _, key := range []string{"ratelimit:did:key:aa:1", "ratelimit:did:key:bb:1"} {
		_, err := store.Incr(ctx, key, time.Minute)
		require.NoError(t, err)
	}
	require.Len(t, store.counts, 2)

	now = now.Add(2 * time.Minute)
	_, err := store.Incr(ctx, "ratelimit:did:key:aa:3", time.Minute)
	require.NoError(t, err)
	require.Len(t, store.counts, 1)
	require.Len(t, store.expires, 1)
	require.Contains(t, store.counts, "ratelimit:did:key:aa:3")
}
