package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuardAcquireReleaseCycle(t *testing.T) {
	g := NewMemoryGuard(5 * time.Second)
	ctx := context.Background()
	key := Key("user-1", "list-1")

	ok, err := g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	other, err := g.TryAcquire(ctx, Key("user-2", "list-1"))
	require.NoError(t, err)
	require.True(t, other)

	require.NoError(t, g.Release(ctx, key))

	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryGuardExpiry(t *testing.T) {
	now := time.Now()
	g := NewMemoryGuard(5 * time.Second)
	g.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key("user-1", "list-1")

	ok, err := g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(3 * time.Second)
	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	now = now.Add(3 * time.Second)
	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryGuardSweep(t *testing.T) {
	now := time.Now()
	g := NewMemoryGuard(5 * time.Second)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := g.TryAcquire(ctx, "stale")
	require.NoError(t, err)
	now = now.Add(2 * time.Second)
	_, err = g.TryAcquire(ctx, "fresh")
	require.NoError(t, err)

	now = now.Add(4 * time.Second)
	g.Sweep()

	require.NotContains(t, g.expires, "stale")
	require.Contains(t, g.expires, "fresh")
}

func TestRedisGuard(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	g := NewRedisGuard(client, 5*time.Second)
	ctx := context.Background()
	key := Key("user-1", "list-1")

	ok, err := g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	srv.FastForward(6 * time.Second)
	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, g.Release(ctx, key))
	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}
