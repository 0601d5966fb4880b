//go:build unit

package sweeplock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	ctx := context.Background()
	first := NewRedisLocker(client, DefaultKey, time.Minute)
	second := NewRedisLocker(client, DefaultKey, time.Minute)

	t.Run("only one holder at a time", func(t *testing.T) {
		unlock, ok, err := first.TryLock(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = second.TryLock(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, unlock(ctx))
		assert.False(t, s.Exists(DefaultKey))

		unlock, ok, err = second.TryLock(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, unlock(ctx))
	})

	t.Run("expired lease is not released by its old holder", func(t *testing.T) {
		unlock, ok, err := first.TryLock(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		s.FastForward(2 * time.Minute)

		_, ok, err = second.TryLock(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, unlock(ctx))
		assert.True(t, s.Exists(DefaultKey), "new holder keeps the lease")
	})

	t.Run("redis down", func(t *testing.T) {
		broken := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
		defer broken.Close()

		_, ok, err := NewRedisLocker(broken, DefaultKey, time.Minute).TryLock(ctx)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestLocal(t *testing.T) {
	unlock, ok, err := Local{}.TryLock(context.Background())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, unlock(context.Background()))
}
