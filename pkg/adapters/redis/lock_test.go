package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/adapters/redis"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.DistributedLocker = (*redis.Locker)(nil)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:sess-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:sess-1"))
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()
	assert.True(t, mr.Exists("test:lock:shared"))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "sess", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlock2, err := locker.Lock(ctx, "sess", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock1(ctx), "releasing an expired lock is a no-op")
	assert.True(t, mr.Exists("test:lock:sess"), "the second owner still holds the lock")
	require.NoError(t, unlock2(ctx))
}
