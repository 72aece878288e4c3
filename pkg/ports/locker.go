package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken with DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes answers to one session across replicas that
// share a SessionStore.
type DistributedLocker interface {
	// Lock blocks until key is held, ctx is done, or the backend gives up.
	// The lock expires after ttl if the holder dies. The returned UnlockFunc
	// must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
