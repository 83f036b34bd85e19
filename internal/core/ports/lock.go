package ports

import (
	"context"
	"time"
)

// LockToken identifies one successful acquisition. HolderID is what the store
// holds under the lock key while the lease is live.
type LockToken struct {
	Key      string
	HolderID string
	Lease    time.Duration
}

// Locker is a non-blocking named mutex with a lease.
type Locker interface {
	// TryLock never waits: ok=false means another holder owns name.
	TryLock(ctx context.Context, name string, lease time.Duration) (token LockToken, ok bool, err error)
	// Unlock releases the lock only if token still owns it.
	Unlock(ctx context.Context, token LockToken) error
}
