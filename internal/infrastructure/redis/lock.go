package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

const lockKeyPrefix = "lock:"

// Locker implements ports.Locker on the shared key-value store. Each acquire
// stores a holder id unique to this process and acquisition, and Unlock only
// deletes the key while it still carries that id.
type Locker struct {
	store     ports.KeyValueStore
	processID string
	seq       atomic.Uint64
}

var _ ports.Locker = (*Locker)(nil)

func NewLocker(store ports.KeyValueStore) *Locker {
	return &Locker{store: store, processID: uuid.NewString()}
}

func (l *Locker) key(name string) string { return lockKeyPrefix + name }

func (l *Locker) nextHolderID() string {
	return l.processID + "-" + strconv.FormatUint(l.seq.Add(1), 10)
}

// TryLock implements Locker.TryLock.
func (l *Locker) TryLock(ctx context.Context, name string, lease time.Duration) (ports.LockToken, bool, error) {
	if lease <= 0 {
		return ports.LockToken{}, false, fmt.Errorf("lock %q: lease must be positive", name)
	}
	token := ports.LockToken{Key: l.key(name), HolderID: l.nextHolderID(), Lease: lease}
	ok, err := l.store.SetNX(ctx, token.Key, []byte(token.HolderID), lease)
	if err != nil {
		return ports.LockToken{}, false, fmt.Errorf("failed to acquire lock %q: %w", name, err)
	}
	if !ok {
		return ports.LockToken{}, false, nil
	}
	return token, true, nil
}

// Unlock implements Locker.Unlock. A lock that expired and was taken by
// someone else is left alone.
func (l *Locker) Unlock(ctx context.Context, token ports.LockToken) error {
	if token.Key == "" {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, token.Key, []byte(token.HolderID)); err != nil {
		return fmt.Errorf("failed to release lock %q: %w", token.Key, err)
	}
	return nil
}

// ForceUnlock deletes the lock whoever holds it. It can release a lock that a
// different holder re-acquired after the original lease expired, so it is only
// meant for operators clearing a wedged key.
func (l *Locker) ForceUnlock(ctx context.Context, name string) error {
	return l.store.Delete(ctx, l.key(name))
}
