// Package locallock provides an in-process ports.Locker for single-node
// deployments. It gives no exclusion across processes.
package locallock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

type holder struct {
	id      string
	expires time.Time
}

// Locker is a keyed try-lock with leases. Expired entries are treated as free
// and swept lazily on acquire.
type Locker struct {
	clock ports.Clock

	mu    sync.Mutex
	held  map[string]holder
	seq   uint64
	sweep int
}

var _ ports.Locker = (*Locker)(nil)

func New(clock ports.Clock) *Locker {
	return &Locker{clock: clock, held: make(map[string]holder)}
}

// TryLock implements Locker.TryLock.
func (l *Locker) TryLock(_ context.Context, name string, lease time.Duration) (ports.LockToken, bool, error) {
	if lease <= 0 {
		return ports.LockToken{}, false, fmt.Errorf("lock %q: lease must be positive", name)
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.held[name]; ok && now.Before(h.expires) {
		return ports.LockToken{}, false, nil
	}
	l.seq++
	token := ports.LockToken{Key: name, HolderID: strconv.FormatUint(l.seq, 10), Lease: lease}
	l.held[name] = holder{id: token.HolderID, expires: now.Add(lease)}

	l.sweep++
	if l.sweep >= 1024 {
		l.sweep = 0
		for k, h := range l.held {
			if !now.Before(h.expires) {
				delete(l.held, k)
			}
		}
	}
	return token, true, nil
}

// Unlock implements Locker.Unlock.
func (l *Locker) Unlock(_ context.Context, token ports.LockToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.held[token.Key]; ok && h.id == token.HolderID {
		delete(l.held, token.Key)
	}
	return nil
}
