package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

const (
	idCounterPrefix = "icr:"
	idCountBits     = 32
	// counters are only written on their own day; keep one spare day for
	// requests that straddle midnight.
	idCounterTTL = 48 * time.Hour
)

// IDWorker builds ids as (seconds since epoch << 32) | per-day counter.
// Ids issued after a backwards clock step may repeat earlier ones.
type IDWorker struct {
	store ports.KeyValueStore
	clock ports.Clock
	epoch time.Time
}

var _ ports.IDGenerator = (*IDWorker)(nil)

func NewIDWorker(store ports.KeyValueStore, clock ports.Clock, epoch time.Time) *IDWorker {
	return &IDWorker{store: store, clock: clock, epoch: epoch}
}

// NextID implements IDGenerator.NextID.
func (w *IDWorker) NextID(ctx context.Context, scope string) (int64, error) {
	now := w.clock.Now().UTC()
	elapsed := now.Unix() - w.epoch.Unix()
	if elapsed < 0 {
		return 0, fmt.Errorf("id worker: clock %s is before epoch %s", now.Format(time.RFC3339), w.epoch.Format(time.RFC3339))
	}

	key := idCounterPrefix + scope + ":" + now.Format("20060102")
	count, err := w.store.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("id worker: increment %s: %w", key, err)
	}
	if count == 1 {
		if err := w.store.Expire(ctx, key, idCounterTTL); err != nil {
			return 0, fmt.Errorf("id worker: expire %s: %w", key, err)
		}
	}
	if count >= 1<<idCountBits {
		return 0, fmt.Errorf("id worker: daily counter for %q exhausted", scope)
	}
	return elapsed<<idCountBits | count, nil
}

// SplitID returns the timestamp and counter encoded in id.
func (w *IDWorker) SplitID(id int64) (time.Time, int64) {
	secs := id >> idCountBits
	return w.epoch.Add(time.Duration(secs) * time.Second).UTC(), id & (1<<idCountBits - 1)
}
