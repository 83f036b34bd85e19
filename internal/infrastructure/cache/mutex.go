package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
)

// GetWithMutex reads id and, on a miss, lets only the holder of the rebuild
// lock call the loader. Other callers back off and retry until the entry
// shows up or MutexMaxAttempts is spent, which yields ErrLockUnavailable.
func GetWithMutex[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID) (V, bool, error) {
	var zero V
	key := src.Key(id)
	name := src.lockName(id)

	for attempt := 1; attempt <= c.cfg.MutexMaxAttempts; attempt++ {
		v, state, err := readPlain(ctx, c, src, key)
		if err != nil {
			metrics.CacheLookup(strategyMutex, "error")
			return zero, false, err
		}
		switch state {
		case lookupHit:
			metrics.CacheLookup(strategyMutex, "hit")
			return v, true, nil
		case lookupNull:
			metrics.CacheLookup(strategyMutex, "null")
			return zero, false, nil
		}

		token, ok, err := c.locker.TryLock(ctx, name, c.cfg.LockLease)
		if err != nil {
			metrics.CacheLookup(strategyMutex, "error")
			return zero, false, err
		}
		if ok {
			metrics.CacheLookup(strategyMutex, "miss")
			return rebuildHeld(ctx, c, src, id, key, token)
		}

		if err := sleepCtx(ctx, c.cfg.MutexBackoff); err != nil {
			return zero, false, err
		}
	}

	c.logger.WithFields(logrus.Fields{
		"key":      key,
		"attempts": c.cfg.MutexMaxAttempts,
	}).Warn("cache rebuild lock not obtained")
	metrics.CacheLookup(strategyMutex, "error")
	return zero, false, ErrLockUnavailable
}

// rebuildHeld runs with the rebuild lock held. loadAndFill re-reads first
// because the previous holder may have filled the key between our miss and
// our acquire.
func rebuildHeld[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string, token ports.LockToken) (V, bool, error) {
	defer c.release(ctx, token)
	return loadAndFill(ctx, c, src, id, key)
}
