package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
)

// GetWithLogicalExpire reads an entry that carries its own expiry and has no
// store TTL. Fresh entries are returned as is. Expired entries are returned
// too, and whoever wins the rebuild lock hands a reload to the task runner.
// Absent keys follow the configured MissPolicy.
func GetWithLogicalExpire[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID) (V, bool, error) {
	var zero V
	key := src.Key(id)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		metrics.CacheLookup(strategyLogical, "error")
		return zero, false, err
	}
	if ok && len(raw) == 0 {
		metrics.CacheLookup(strategyLogical, "null")
		return zero, false, nil
	}
	if ok {
		v, expireAt, err := decodeEntry(src, raw, kindLogical)
		if err == nil {
			if c.clock.Now().Before(expireAt) {
				metrics.CacheLookup(strategyLogical, "hit")
				return v, true, nil
			}
			metrics.CacheLookup(strategyLogical, "stale")
			scheduleRebuild(ctx, c, src, id, key)
			return v, true, nil
		}
		c.decodeFailed(key, err)
	}

	metrics.CacheLookup(strategyLogical, "miss")
	if c.cfg.LogicalMissPolicy == MissNotFound {
		return zero, false, nil
	}
	return coldLoad(ctx, c, src, id, key)
}

// coldLoad fills an absent key synchronously. Concurrent callers in this
// process share one load.
func coldLoad[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string) (V, bool, error) {
	return shareLoad(ctx, c, &c.cold, key, func(ctx context.Context) (V, bool, error) {
		var zero V
		v, found, err := src.Load(ctx, id)
		if err != nil {
			return zero, false, &LoaderError{Key: key, Err: err}
		}
		if !found {
			if err := c.store.Set(ctx, key, []byte{}, c.cfg.NullTTL); err != nil {
				c.logger.WithError(err).WithField("key", key).Warn("failed to write cache null marker")
			}
			return zero, false, nil
		}
		if err := setLogical(ctx, c, src, key, v); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("failed to fill cache")
		}
		return v, true, nil
	})
}

func scheduleRebuild[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string) {
	token, ok, err := c.locker.TryLock(ctx, src.lockName(id), c.cfg.LockLease)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache rebuild lock failed")
		return
	}
	if !ok {
		return
	}

	submitted := c.runner.Submit("rebuild "+key, func(poolCtx context.Context) {
		rebuild(poolCtx, c, src, id, key, token)
	})
	if !submitted {
		metrics.CacheRebuild("dropped")
		c.release(ctx, token)
	}
}

// rebuild reloads one entry on the task runner. The lock is released on every
// path; a failed load leaves the stale entry in place.
func rebuild[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, key string, token ports.LockToken) {
	defer c.release(ctx, token)

	// A reader that saw the stale entry just before the previous rebuild
	// finished can win the lock afterwards.
	if raw, ok, err := c.store.Get(ctx, key); err == nil && ok && len(raw) > 0 {
		if _, expireAt, err := decodeEntry(src, raw, kindLogical); err == nil && c.clock.Now().Before(expireAt) {
			metrics.CacheRebuild("skipped")
			return
		}
	}

	v, found, err := src.Load(ctx, id)
	if err != nil {
		metrics.CacheRebuild("error")
		c.logger.WithError(err).WithFields(logrus.Fields{"key": key}).Error("cache rebuild failed")
		return
	}
	if !found {
		metrics.CacheRebuild("not_found")
		if err := c.store.Set(ctx, key, []byte{}, c.cfg.NullTTL); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("failed to write cache null marker")
		}
		return
	}
	if err := setLogical(ctx, c, src, key, v); err != nil {
		metrics.CacheRebuild("error")
		c.logger.WithError(err).WithField("key", key).Error("cache rebuild write failed")
		return
	}
	metrics.CacheRebuild("ok")
}

func setLogical[ID, V any](ctx context.Context, c *Client, src Source[ID, V], key string, v V) error {
	b, err := encodeValue(src, v, kindLogical, c.clock.Now().Add(src.LogicalTTL))
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, b, 0)
}

// SetWithLogicalExpire writes v with a logical expiry of now + LogicalTTL and
// no store TTL. Warm-up uses it ahead of traffic.
func SetWithLogicalExpire[ID, V any](ctx context.Context, c *Client, src Source[ID, V], id ID, v V) error {
	return setLogical(ctx, c, src, src.Key(id), v)
}

