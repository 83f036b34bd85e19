package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/cache"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/redis"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/worker"
	"github.com/Baize0412/hm-dianping/internal/utils"
)

type infra struct {
	mr     *miniredis.Miniredis
	store  *redis.Store
	locker *redis.Locker
	pool   *worker.Pool
	clock  *utils.FixedClock
	cache  *cache.Client
}

func newInfra(t *testing.T, policy cache.MissPolicy) *infra {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	in := &infra{
		mr:    mr,
		store: redis.NewStore(rc, ""),
		pool:  worker.NewPool("rebuild", 4, worker.OverflowDrop, nil),
		clock: utils.NewFixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
	in.locker = redis.NewLocker(in.store)
	t.Cleanup(func() { _ = in.pool.Close(context.Background()) })
	in.cache = cache.New(cache.Config{
		NullTTL:           2 * time.Minute,
		TTLJitter:         time.Minute,
		LockLease:         10 * time.Second,
		MutexBackoff:      5 * time.Millisecond,
		MutexMaxAttempts:  200,
		LogicalMissPolicy: policy,
	}, cache.Deps{Store: in.store, Locker: in.locker, Runner: in.pool, Clock: in.clock}, nil)
	return in
}
