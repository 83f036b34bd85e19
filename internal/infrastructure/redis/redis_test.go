package redis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/redis"
	"github.com/Baize0412/hm-dianping/internal/utils"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *redis.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewStore(client, "")
}

func TestStore_GetMissAndRoundTrip(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "cache:shop:1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "cache:shop:1", []byte("v"), time.Minute))
	got, ok, err := s.Get(ctx, "cache:shop:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)
}

func TestStore_EmptyValueIsAHit(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte{}, time.Minute))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestStore_Prefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := redis.NewStore(client, "hmdp")

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 0))
	got, err := mr.Get("hmdp:k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestStore_TTLExpires(t *testing.T) {
	mr, s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_CompareAndDelete(t *testing.T) {
	_, s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "lock:a", []byte("me"), time.Minute))

	deleted, err := s.CompareAndDelete(ctx, "lock:a", []byte("someone-else"))
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = s.CompareAndDelete(ctx, "lock:a", []byte("me"))
	require.NoError(t, err)
	require.True(t, deleted)

	_, ok, err := s.Get(ctx, "lock:a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocker_MutualExclusion(t *testing.T) {
	_, s := newStore(t)
	l := redis.NewLocker(s)
	ctx := context.Background()

	tok, ok, err := l.TryLock(ctx, "shop:1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "lock:shop:1", tok.Key)

	_, ok, err = l.TryLock(ctx, "shop:1", 10*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Unlock(ctx, tok))
	_, ok, err = l.TryLock(ctx, "shop:1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocker_ConcurrentAcquireHasOneWinner(t *testing.T) {
	_, s := newStore(t)
	l := redis.NewLocker(s)

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := l.TryLock(context.Background(), "order:7", time.Minute); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), winners.Load())
}

func TestLocker_ExpiredLeaseUnlockDoesNotReleaseNewHolder(t *testing.T) {
	mr, s := newStore(t)
	l := redis.NewLocker(s)
	ctx := context.Background()

	first, ok, err := l.TryLock(ctx, "shop:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	second, ok, err := l.TryLock(ctx, "shop:1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, first.HolderID, second.HolderID)

	require.NoError(t, l.Unlock(ctx, first))
	holder, err := mr.Get("lock:shop:1")
	require.NoError(t, err)
	require.Equal(t, second.HolderID, holder)
}

func TestLocker_RejectsNonPositiveLease(t *testing.T) {
	_, s := newStore(t)
	_, _, err := redis.NewLocker(s).TryLock(context.Background(), "x", 0)
	require.Error(t, err)
}

func TestLocker_ForceUnlock(t *testing.T) {
	_, s := newStore(t)
	l := redis.NewLocker(s)
	ctx := context.Background()

	_, ok, err := l.TryLock(ctx, "order:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.ForceUnlock(ctx, "order:1"))
	_, ok, err = l.TryLock(ctx, "order:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIDWorker_Layout(t *testing.T) {
	mr, s := newStore(t)
	epoch := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	w := redis.NewIDWorker(s, utils.NewFixedClock(now), epoch)
	ctx := context.Background()

	id1, err := w.NextID(ctx, "order")
	require.NoError(t, err)
	id2, err := w.NextID(ctx, "order")
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	ts, seq := w.SplitID(id2)
	require.Equal(t, now, ts)
	require.Equal(t, int64(2), seq)
	require.Equal(t, (now.Unix()-epoch.Unix())<<32|1, id1)

	require.True(t, mr.Exists("icr:order:20240305"))
	require.Greater(t, mr.TTL("icr:order:20240305"), time.Duration(0))
}

func TestIDWorker_CounterResetsPerDayAndScope(t *testing.T) {
	_, s := newStore(t)
	epoch := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := utils.NewFixedClock(time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC))
	w := redis.NewIDWorker(s, clock, epoch)
	ctx := context.Background()

	_, err := w.NextID(ctx, "order")
	require.NoError(t, err)
	_, err = w.NextID(ctx, "order")
	require.NoError(t, err)

	other, err := w.NextID(ctx, "shop")
	require.NoError(t, err)
	_, seq := w.SplitID(other)
	require.Equal(t, int64(1), seq)

	clock.Advance(time.Second)
	next, err := w.NextID(ctx, "order")
	require.NoError(t, err)
	_, seq = w.SplitID(next)
	require.Equal(t, int64(1), seq)
}

func TestIDWorker_ConcurrentIDsAreUnique(t *testing.T) {
	_, s := newStore(t)
	w := redis.NewIDWorker(s, utils.SystemClock{}, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))

	const n = 200
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := w.NextID(context.Background(), "order")
			if err == nil {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, n)
	for id := range ids {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n)
}

func TestIDWorker_ClockBeforeEpoch(t *testing.T) {
	_, s := newStore(t)
	epoch := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	w := redis.NewIDWorker(s, utils.NewFixedClock(epoch.Add(-time.Hour)), epoch)
	_, err := w.NextID(context.Background(), "order")
	require.Error(t, err)
}

type failingExpireStore struct {
	*redis.Store
}

func (failingExpireStore) Expire(context.Context, string, time.Duration) error {
	return errors.New("connection reset")
}

func TestIDWorker_ExpireFailureIsReturned(t *testing.T) {
	_, s := newStore(t)
	epoch := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	w := redis.NewIDWorker(failingExpireStore{s}, utils.NewFixedClock(epoch.Add(time.Hour)), epoch)

	_, err := w.NextID(context.Background(), "order")
	require.ErrorContains(t, err, "connection reset")
	require.ErrorContains(t, err, "icr:order:20220101")
}

var _ ports.KeyValueStore = (*redis.Store)(nil)
