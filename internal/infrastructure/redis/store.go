package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

// compareAndDelete deletes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store implements ports.KeyValueStore using a Redis client.
type Store struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
}

var _ ports.KeyValueStore = (*Store)(nil)

// NewStore creates a new Redis-backed key-value store.
func NewStore(r redis.Cmdable, prefix string) *Store {
	return &Store{r: r, prefix: prefix}
}

func (s *Store) namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get implements KeyValueStore.Get.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.r.Get(ctx, s.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements KeyValueStore.Set.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.r.Set(ctx, s.namespaced(key), value, ttl).Err()
}

// SetNX implements KeyValueStore.SetNX.
func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.r.SetNX(ctx, s.namespaced(key), value, ttl).Result()
}

// Delete implements KeyValueStore.Delete.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.r.Del(ctx, s.namespaced(key)).Err()
}

// Incr implements KeyValueStore.Incr.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	return s.r.Incr(ctx, s.namespaced(key)).Result()
}

// Expire implements KeyValueStore.Expire.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.r.Expire(ctx, s.namespaced(key), ttl).Err()
}

// CompareAndDelete implements KeyValueStore.CompareAndDelete with a Lua script
// so the read and the delete cannot interleave with another client.
func (s *Store) CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.r, []string{s.namespaced(key)}, expected).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
