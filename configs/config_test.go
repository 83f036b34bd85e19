package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2*time.Minute, cfg.Cache.NullTTL)
	require.Equal(t, 30*time.Minute, cfg.Cache.ShopTTL)
	require.Equal(t, 10*time.Second, cfg.Cache.LockLease)
	require.Equal(t, 10*time.Second, cfg.Cache.LoadTimeout)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTLJitter)
	require.Equal(t, 10, cfg.Cache.RebuildWorkers)
	require.Equal(t, "drop", cfg.Cache.RebuildOverflow)
	require.Equal(t, "redis", cfg.Seckill.LockMode)
	require.Equal(t, int64(1640995200), cfg.IDGen.Epoch.Unix())
	require.Contains(t, cfg.Database.DSN, "dbname=hmdp")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_CODEC", "msgpack")
	t.Setenv("CACHE_SHOP_STRATEGY", "mutex")
	t.Setenv("CACHE_MUTEX_MAX_ATTEMPTS", "5")
	t.Setenv("ID_EPOCH", "2024-01-01T00:00:00Z")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "msgpack", cfg.Cache.Codec)
	require.Equal(t, "mutex", cfg.Cache.ShopStrategy)
	require.Equal(t, 5, cfg.Cache.MutexMaxAttempts)
	require.Equal(t, 2024, cfg.IDGen.Epoch.Year())
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("CACHE_REBUILD_OVERFLOW", "queue")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsNullTTLLongerThanShopTTL(t *testing.T) {
	t.Setenv("CACHE_NULL_TTL", "1h")
	t.Setenv("CACHE_SHOP_TTL", "30m")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsBadEpoch(t *testing.T) {
	t.Setenv("ID_EPOCH", "yesterday")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ClusterAddrs(t *testing.T) {
	t.Setenv("REDIS_CLUSTER_ADDRS", "10.0.0.1:7000, 10.0.0.2:7000,,")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7000"}, cfg.Redis.ClusterAddrs)
}
