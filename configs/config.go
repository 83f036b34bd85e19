package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Cache    CacheConfig
	Seckill  SeckillConfig
	IDGen    IDGenConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// When set, a cluster client is used and Host/Port/DB are ignored.
	ClusterAddrs []string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// CacheConfig drives the read-through cache client and the shop read path.
type CacheConfig struct {
	Codec     string // json, msgpack or cbor
	NullTTL   time.Duration
	ShopTTL   time.Duration
	TTLJitter time.Duration // shop TTL addend bound; caps the tenth-of-TTL default elsewhere
	// LoadTimeout bounds a loader call shared by concurrent misses.
	LoadTimeout time.Duration

	LockLease         time.Duration
	MutexRetryBackoff time.Duration
	MutexMaxAttempts  int

	LogicalTTL        time.Duration
	LogicalMissPolicy string // load or not_found

	RebuildWorkers  int
	RebuildOverflow string // drop or block

	ShopStrategy   string // passthrough, mutex or logical
	ShopTypeTTL    time.Duration
	VoucherInfoTTL time.Duration
}

type SeckillConfig struct {
	LockMode         string // redis or local
	UserLockLease    time.Duration
	UserLockWait     time.Duration
	UserLockAttempts int
	OrderIDScope     string
}

type IDGenConfig struct {
	Epoch time.Time
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	epoch, err := getTimeEnv("ID_EPOCH", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8081"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "hmdp"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			ClusterAddrs: getListEnv("REDIS_CLUSTER_ADDRS"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Cache: CacheConfig{
			Codec:             getEnv("CACHE_CODEC", "json"),
			NullTTL:           getDurationEnv("CACHE_NULL_TTL", 2*time.Minute),
			ShopTTL:           getDurationEnv("CACHE_SHOP_TTL", 30*time.Minute),
			TTLJitter:         getDurationEnv("CACHE_TTL_JITTER", 30*time.Minute),
			LoadTimeout:       getDurationEnv("CACHE_LOAD_TIMEOUT", 10*time.Second),
			LockLease:         getDurationEnv("CACHE_LOCK_LEASE", 10*time.Second),
			MutexRetryBackoff: getDurationEnv("CACHE_MUTEX_BACKOFF", 50*time.Millisecond),
			MutexMaxAttempts:  getIntEnv("CACHE_MUTEX_MAX_ATTEMPTS", 40),
			LogicalTTL:        getDurationEnv("CACHE_LOGICAL_TTL", 20*time.Second),
			LogicalMissPolicy: getEnv("CACHE_LOGICAL_MISS_POLICY", "load"),
			RebuildWorkers:    getIntEnv("CACHE_REBUILD_WORKERS", 10),
			RebuildOverflow:   getEnv("CACHE_REBUILD_OVERFLOW", "drop"),
			ShopStrategy:      getEnv("CACHE_SHOP_STRATEGY", "logical"),
			ShopTypeTTL:       getDurationEnv("CACHE_SHOP_TYPE_TTL", time.Hour),
			VoucherInfoTTL:    getDurationEnv("CACHE_VOUCHER_TTL", 10*time.Second),
		},
		Seckill: SeckillConfig{
			LockMode:         getEnv("SECKILL_LOCK_MODE", "redis"),
			UserLockLease:    getDurationEnv("SECKILL_USER_LOCK_LEASE", 10*time.Second),
			UserLockWait:     getDurationEnv("SECKILL_USER_LOCK_WAIT", 20*time.Millisecond),
			UserLockAttempts: getIntEnv("SECKILL_USER_LOCK_ATTEMPTS", 100),
			OrderIDScope:     getEnv("SECKILL_ORDER_ID_SCOPE", "order"),
		},
		IDGen: IDGenConfig{
			Epoch: epoch,
		},
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !oneOf(c.Cache.Codec, "json", "msgpack", "cbor") {
		return fmt.Errorf("CACHE_CODEC must be json, msgpack or cbor, got %q", c.Cache.Codec)
	}
	if !oneOf(c.Cache.LogicalMissPolicy, "load", "not_found") {
		return fmt.Errorf("CACHE_LOGICAL_MISS_POLICY must be load or not_found, got %q", c.Cache.LogicalMissPolicy)
	}
	if !oneOf(c.Cache.RebuildOverflow, "drop", "block") {
		return fmt.Errorf("CACHE_REBUILD_OVERFLOW must be drop or block, got %q", c.Cache.RebuildOverflow)
	}
	if !oneOf(c.Cache.ShopStrategy, "passthrough", "mutex", "logical") {
		return fmt.Errorf("CACHE_SHOP_STRATEGY must be passthrough, mutex or logical, got %q", c.Cache.ShopStrategy)
	}
	if !oneOf(c.Seckill.LockMode, "redis", "local") {
		return fmt.Errorf("SECKILL_LOCK_MODE must be redis or local, got %q", c.Seckill.LockMode)
	}
	if c.Cache.RebuildWorkers <= 0 {
		return fmt.Errorf("CACHE_REBUILD_WORKERS must be positive")
	}
	if c.Cache.NullTTL >= c.Cache.ShopTTL {
		return fmt.Errorf("CACHE_NULL_TTL (%s) must be shorter than CACHE_SHOP_TTL (%s)", c.Cache.NullTTL, c.Cache.ShopTTL)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getTimeEnv(key string, defaultValue time.Time) (time.Time, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t.UTC(), nil
}
