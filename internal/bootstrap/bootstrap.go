// Package bootstrap builds the shared runtime graph used by the service and
// the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	config "github.com/Baize0412/hm-dianping/configs"
	"github.com/Baize0412/hm-dianping/internal/application/services"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/cache"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/db"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/health"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/locallock"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/redis"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/repositories"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/worker"
	"github.com/Baize0412/hm-dianping/internal/utils"
)

// NewLogger configures logrus from the log section: JSON unless the format is
// "text", info level when the configured level does not parse.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

// App holds the connected collaborators. Close releases them in reverse
// order of construction.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	DB      *db.Database
	Redis   goredis.UniversalClient
	Store   *redis.Store
	Locker  *redis.Locker
	IDs     *redis.IDWorker
	Rebuild *worker.Pool
	Cache   *cache.Client

	ShopService     *services.ShopService
	ShopTypeService *services.ShopTypeService
	VoucherService  *services.VoucherService
	SeckillService  *services.SeckillService
	HealthCheckers  []ports.HealthChecker
}

// Connect opens Postgres and Redis and builds every service on top of them.
func Connect(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	redisClient, err := redis.NewUniversalClient(&cfg.Redis)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, DB: database, Redis: redisClient}
	if err := app.build(); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) build() error {
	cfg := a.Config
	clock := utils.SystemClock{}

	a.Store = redis.NewStore(a.Redis, "")
	a.Locker = redis.NewLocker(a.Store)
	a.IDs = redis.NewIDWorker(a.Store, clock, cfg.IDGen.Epoch)
	a.Rebuild = worker.NewPool("cache-rebuild", cfg.Cache.RebuildWorkers, worker.OverflowPolicy(cfg.Cache.RebuildOverflow), a.Logger)

	a.Cache = cache.New(cache.Config{
		NullTTL:           cfg.Cache.NullTTL,
		TTLJitter:         cfg.Cache.TTLJitter,
		LockLease:         cfg.Cache.LockLease,
		MutexBackoff:      cfg.Cache.MutexRetryBackoff,
		MutexMaxAttempts:  cfg.Cache.MutexMaxAttempts,
		LogicalMissPolicy: cache.MissPolicy(cfg.Cache.LogicalMissPolicy),
		LoadTimeout:       cfg.Cache.LoadTimeout,
	}, cache.Deps{Store: a.Store, Locker: a.Locker, Runner: a.Rebuild, Clock: clock}, a.Logger)

	shopSvc, err := services.NewShopService(repositories.NewShopRepository(a.DB, a.Logger), a.Cache, &services.ShopServiceConfig{
		Strategy:   cfg.Cache.ShopStrategy,
		Codec:      cfg.Cache.Codec,
		TTL:        cfg.Cache.ShopTTL,
		TTLJitter:  cfg.Cache.TTLJitter,
		LogicalTTL: cfg.Cache.LogicalTTL,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("build shop service: %w", err)
	}
	a.ShopService = shopSvc
	a.ShopTypeService = services.NewShopTypeService(repositories.NewShopTypeRepository(a.DB), a.Cache, cfg.Cache.ShopTypeTTL)
	a.VoucherService = services.NewVoucherService(repositories.NewSeckillVoucherRepository(a.DB, a.Logger), a.Cache, cfg.Cache.VoucherInfoTTL, a.Logger)

	var userLocks ports.Locker = a.Locker
	if cfg.Seckill.LockMode == "local" {
		a.Logger.Warn("seckill: using in-process user locks, only safe with a single instance")
		userLocks = locallock.New(clock)
	}
	a.SeckillService = services.NewSeckillService(
		a.VoucherService,
		repositories.NewVoucherOrderStore(a.DB),
		userLocks,
		a.IDs,
		clock,
		&services.SeckillConfig{
			LockLease:    cfg.Seckill.UserLockLease,
			LockWait:     cfg.Seckill.UserLockWait,
			LockAttempts: cfg.Seckill.UserLockAttempts,
			OrderIDScope: cfg.Seckill.OrderIDScope,
		},
		a.Logger,
	)

	a.HealthCheckers = []ports.HealthChecker{health.NewDBHealthChecker(a.DB), health.NewRedisHealthChecker(a.Redis)}
	return nil
}

// Close drains the rebuild pool before closing the connections it uses.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Rebuild != nil {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
		}
		keep(a.Rebuild.Close(ctx))
	}
	if a.Redis != nil {
		keep(a.Redis.Close())
	}
	if a.DB != nil {
		keep(a.DB.Close())
	}
	return firstErr
}
