package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/domain/shop"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/cache"
)

// Read strategies for the shop detail path.
const (
	StrategyPassThrough = "passthrough"
	StrategyMutex       = "mutex"
	StrategyLogical     = "logical"
)

// ShopServiceConfig groups the cache settings of the shop read path.
type ShopServiceConfig struct {
	Strategy   string
	Codec      string
	TTL        time.Duration
	TTLJitter  time.Duration
	LogicalTTL time.Duration
}

type ShopService struct {
	repo     ports.ShopRepository
	cache    *cache.Client
	source   cache.Source[int64, shop.Shop]
	strategy string
	logger   *logrus.Logger
}

func NewShopService(repo ports.ShopRepository, cacheClient *cache.Client, cfg *ShopServiceConfig, logger *logrus.Logger) (*ShopService, error) {
	strategy := StrategyLogical
	ttl := 30 * time.Minute
	logicalTTL := 20 * time.Second
	codecName := "json"
	var jitter time.Duration
	if cfg != nil {
		jitter = cfg.TTLJitter
		if cfg.Strategy != "" {
			strategy = cfg.Strategy
		}
		if cfg.TTL > 0 {
			ttl = cfg.TTL
		}
		if cfg.LogicalTTL > 0 {
			logicalTTL = cfg.LogicalTTL
		}
		if cfg.Codec != "" {
			codecName = cfg.Codec
		}
	}
	switch strategy {
	case StrategyPassThrough, StrategyMutex, StrategyLogical:
	default:
		return nil, fmt.Errorf("unknown shop cache strategy %q", strategy)
	}
	codec, err := cache.CodecFor[shop.Shop](codecName)
	if err != nil {
		return nil, err
	}

	s := &ShopService{repo: repo, cache: cacheClient, strategy: strategy, logger: logger}
	s.source = cache.Source[int64, shop.Shop]{
		KeyPrefix:  "cache:shop:",
		LockPrefix: "shop:",
		Schema:     "shop.v1",
		Codec:      codec,
		TTL:        ttl,
		TTLJitter:  jitter,
		LogicalTTL: logicalTTL,
		Load:       s.load,
	}
	return s, nil
}

func (s *ShopService) load(ctx context.Context, id int64) (shop.Shop, bool, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ports.ErrShopNotFound) {
		return shop.Shop{}, false, nil
	}
	if err != nil {
		return shop.Shop{}, false, err
	}
	return *sh, true, nil
}

// GetShop reads a shop through the configured cache strategy.
func (s *ShopService) GetShop(ctx context.Context, id int64) (*shop.Shop, error) {
	var (
		sh    shop.Shop
		found bool
		err   error
	)
	switch s.strategy {
	case StrategyPassThrough:
		sh, found, err = cache.GetWithPassThrough(ctx, s.cache, s.source, id)
	case StrategyMutex:
		sh, found, err = cache.GetWithMutex(ctx, s.cache, s.source, id)
	default:
		sh, found, err = cache.GetWithLogicalExpire(ctx, s.cache, s.source, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop %d: %w", id, err)
	}
	if !found {
		return nil, ports.ErrShopNotFound
	}
	return &sh, nil
}

// CreateShop stores a new shop and drops any not-found marker cached for its id.
func (s *ShopService) CreateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error) {
	if err := req.Validate(false); err != nil {
		return nil, err
	}
	sh := &shop.Shop{}
	req.Apply(sh)
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}
	s.invalidate(ctx, sh.ID)
	return sh, nil
}

// UpdateShop writes the database first and then deletes the cached entry.
func (s *ShopService) UpdateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error) {
	if err := req.Validate(true); err != nil {
		return nil, err
	}
	sh, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Apply(sh)
	if err := s.repo.Update(ctx, sh); err != nil {
		return nil, err
	}
	s.invalidate(ctx, sh.ID)
	return sh, nil
}

func (s *ShopService) invalidate(ctx context.Context, id int64) {
	if err := cache.Invalidate(ctx, s.cache, s.source, id); err != nil && s.logger != nil {
		// the entry will age out; the write itself succeeded
		s.logger.WithError(err).WithField("shop_id", id).Warn("failed to invalidate shop cache")
	}
}

// Warmup writes logical-expiry entries for ids that exist. Missing ids are
// skipped.
func (s *ShopService) Warmup(ctx context.Context, ids []int64) (int, error) {
	written := 0
	for _, id := range ids {
		sh, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, ports.ErrShopNotFound) {
			if s.logger != nil {
				s.logger.WithField("shop_id", id).Warn("warmup: shop not found, skipped")
			}
			continue
		}
		if err != nil {
			return written, fmt.Errorf("warmup shop %d: %w", id, err)
		}
		if err := cache.SetWithLogicalExpire(ctx, s.cache, s.source, id, *sh); err != nil {
			return written, fmt.Errorf("warmup shop %d: %w", id, err)
		}
		written++
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"requested": len(ids), "written": written}).Info("shop cache warmed")
	}
	return written, nil
}

// ShopTypeService serves the shop category list from a null-caching entry.
type ShopTypeService struct {
	repo   ports.ShopTypeRepository
	cache  *cache.Client
	source cache.Source[string, []shop.ShopType]
}

func NewShopTypeService(repo ports.ShopTypeRepository, cacheClient *cache.Client, ttl time.Duration) *ShopTypeService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &ShopTypeService{repo: repo, cache: cacheClient}
	s.source = cache.Source[string, []shop.ShopType]{
		KeyPrefix: "cache:shop-type:",
		Schema:    "shop-type-list.v1",
		Codec:     cache.JSON[[]shop.ShopType]{},
		TTL:       ttl,
		Load: func(ctx context.Context, _ string) ([]shop.ShopType, bool, error) {
			types, err := repo.List(ctx)
			if err != nil {
				return nil, false, err
			}
			return types, len(types) > 0, nil
		},
	}
	return s
}

func (s *ShopTypeService) ListShopTypes(ctx context.Context) ([]shop.ShopType, error) {
	types, found, err := cache.GetWithPassThrough(ctx, s.cache, s.source, "all")
	if err != nil {
		return nil, fmt.Errorf("failed to list shop types: %w", err)
	}
	if !found {
		return []shop.ShopType{}, nil
	}
	return types, nil
}

var (
	_ ports.ShopService     = (*ShopService)(nil)
	_ ports.ShopTypeService = (*ShopTypeService)(nil)
)
