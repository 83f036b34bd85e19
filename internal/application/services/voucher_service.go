package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/cache"
)

// VoucherService reads seckill vouchers through a short-lived null-caching
// entry. The cached stock only gates obviously sold-out requests; the order
// transaction re-checks it.
type VoucherService struct {
	repo   ports.SeckillVoucherRepository
	cache  *cache.Client
	source cache.Source[int64, voucher.SeckillVoucher]
	logger *logrus.Logger
}

func NewVoucherService(repo ports.SeckillVoucherRepository, cacheClient *cache.Client, ttl time.Duration, logger *logrus.Logger) *VoucherService {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &VoucherService{
		repo:   repo,
		cache:  cacheClient,
		logger: logger,
		source: cache.Source[int64, voucher.SeckillVoucher]{
			KeyPrefix: "cache:seckill-voucher:",
			Schema:    "seckill-voucher.v1",
			Codec:     cache.Msgpack[voucher.SeckillVoucher]{},
			TTL:       ttl,
			Load: func(ctx context.Context, id int64) (voucher.SeckillVoucher, bool, error) {
				v, err := repo.GetByID(ctx, id)
				if errors.Is(err, ports.ErrVoucherNotFound) {
					return voucher.SeckillVoucher{}, false, nil
				}
				if err != nil {
					return voucher.SeckillVoucher{}, false, err
				}
				return *v, true, nil
			},
		},
	}
}

func (s *VoucherService) GetSeckillVoucher(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error) {
	v, found, err := cache.GetWithPassThrough(ctx, s.cache, s.source, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seckill voucher %d: %w", voucherID, err)
	}
	if !found {
		return nil, ports.ErrVoucherNotFound
	}
	return &v, nil
}

func (s *VoucherService) CreateSeckillVoucher(ctx context.Context, req *voucher.CreateSeckillVoucherRequest) (*voucher.SeckillVoucher, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	v := &voucher.SeckillVoucher{
		VoucherID: req.VoucherID,
		Stock:     req.Stock,
		BeginTime: req.BeginTime.UTC(),
		EndTime:   req.EndTime.UTC(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	if err := cache.Invalidate(ctx, s.cache, s.source, v.VoucherID); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("voucher_id", v.VoucherID).Warn("failed to invalidate voucher cache")
	}
	return v, nil
}

var _ ports.VoucherService = (*VoucherService)(nil)
