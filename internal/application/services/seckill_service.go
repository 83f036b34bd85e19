package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/metrics"
)

// SeckillConfig groups the per-user lock and id settings of the order path.
type SeckillConfig struct {
	LockLease    time.Duration
	LockWait     time.Duration
	LockAttempts int
	OrderIDScope string
}

// SeckillService places flash-sale orders in two phases. The outer phase
// checks eligibility against the cached voucher and takes the per-user lock;
// the inner phase runs in one transaction and is the only place stock moves.
type SeckillService struct {
	vouchers ports.VoucherService
	orders   ports.VoucherOrderStore
	locker   ports.Locker
	ids      ports.IDGenerator
	clock    ports.Clock
	cfg      SeckillConfig
	logger   *logrus.Logger
}

func NewSeckillService(vouchers ports.VoucherService, orders ports.VoucherOrderStore, locker ports.Locker, ids ports.IDGenerator, clock ports.Clock, cfg *SeckillConfig, logger *logrus.Logger) *SeckillService {
	c := SeckillConfig{
		LockLease:    10 * time.Second,
		LockWait:     20 * time.Millisecond,
		LockAttempts: 100,
		OrderIDScope: "order",
	}
	if cfg != nil {
		if cfg.LockLease > 0 {
			c.LockLease = cfg.LockLease
		}
		if cfg.LockWait > 0 {
			c.LockWait = cfg.LockWait
		}
		if cfg.LockAttempts > 0 {
			c.LockAttempts = cfg.LockAttempts
		}
		if cfg.OrderIDScope != "" {
			c.OrderIDScope = cfg.OrderIDScope
		}
	}
	return &SeckillService{vouchers: vouchers, orders: orders, locker: locker, ids: ids, clock: clock, cfg: c, logger: logger}
}

// rejected carries a business rejection out of the transaction so it rolls back.
type rejected struct{ reason voucher.Rejection }

func (r rejected) Error() string { return string(r.reason) }

// PlaceOrder implements SeckillService.PlaceOrder.
func (s *SeckillService) PlaceOrder(ctx context.Context, userID, voucherID int64) (voucher.SeckillResult, error) {
	res, err := s.placeOrder(ctx, userID, voucherID)
	switch {
	case err != nil:
		metrics.SeckillOrder("error")
	case res.OK():
		metrics.SeckillOrder("ok")
	default:
		metrics.SeckillOrder(string(res.Rejection))
	}
	return res, err
}

func (s *SeckillService) placeOrder(ctx context.Context, userID, voucherID int64) (voucher.SeckillResult, error) {
	v, err := s.vouchers.GetSeckillVoucher(ctx, voucherID)
	if errors.Is(err, ports.ErrVoucherNotFound) {
		return voucher.Rejected(voucher.RejectionNotFound), nil
	}
	if err != nil {
		return voucher.SeckillResult{}, err
	}
	if reason := v.Eligibility(s.clock.Now()); reason != voucher.RejectionNone {
		return voucher.Rejected(reason), nil
	}

	token, ok, err := s.lockUser(ctx, userID)
	if err != nil {
		return voucher.SeckillResult{}, err
	}
	if !ok {
		return voucher.Rejected(voucher.RejectionBusy), nil
	}
	// released after InTx has committed or rolled back
	defer s.unlock(ctx, token)

	var orderID int64
	err = s.orders.InTx(ctx, func(ctx context.Context, tx ports.VoucherOrderTx) error {
		exists, err := tx.ExistsOrder(ctx, userID, voucherID)
		if err != nil {
			return err
		}
		if exists {
			return rejected{voucher.RejectionAlreadyPurchased}
		}

		decremented, err := tx.DecrementStock(ctx, voucherID)
		if err != nil {
			return err
		}
		if !decremented {
			return rejected{voucher.RejectionSoldOut}
		}

		id, err := s.ids.NextID(ctx, s.cfg.OrderIDScope)
		if err != nil {
			return err
		}
		o := &voucher.Order{ID: id, UserID: userID, VoucherID: voucherID}
		if err := tx.InsertOrder(ctx, o); err != nil {
			if errors.Is(err, ports.ErrDuplicateOrder) {
				return rejected{voucher.RejectionAlreadyPurchased}
			}
			return err
		}
		orderID = id
		return nil
	})

	var rej rejected
	if errors.As(err, &rej) {
		return voucher.Rejected(rej.reason), nil
	}
	if err != nil {
		return voucher.SeckillResult{}, fmt.Errorf("seckill order for user %d voucher %d: %w", userID, voucherID, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id":   orderID,
			"user_id":    userID,
			"voucher_id": voucherID,
		}).Info("seckill: order created")
	}
	return voucher.Placed(orderID), nil
}

// lockUser polls the per-user lock so that a user's concurrent requests run
// one after another instead of failing fast.
func (s *SeckillService) lockUser(ctx context.Context, userID int64) (ports.LockToken, bool, error) {
	name := "order:" + strconv.FormatInt(userID, 10)
	for attempt := 0; attempt < s.cfg.LockAttempts; attempt++ {
		token, ok, err := s.locker.TryLock(ctx, name, s.cfg.LockLease)
		if err != nil {
			return ports.LockToken{}, false, err
		}
		if ok {
			return token, true, nil
		}
		t := time.NewTimer(s.cfg.LockWait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ports.LockToken{}, false, ctx.Err()
		case <-t.C:
		}
	}
	return ports.LockToken{}, false, nil
}

func (s *SeckillService) unlock(ctx context.Context, token ports.LockToken) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LockLease)
	defer cancel()
	if err := s.locker.Unlock(ctx, token); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("lock", token.Key).Warn("seckill: failed to release user lock")
	}
}

var _ ports.SeckillService = (*SeckillService)(nil)
