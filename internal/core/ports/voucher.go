package ports

import (
	"context"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
)

// SeckillVoucherRepository reads and creates seckill voucher rows.
type SeckillVoucherRepository interface {
	// GetByID returns ErrVoucherNotFound when no row matches.
	GetByID(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error)
	Create(ctx context.Context, v *voucher.SeckillVoucher) error
}

// VoucherOrderStore scopes a unit of work in one database transaction.
// fn's error rolls the transaction back; a nil return commits it.
type VoucherOrderStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx VoucherOrderTx) error) error
}

// VoucherOrderTx is the set of statements the order path issues inside a transaction.
type VoucherOrderTx interface {
	ExistsOrder(ctx context.Context, userID, voucherID int64) (bool, error)
	// DecrementStock runs stock = stock - 1 guarded by stock > 0 and reports
	// whether a row changed.
	DecrementStock(ctx context.Context, voucherID int64) (bool, error)
	// InsertOrder returns ErrDuplicateOrder on a (user, voucher) conflict.
	InsertOrder(ctx context.Context, o *voucher.Order) error
}

type VoucherService interface {
	GetSeckillVoucher(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error)
	CreateSeckillVoucher(ctx context.Context, req *voucher.CreateSeckillVoucherRequest) (*voucher.SeckillVoucher, error)
}

// SeckillService places flash-sale orders. Business rejections come back in the
// result; the error is reserved for infrastructure faults.
type SeckillService interface {
	PlaceOrder(ctx context.Context, userID, voucherID int64) (voucher.SeckillResult, error)
}
