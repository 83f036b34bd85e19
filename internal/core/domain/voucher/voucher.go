package voucher

import (
	"errors"
	"time"
)

// SeckillVoucher is the limited-quantity part of a voucher. Stock is owned by
// the database and only ever decremented with a guarded UPDATE.
type SeckillVoucher struct {
	VoucherID int64     `json:"voucher_id" db:"voucher_id" msgpack:"voucher_id" cbor:"voucher_id"`
	Stock     int       `json:"stock" db:"stock" msgpack:"stock" cbor:"stock"`
	BeginTime time.Time `json:"begin_time" db:"begin_time" msgpack:"begin_time" cbor:"begin_time"`
	EndTime   time.Time `json:"end_time" db:"end_time" msgpack:"end_time" cbor:"end_time"`
	CreatedAt time.Time `json:"created_at" db:"create_time" msgpack:"created_at" cbor:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"update_time" msgpack:"updated_at" cbor:"updated_at"`
}

// Eligibility reports why an order cannot be placed at now, or RejectionNone.
// The stock check is advisory: it may run against a cached copy.
func (v *SeckillVoucher) Eligibility(now time.Time) Rejection {
	if now.Before(v.BeginTime) {
		return RejectionNotStarted
	}
	if !v.EndTime.IsZero() && now.After(v.EndTime) {
		return RejectionEnded
	}
	if v.Stock < 1 {
		return RejectionSoldOut
	}
	return RejectionNone
}

// Order is immutable once inserted.
type Order struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	VoucherID int64     `json:"voucher_id" db:"voucher_id"`
	CreatedAt time.Time `json:"created_at" db:"create_time"`
}

type CreateSeckillVoucherRequest struct {
	VoucherID int64     `json:"voucher_id"`
	Stock     int       `json:"stock"`
	BeginTime time.Time `json:"begin_time"`
	EndTime   time.Time `json:"end_time"`
}

var (
	ErrInvalidVoucherID = errors.New("voucher id must be positive")
	ErrInvalidStock     = errors.New("stock must not be negative")
	ErrInvalidWindow    = errors.New("end time must be after begin time")
)

func (r *CreateSeckillVoucherRequest) Validate() error {
	if r.VoucherID <= 0 {
		return ErrInvalidVoucherID
	}
	if r.Stock < 0 {
		return ErrInvalidStock
	}
	if !r.EndTime.IsZero() && !r.EndTime.After(r.BeginTime) {
		return ErrInvalidWindow
	}
	return nil
}
