package ports

import "errors"

var (
	ErrShopNotFound    = errors.New("shop not found")
	ErrVoucherNotFound = errors.New("seckill voucher not found")
	ErrDuplicateOrder  = errors.New("order already exists for user and voucher")
)
