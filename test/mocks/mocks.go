package mocks

import (
	"context"
	"fmt"

	"github.com/Baize0412/hm-dianping/internal/core/domain/shop"
	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

// ShopRepositoryMock is a lightweight mock for ShopRepository
type ShopRepositoryMock struct {
	GetByIDFn func(ctx context.Context, id int64) (*shop.Shop, error)
	CreateFn  func(ctx context.Context, s *shop.Shop) error
	UpdateFn  func(ctx context.Context, s *shop.Shop) error
}

func (m *ShopRepositoryMock) GetByID(ctx context.Context, id int64) (*shop.Shop, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ports.ErrShopNotFound
}
func (m *ShopRepositoryMock) Create(ctx context.Context, s *shop.Shop) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}
func (m *ShopRepositoryMock) Update(ctx context.Context, s *shop.Shop) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, s)
	}
	return nil
}

// ShopTypeRepositoryMock is a lightweight mock for ShopTypeRepository
type ShopTypeRepositoryMock struct {
	ListFn func(ctx context.Context) ([]shop.ShopType, error)
}

func (m *ShopTypeRepositoryMock) List(ctx context.Context) ([]shop.ShopType, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

// SeckillVoucherRepositoryMock is a lightweight mock for SeckillVoucherRepository
type SeckillVoucherRepositoryMock struct {
	GetByIDFn func(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error)
	CreateFn  func(ctx context.Context, v *voucher.SeckillVoucher) error
}

func (m *SeckillVoucherRepositoryMock) GetByID(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, voucherID)
	}
	return nil, ports.ErrVoucherNotFound
}
func (m *SeckillVoucherRepositoryMock) Create(ctx context.Context, v *voucher.SeckillVoucher) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, v)
	}
	return nil
}

// ShopServiceMock is a lightweight mock for ShopService
type ShopServiceMock struct {
	GetShopFn    func(ctx context.Context, id int64) (*shop.Shop, error)
	CreateShopFn func(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error)
	UpdateShopFn func(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error)
	WarmupFn     func(ctx context.Context, ids []int64) (int, error)
}

func (m *ShopServiceMock) GetShop(ctx context.Context, id int64) (*shop.Shop, error) {
	if m.GetShopFn != nil {
		return m.GetShopFn(ctx, id)
	}
	return nil, ports.ErrShopNotFound
}
func (m *ShopServiceMock) CreateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error) {
	if m.CreateShopFn != nil {
		return m.CreateShopFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *ShopServiceMock) UpdateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error) {
	if m.UpdateShopFn != nil {
		return m.UpdateShopFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *ShopServiceMock) Warmup(ctx context.Context, ids []int64) (int, error) {
	if m.WarmupFn != nil {
		return m.WarmupFn(ctx, ids)
	}
	return 0, nil
}

// ShopTypeServiceMock is a lightweight mock for ShopTypeService
type ShopTypeServiceMock struct {
	ListShopTypesFn func(ctx context.Context) ([]shop.ShopType, error)
}

func (m *ShopTypeServiceMock) ListShopTypes(ctx context.Context) ([]shop.ShopType, error) {
	if m.ListShopTypesFn != nil {
		return m.ListShopTypesFn(ctx)
	}
	return []shop.ShopType{}, nil
}

// VoucherServiceMock is a lightweight mock for VoucherService
type VoucherServiceMock struct {
	GetSeckillVoucherFn    func(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error)
	CreateSeckillVoucherFn func(ctx context.Context, req *voucher.CreateSeckillVoucherRequest) (*voucher.SeckillVoucher, error)
}

func (m *VoucherServiceMock) GetSeckillVoucher(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error) {
	if m.GetSeckillVoucherFn != nil {
		return m.GetSeckillVoucherFn(ctx, voucherID)
	}
	return nil, ports.ErrVoucherNotFound
}
func (m *VoucherServiceMock) CreateSeckillVoucher(ctx context.Context, req *voucher.CreateSeckillVoucherRequest) (*voucher.SeckillVoucher, error) {
	if m.CreateSeckillVoucherFn != nil {
		return m.CreateSeckillVoucherFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

// SeckillServiceMock is a lightweight mock for SeckillService
type SeckillServiceMock struct {
	PlaceOrderFn func(ctx context.Context, userID, voucherID int64) (voucher.SeckillResult, error)
}

func (m *SeckillServiceMock) PlaceOrder(ctx context.Context, userID, voucherID int64) (voucher.SeckillResult, error) {
	if m.PlaceOrderFn != nil {
		return m.PlaceOrderFn(ctx, userID, voucherID)
	}
	return voucher.Rejected(voucher.RejectionNotFound), nil
}

// HealthCheckerMock reports a fixed result.
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                { return m.NameValue }
func (m *HealthCheckerMock) Check(context.Context) error { return m.Err }

var (
	_ ports.ShopRepository           = (*ShopRepositoryMock)(nil)
	_ ports.ShopTypeRepository       = (*ShopTypeRepositoryMock)(nil)
	_ ports.SeckillVoucherRepository = (*SeckillVoucherRepositoryMock)(nil)
	_ ports.ShopService              = (*ShopServiceMock)(nil)
	_ ports.ShopTypeService          = (*ShopTypeServiceMock)(nil)
	_ ports.VoucherService           = (*VoucherServiceMock)(nil)
	_ ports.SeckillService           = (*SeckillServiceMock)(nil)
	_ ports.HealthChecker            = (*HealthCheckerMock)(nil)
)
