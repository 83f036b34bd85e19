package ports

import (
	"context"

	"github.com/Baize0412/hm-dianping/internal/core/domain/shop"
)

// ShopRepository defines the interface for shop data operations
type ShopRepository interface {
	// GetByID returns ErrShopNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*shop.Shop, error)
	Create(ctx context.Context, s *shop.Shop) error
	Update(ctx context.Context, s *shop.Shop) error
}

// ShopTypeRepository lists shop categories ordered by sort.
type ShopTypeRepository interface {
	List(ctx context.Context) ([]shop.ShopType, error)
}

// ShopService defines the interface for shop business logic
type ShopService interface {
	GetShop(ctx context.Context, id int64) (*shop.Shop, error)
	CreateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error)
	UpdateShop(ctx context.Context, req *shop.SaveShopRequest) (*shop.Shop, error)
	// Warmup preloads logical-expiry entries for ids; it returns how many were written.
	Warmup(ctx context.Context, ids []int64) (int, error)
}

type ShopTypeService interface {
	ListShopTypes(ctx context.Context) ([]shop.ShopType, error)
}
