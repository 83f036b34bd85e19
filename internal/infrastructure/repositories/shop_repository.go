package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/domain/shop"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/db"
)

const shopColumns = `id, name, type_id, images, area, address, x, y, avg_price, sold, comments, score, open_hours, create_time, update_time`

// ShopRepository implements the shop repository interface
type ShopRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewShopRepository creates a new shop repository
func NewShopRepository(database *db.Database, logger *logrus.Logger) ports.ShopRepository {
	return &ShopRepository{
		db:     database,
		logger: logger,
	}
}

// GetByID retrieves a shop by ID
func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*shop.Shop, error) {
	var s shop.Shop
	query := `SELECT ` + shopColumns + ` FROM tb_shop WHERE id = $1`
	if err := r.db.DB.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &s, nil
}

// Create inserts a shop and fills in its generated id and timestamps
func (r *ShopRepository) Create(ctx context.Context, s *shop.Shop) error {
	query := `
		INSERT INTO tb_shop (name, type_id, images, area, address, x, y, avg_price, open_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, create_time, update_time`

	err := r.db.DB.QueryRowContext(ctx, query,
		s.Name, s.TypeID, s.Images, s.Area, s.Address, s.X, s.Y, s.AvgPrice, s.OpenHours,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}
	return nil
}

// Update overwrites the editable columns of an existing shop
func (r *ShopRepository) Update(ctx context.Context, s *shop.Shop) error {
	query := `
		UPDATE tb_shop
		SET name = $1, type_id = $2, images = $3, area = $4, address = $5,
		    x = $6, y = $7, avg_price = $8, open_hours = $9, update_time = NOW()
		WHERE id = $10
		RETURNING update_time`

	err := r.db.DB.QueryRowContext(ctx, query,
		s.Name, s.TypeID, s.Images, s.Area, s.Address, s.X, s.Y, s.AvgPrice, s.OpenHours, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.ErrShopNotFound
		}
		return fmt.Errorf("failed to update shop: %w", err)
	}
	return nil
}

// ShopTypeRepository implements the shop type repository interface
type ShopTypeRepository struct {
	db *db.Database
}

func NewShopTypeRepository(database *db.Database) ports.ShopTypeRepository {
	return &ShopTypeRepository{db: database}
}

// List returns every shop type ordered by sort
func (r *ShopTypeRepository) List(ctx context.Context) ([]shop.ShopType, error) {
	types := []shop.ShopType{}
	query := `SELECT id, name, icon, sort FROM tb_shop_type ORDER BY sort ASC, id ASC`
	if err := r.db.DB.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("failed to list shop types: %w", err)
	}
	return types, nil
}
