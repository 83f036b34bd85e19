package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/domain/voucher"
	"github.com/Baize0412/hm-dianping/internal/core/ports"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/db"
)

const pqUniqueViolation = "23505"

// SeckillVoucherRepository implements the seckill voucher repository interface
type SeckillVoucherRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewSeckillVoucherRepository(database *db.Database, logger *logrus.Logger) ports.SeckillVoucherRepository {
	return &SeckillVoucherRepository{
		db:     database,
		logger: logger,
	}
}

// GetByID retrieves a seckill voucher; a NULL end time maps to the zero time.
func (r *SeckillVoucherRepository) GetByID(ctx context.Context, voucherID int64) (*voucher.SeckillVoucher, error) {
	var v voucher.SeckillVoucher
	var end sql.NullTime

	query := `
		SELECT voucher_id, stock, begin_time, end_time, create_time, update_time
		FROM tb_seckill_voucher
		WHERE voucher_id = $1`

	err := r.db.DB.QueryRowContext(ctx, query, voucherID).Scan(
		&v.VoucherID, &v.Stock, &v.BeginTime, &end, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to get seckill voucher: %w", err)
	}
	if end.Valid {
		v.EndTime = end.Time
	}
	return &v, nil
}

// Create inserts a seckill voucher
func (r *SeckillVoucherRepository) Create(ctx context.Context, v *voucher.SeckillVoucher) error {
	var end sql.NullTime
	if !v.EndTime.IsZero() {
		end = sql.NullTime{Time: v.EndTime, Valid: true}
	}

	query := `
		INSERT INTO tb_seckill_voucher (voucher_id, stock, begin_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING create_time, update_time`

	err := r.db.DB.QueryRowContext(ctx, query, v.VoucherID, v.Stock, v.BeginTime, end).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create seckill voucher: %w", err)
	}
	return nil
}

// VoucherOrderStore runs the order statements in one database transaction.
type VoucherOrderStore struct {
	db *db.Database
}

func NewVoucherOrderStore(database *db.Database) ports.VoucherOrderStore {
	return &VoucherOrderStore{db: database}
}

// InTx implements VoucherOrderStore.InTx.
func (s *VoucherOrderStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.VoucherOrderTx) error) error {
	return s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, &voucherOrderTx{tx: tx})
	})
}

type voucherOrderTx struct {
	tx *sqlx.Tx
}

func (t *voucherOrderTx) ExistsOrder(ctx context.Context, userID, voucherID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tb_voucher_order WHERE user_id = $1 AND voucher_id = $2)`
	if err := t.tx.GetContext(ctx, &exists, query, userID, voucherID); err != nil {
		return false, fmt.Errorf("failed to check existing order: %w", err)
	}
	return exists, nil
}

func (t *voucherOrderTx) DecrementStock(ctx context.Context, voucherID int64) (bool, error) {
	query := `
		UPDATE tb_seckill_voucher
		SET stock = stock - 1, update_time = NOW()
		WHERE voucher_id = $1 AND stock > 0`

	res, err := t.tx.ExecContext(ctx, query, voucherID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (t *voucherOrderTx) InsertOrder(ctx context.Context, o *voucher.Order) error {
	query := `
		INSERT INTO tb_voucher_order (id, user_id, voucher_id)
		VALUES ($1, $2, $3)
		RETURNING create_time`

	err := t.tx.QueryRowxContext(ctx, query, o.ID, o.UserID, o.VoucherID).Scan(&o.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ports.ErrDuplicateOrder
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}
