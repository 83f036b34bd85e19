package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Baize0412/hm-dianping/internal/infrastructure/db"
)

func newMockDB(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return &db.Database{DB: sqlx.NewDb(raw, "postgres")}, mock
}

func TestInTx_Commits(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tb_seckill_voucher").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := d.InTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE tb_seckill_voucher SET stock = stock - 1")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := d.InTx(context.Background(), func(tx *sqlx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = d.InTx(context.Background(), func(tx *sqlx.Tx) error { panic("boom") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_CommitFailure(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := d.InTx(context.Background(), func(tx *sqlx.Tx) error { return nil })
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
