package health_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	infraDB "github.com/Baize0412/hm-dianping/internal/infrastructure/db"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/health"
)

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	hc := health.NewRedisHealthChecker(client)
	require.Equal(t, "redis", hc.Name())
	require.NoError(t, hc.Check(context.Background()))

	mr.Close()
	require.Error(t, hc.Check(context.Background()))
}

func TestDBHealthChecker(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	mock.ExpectPing()

	hc := health.NewDBHealthChecker(&infraDB.Database{DB: sqlx.NewDb(raw, "postgres")})
	require.Equal(t, "database", hc.Name())
	require.NoError(t, hc.Check(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
