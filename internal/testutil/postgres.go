package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bibbank/profileguard/internal/infrastructure/postgres"
)

// HistoryDB is a migrated, throwaway history database.
type HistoryDB struct {
	Pool *pgxpool.Pool
	DSN  string
}

// StartPostgres runs a disposable PostgreSQL container, applies the
// embedded history migrations and opens a pool. Teardown is registered
// with t.Cleanup.
func StartPostgres(t *testing.T) HistoryDB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("profileguard_test"),
		tcpostgres.WithUsername("profileguard"),
		tcpostgres.WithPassword("profileguard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
		defer stop()
		if err := ctr.Terminate(stopCtx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.RunMigrations(dsn, ""), "apply history migrations")

	pool, err := postgres.Open(ctx, postgres.PoolConfig{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return HistoryDB{Pool: pool, DSN: dsn}
}
