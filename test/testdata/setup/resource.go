package setup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ResourceManager owns the containers shared by an integration test package.
// The Postgres container is started once; each test gets its own transaction.
type ResourceManager struct {
	mu     sync.Mutex
	logger *zap.Logger

	pool     *dockertest.Pool
	postgres *pgxpool.Pool

	cleanups []func()
}

func NewResourceManager(logger *zap.Logger) (*ResourceManager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}

	return &ResourceManager{
		pool:     pool,
		logger:   logger,
		cleanups: make([]func(), 0),
	}, nil
}

// SetupPostgres returns a transaction on the shared migrated database. The
// returned cleanup rolls the transaction back and should be deferred.
func (r *ResourceManager) SetupPostgres() (pgx.Tx, func(), error) {
	r.mu.Lock()
	if r.postgres == nil {
		pool, _, cleanup, err := startPostgresWithMigrations(r.pool, r.logger, "file://../../../internal/database/migrations")
		if err != nil {
			r.mu.Unlock()
			return nil, nil, err
		}

		r.postgres = pool
		r.cleanups = append(r.cleanups, cleanup)
	}
	r.mu.Unlock()

	tx, err := r.postgres.Begin(context.Background())
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		err := tx.Rollback(context.Background())
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.logger.Error("Failed to rollback transaction", zap.Error(err))
		}
	}

	return tx, cleanup, nil
}

// WithPostgresTx runs fn inside a transaction that is always rolled back, so
// tests stay isolated from each other.
func (r *ResourceManager) WithPostgresTx(t *testing.T, fn func(tx pgx.Tx)) {
	tx, cleanup, err := r.SetupPostgres()
	require.NoError(t, err)
	defer cleanup()

	fn(tx)
}

func (r *ResourceManager) Cleanup() {
	for _, c := range r.cleanups {
		c()
	}
}
