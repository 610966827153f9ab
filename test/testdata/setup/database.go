package setup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/zap"
)

// startPostgres launches a throwaway Postgres container and returns a pgx
// pool connected to it. The cleanup closes the pool and purges the container.
func startPostgres(pool *dockertest.Pool, logger *zap.Logger) (*pgxpool.Pool, string, func(), error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_PASSWORD=password",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=opnform_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		logger.Fatal("Could not start postgres container", zap.Error(err))
		return nil, "", nil, err
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://postgres:password@%s/opnform_test?sslmode=disable", hostAndPort)
	logger.Info("Launching Postgres", zap.String("url", databaseURL))

	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("Failed to close probe connection", zap.Error(closeErr))
			}
		}()

		return db.Ping()
	}); err != nil {
		logger.Fatal("Could not connect to postgres container", zap.Error(err))
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Could not parse database URL", zap.Error(err))
		return nil, "", nil, err
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Fatal("Could not create database pool", zap.Error(err))
		return nil, "", nil, err
	}

	cleanup := func() {
		dbPool.Close()

		if err := pool.Purge(resource); err != nil {
			logger.Error("Failed to purge postgres container", zap.Error(err))
		}
	}

	return dbPool, databaseURL, cleanup, nil
}

func startPostgresWithMigrations(pool *dockertest.Pool, logger *zap.Logger, sourceURL string) (*pgxpool.Pool, string, func(), error) {
	dbPool, databaseURL, cleanup, err := startPostgres(pool, logger)
	if err != nil {
		return nil, "", nil, err
	}

	err = databaseutil.MigrationUp(sourceURL, databaseURL, logger)
	if err != nil {
		cleanup()
		logger.Fatal("Failed to apply migrations", zap.Error(err))
		return nil, "", nil, err
	}

	return dbPool, databaseURL, cleanup, nil
}
