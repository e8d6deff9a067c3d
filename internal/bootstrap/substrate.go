package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexumi/nexumi-core/internal/config"
	"github.com/nexumi/nexumi-core/internal/database"
	"github.com/nexumi/nexumi-core/internal/database/memory"
	"github.com/nexumi/nexumi-core/internal/database/postgres"
	"github.com/nexumi/nexumi-core/internal/repository"
)

// Substrate is the opened document store. Pool is nil for the memory driver.
type Substrate struct {
	Docs repository.Documents
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any
func (s *Substrate) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenPool connects to the configured Postgres database
func OpenPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.GetDBConnString(), database.PoolConfig{
		MaxConns:    cfg.DBMaxConns,
		MaxIdle:     cfg.DBMaxConnIdle,
		MaxLifetime: cfg.DBMaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenDatabase, err)
	}
	return pool, nil
}

// OpenSubstrate opens the document store selected by STORE_DRIVER. For
// Postgres it applies pending migrations and creates every planned index, so
// uniqueness is enforced before the first write is accepted.
func OpenSubstrate(ctx context.Context, cfg *config.Config) (*Substrate, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		slog.Info(LogMsgSubstrateReady, "driver", cfg.StoreDriver)
		return &Substrate{Docs: memory.NewStore()}, nil

	case config.StoreDriverPostgres:
		pool, err := OpenPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateUp(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		docs := postgres.NewDocuments(pool)
		if err := docs.EnsureIndexes(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedEnsureIndexes, err)
		}
		slog.Info(LogMsgSubstrateReady, "driver", cfg.StoreDriver)
		return &Substrate{Docs: docs, Pool: pool}, nil

	default:
		return nil, fmt.Errorf("%s: %q", ErrMsgUnknownStoreDriver, cfg.StoreDriver)
	}
}
