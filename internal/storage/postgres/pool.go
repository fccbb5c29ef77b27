package postgres

import (
	"context"
	"fmt"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgx connection pool from the application configuration.
// The single pool is shared by every repository in the process.
func NewPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.Postgres.Pool.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.Pool.MaxConns)
	}
	if cfg.Postgres.Pool.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.Postgres.Pool.MinConns)
	}
	if cfg.Postgres.Pool.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Postgres.Pool.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	return pool, nil
}
