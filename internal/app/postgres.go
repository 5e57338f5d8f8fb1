package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/adanyl0v/go-todo-api/internal/services"
	"github.com/adanyl0v/go-todo-api/internal/storage"
)

func (a *App) connectPostgres(ctx context.Context) error {
	cfg := a.cfg.Postgres

	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		return fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		return fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(pingCtx)
	if err != nil {
		pool.Close()
		a.logger.Error().
			Err(err).
			Msg("failed to ping postgres")
		return fmt.Errorf("ping postgres: %w", err)
	}
	a.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")

	a.pgPool = pool
	a.db = stdlib.OpenDBFromPool(pool)
	a.todos = services.NewTodoService(a.logger, pool, nil)
	a.migrator = storage.NewMigrationRunner(a.logger, a.db, storage.DialectPostgres)
	return nil
}
