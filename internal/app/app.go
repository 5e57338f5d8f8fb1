// Package app wires the configuration, the storage and the HTTP server
// together.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/internal/config"
	"github.com/adanyl0v/go-todo-api/internal/services"
	"github.com/adanyl0v/go-todo-api/internal/storage"
)

type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	pgPool *pgxpool.Pool
	// db is the database/sql handle migrations run on. For postgres it
	// wraps pgPool, for sqlite it is the only handle.
	db *sql.DB

	todos    services.TodoService
	migrator *storage.MigrationRunner
}

func New(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// ConnectStorage opens the storage selected by the config and builds
// the todo service on top of it.
func (a *App) ConnectStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		return a.connectPostgres(ctx)
	case config.DriverSQLite:
		return a.connectSQLite(ctx)
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownDriver, a.cfg.Storage.Driver)
	}
}

func (a *App) Migrate(ctx context.Context) error {
	return a.migrator.Run(ctx)
}

func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.pgPool != nil {
		a.pgPool.Close()
		a.logger.Info().Msg("disconnected from postgres")
	}
}
