package app

import (
	"context"

	"github.com/adanyl0v/go-todo-api/internal/services"
	"github.com/adanyl0v/go-todo-api/internal/storage"
)

func (a *App) connectSQLite(ctx context.Context) error {
	path := a.cfg.SQLite.Path

	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to open sqlite")
		return err
	}
	a.logger.Info().
		Str("path", path).
		Msg("opened sqlite")

	a.db = db
	a.todos = services.NewSQLiteTodoService(a.logger, db, nil)
	a.migrator = storage.NewMigrationRunner(a.logger, db, storage.DialectSQLite)
	return nil
}
