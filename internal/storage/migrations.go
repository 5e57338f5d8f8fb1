// Package storage applies the embedded schema migrations to a database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/migrations"
)

var ErrMigrationFailed = errors.New("migration failed")

// Dialect holds the SQL that differs between the supported databases.
type Dialect struct {
	// Dir is the directory of the embedded migrations for this dialect.
	Dir string

	createVersionsTable string
	insertVersion       string
}

var (
	DialectPostgres = Dialect{
		Dir: "postgres",
		createVersionsTable: `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)
`,
		insertVersion: `
INSERT INTO schema_migrations (version, applied_at)
VALUES ($1, $2)
`,
	}

	DialectSQLite = Dialect{
		Dir: "sqlite",
		createVersionsTable: `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)
`,
		insertVersion: `
INSERT INTO schema_migrations (version, applied_at)
VALUES (?, ?)
`,
	}
)

type MigrationRunner struct {
	logger  zerolog.Logger
	db      *sql.DB
	dialect Dialect
	fsys    fs.FS
}

func NewMigrationRunner(logger zerolog.Logger, db *sql.DB, dialect Dialect) *MigrationRunner {
	return &MigrationRunner{
		logger:  logger,
		db:      db,
		dialect: dialect,
		fsys:    migrations.FS,
	}
}

type migration struct {
	version string
	name    string
	content []byte
}

// Run applies every migration that is not yet recorded in
// schema_migrations. Each migration runs in its own transaction.
func (r *MigrationRunner) Run(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, r.dialect.createVersionsTable)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to create migrations table")
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select applied migrations")
		return fmt.Errorf("select applied migrations: %w", err)
	}

	pending, err := r.migrationFiles()
	if err != nil {
		return err
	}

	count := 0
	for _, m := range pending {
		if applied[m.version] {
			continue
		}

		err = r.apply(ctx, m)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("migration", m.name).
				Msg("failed to apply migration")
			return fmt.Errorf("%w: %s: %w", ErrMigrationFailed, m.name, err)
		}
		r.logger.Debug().
			Str("migration", m.name).
			Msg("applied migration")
		count++
	}

	r.logger.Info().
		Str("dialect", r.dialect.Dir).
		Int("applied", count).
		Msg("migrated database")
	return nil
}

func (r *MigrationRunner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	const selectVersionsQuery = `SELECT version FROM schema_migrations`
	rows, err := r.db.QueryContext(ctx, selectVersionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		err = rows.Scan(&version)
		if err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// migrationFiles returns the dialect's *.up.sql files sorted by version.
// File names look like "000001_create_todos.up.sql".
func (r *MigrationRunner) migrationFiles() ([]migration, error) {
	entries, err := fs.ReadDir(r.fsys, r.dialect.Dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", r.dialect.Dir, err)
	}

	var list []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		version, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		content, err := fs.ReadFile(r.fsys, path.Join(r.dialect.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		list = append(list, migration{
			version: version,
			name:    strings.TrimSuffix(name, ".up.sql"),
			content: content,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].version < list[j].version
	})
	return list, nil
}

func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, string(m.content))
	if err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}

	_, err = tx.ExecContext(ctx, r.dialect.insertVersion, m.version, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
