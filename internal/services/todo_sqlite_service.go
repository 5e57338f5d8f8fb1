package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/adanyl0v/go-todo-api/internal/models"
)

// SQLite keeps create_at as TEXT in this layout.
const sqliteDateLayout = time.DateOnly

type sqliteTodoServiceImpl struct {
	logger zerolog.Logger
	db     *sql.DB
	now    Clock
}

// NewSQLiteTodoService returns a TodoService backed by SQLite.
// A nil clock means time.Now.
func NewSQLiteTodoService(
	logger zerolog.Logger,
	db *sql.DB,
	clock Clock,
) TodoService {
	if clock == nil {
		clock = time.Now
	}
	return &sqliteTodoServiceImpl{
		logger: logger,
		db:     db,
		now:    clock,
	}
}

func (s *sqliteTodoServiceImpl) CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error) {
	err := validateTodoName(params.Name)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("invalid todo")
		return nil, err
	}

	todo := &models.Todo{
		Name:     params.Name,
		Done:     params.Done,
		CreateAt: today(s.now()),
	}

	const insertTodoQuery = `
INSERT INTO todos (name,
                   done,
                   create_at)
VALUES (?, ?, ?)
`
	res, err := s.db.ExecContext(
		ctx,
		insertTodoQuery,
		todo.Name,
		todo.Done,
		todo.CreateAt.Format(sqliteDateLayout),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert todo")
		return nil, classifySQLiteError(err)
	}

	todo.ID, err = res.LastInsertId()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to get inserted todo id")
		return nil, err
	}

	s.logger.Info().
		Int64("todo_id", todo.ID).
		Msg("created todo")
	return todo, nil
}

func (s *sqliteTodoServiceImpl) GetTodo(ctx context.Context, id int64) (*models.Todo, error) {
	const selectTodoByIDQuery = `
SELECT id,
       name,
       done,
       create_at
FROM todos
WHERE id = ?
`
	todo, err := scanSQLiteTodo(s.db.QueryRowContext(ctx, selectTodoByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info().
				Int64("todo_id", id).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("failed to select todo")
		return nil, err
	}

	s.logger.Debug().
		Int64("todo_id", id).
		Msg("selected todo")
	return todo, nil
}

func (s *sqliteTodoServiceImpl) GetTodos(ctx context.Context) ([]*models.Todo, error) {
	const selectTodosQuery = `
SELECT id,
       name,
       done,
       create_at
FROM todos
ORDER BY id
`
	rows, err := s.db.QueryContext(ctx, selectTodosQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select todos")
		return nil, err
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		todo, err := scanSQLiteTodo(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan todo")
			return nil, err
		}
		todos = append(todos, todo)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(todos)).
		Msg("selected todos")
	return todos, nil
}

func (s *sqliteTodoServiceImpl) UpdateTodo(ctx context.Context, params UpdateTodoParams) (*models.Todo, error) {
	if params.Name != nil {
		err := validateTodoName(*params.Name)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("todo_id", params.ID).
				Msg("invalid todo")
			return nil, err
		}
	}

	const updateTodoQuery = `
UPDATE todos
SET name = COALESCE(?, name),
    done = COALESCE(?, done)
WHERE id = ?
RETURNING id, name, done, create_at
`
	todo, err := scanSQLiteTodo(s.db.QueryRowContext(
		ctx,
		updateTodoQuery,
		nullString(params.Name),
		nullBool(params.Done),
		params.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info().
				Int64("todo_id", params.ID).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("todo_id", params.ID).
			Msg("failed to update todo")
		return nil, classifySQLiteError(err)
	}

	s.logger.Info().
		Int64("todo_id", todo.ID).
		Msg("updated todo")
	return todo, nil
}

func (s *sqliteTodoServiceImpl) DeleteTodo(ctx context.Context, id int64) error {
	const deleteTodoQuery = `
DELETE FROM todos
WHERE id = ?
`
	res, err := s.db.ExecContext(ctx, deleteTodoQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("failed to delete todo")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("failed to get affected rows")
		return err
	}
	if affected == 0 {
		s.logger.Info().
			Int64("todo_id", id).
			Msg("todo not found")
		return ErrTodoNotFound
	}

	s.logger.Info().
		Int64("todo_id", id).
		Msg("deleted todo")
	return nil
}

func (s *sqliteTodoServiceImpl) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (*models.Todo, error) {
	var (
		todo     models.Todo
		createAt string
	)
	err := row.Scan(
		&todo.ID,
		&todo.Name,
		&todo.Done,
		&createAt,
	)
	if err != nil {
		return nil, err
	}

	todo.CreateAt, err = time.Parse(sqliteDateLayout, createAt)
	if err != nil {
		return nil, fmt.Errorf("parse create_at %q: %w", createAt, err)
	}
	return &todo, nil
}

func classifySQLiteError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_CHECK,
		sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %s", ErrInvalidTodo, sqliteErr.Error())
	default:
		return err
	}
}
