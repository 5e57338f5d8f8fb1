package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/internal/models"
)

type todoServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	now    Clock
}

// NewTodoService returns a TodoService backed by Postgres.
// A nil clock means time.Now.
func NewTodoService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	clock Clock,
) TodoService {
	if clock == nil {
		clock = time.Now
	}
	return &todoServiceImpl{
		logger: logger,
		pgPool: pgPool,
		now:    clock,
	}
}

func (s *todoServiceImpl) CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error) {
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
VALUES ($1, $2, $3)
RETURNING id
`
	err = s.pgPool.QueryRow(
		ctx,
		insertTodoQuery,
		todo.Name,
		todo.Done,
		todo.CreateAt,
	).Scan(&todo.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert todo")
		return nil, classifyPgError(err)
	}

	s.logger.Info().
		Int64("todo_id", todo.ID).
		Msg("created todo")
	return todo, nil
}

func (s *todoServiceImpl) GetTodo(ctx context.Context, id int64) (*models.Todo, error) {
	const selectTodoByIDQuery = `
SELECT id,
       name,
       done,
       create_at
FROM todos
WHERE id = $1
`
	todo := new(models.Todo)
	err := s.pgPool.QueryRow(
		ctx,
		selectTodoByIDQuery,
		id,
	).Scan(
		&todo.ID,
		&todo.Name,
		&todo.Done,
		&todo.CreateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *todoServiceImpl) GetTodos(ctx context.Context) ([]*models.Todo, error) {
	const selectTodosQuery = `
SELECT id,
       name,
       done,
       create_at
FROM todos
ORDER BY id
`
	rows, err := s.pgPool.Query(ctx, selectTodosQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select todos")
		return nil, err
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		todo := new(models.Todo)
		err = rows.Scan(
			&todo.ID,
			&todo.Name,
			&todo.Done,
			&todo.CreateAt,
		)
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

func (s *todoServiceImpl) UpdateTodo(ctx context.Context, params UpdateTodoParams) (*models.Todo, error) {
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
SET name = COALESCE($1, name),
    done = COALESCE($2, done)
WHERE id = $3
RETURNING id, name, done, create_at
`
	todo := new(models.Todo)
	err := s.pgPool.QueryRow(
		ctx,
		updateTodoQuery,
		params.Name,
		params.Done,
		params.ID,
	).Scan(
		&todo.ID,
		&todo.Name,
		&todo.Done,
		&todo.CreateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info().
				Int64("todo_id", params.ID).
				Msg("todo not found")
			return nil, ErrTodoNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("todo_id", params.ID).
			Msg("failed to update todo")
		return nil, classifyPgError(err)
	}

	s.logger.Info().
		Int64("todo_id", todo.ID).
		Msg("updated todo")
	return todo, nil
}

func (s *todoServiceImpl) DeleteTodo(ctx context.Context, id int64) error {
	const deleteTodoQuery = `
DELETE FROM todos
WHERE id = $1
`
	tag, err := s.pgPool.Exec(ctx, deleteTodoQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("failed to delete todo")
		return err
	}
	if tag.RowsAffected() == 0 {
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

func (s *todoServiceImpl) Ping(ctx context.Context) error {
	return s.pgPool.Ping(ctx)
}

// classifyPgError maps constraint violations on the todos table to
// ErrInvalidTodo and leaves every other error as is.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.StringDataRightTruncationDataException,
		pgerrcode.NotNullViolation,
		pgerrcode.CheckViolation:
		return fmt.Errorf("%w: %s", ErrInvalidTodo, pgErr.Message)
	default:
		return err
	}
}
