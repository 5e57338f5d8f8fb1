package services

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/go-todo-api/internal/models"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrInvalidTodo  = errors.New("invalid todo")
)

type TodoService interface {
	// CreateTodo inserts a new todo. The ID and the creation date
	// are assigned by the store.
	//
	// It returns ErrInvalidTodo if the name is empty or longer
	// than models.TodoNameMaxLength characters.
	CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error)

	// GetTodo returns the todo with the given ID or ErrTodoNotFound.
	GetTodo(ctx context.Context, id int64) (*models.Todo, error)

	// GetTodos returns all todos ordered by ID.
	GetTodos(ctx context.Context) ([]*models.Todo, error)

	// UpdateTodo sets the non-nil fields of params on the todo
	// with the given ID. The creation date is never changed.
	//
	// It returns ErrTodoNotFound if the todo doesn't exist or
	// ErrInvalidTodo if the new name is invalid.
	UpdateTodo(ctx context.Context, params UpdateTodoParams) (*models.Todo, error)

	// DeleteTodo deletes the todo with the given ID or returns
	// ErrTodoNotFound.
	DeleteTodo(ctx context.Context, id int64) error

	// Ping checks that the underlying storage is reachable.
	Ping(ctx context.Context) error
}

type CreateTodoParams struct {
	Name string
	Done bool
}

type UpdateTodoParams struct {
	ID   int64
	Name *string
	Done *bool
}

// Clock returns the current time. Stores use it to date new todos.
type Clock func() time.Time
