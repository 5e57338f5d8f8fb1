package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-api/internal/models"
	"github.com/adanyl0v/go-todo-api/internal/services"
)

type getTodoResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	CreateAt string `json:"create_at"`
}

func newGetTodoResponse(todo *models.Todo) getTodoResponse {
	return getTodoResponse{
		ID:       todo.ID,
		Name:     todo.Name,
		Done:     todo.Done,
		CreateAt: todo.CreateAt.Format(time.DateOnly),
	}
}

// Unknown fields such as "id" or "create_at" are dropped by the decoder.
type createTodoRequest struct {
	Name string `json:"name" binding:"required,max=120"`
	Done bool   `json:"done"`
}

func (h *handlerImpl) HandleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	err := bindJSON(c, &req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	todo, err := h.todos.CreateTodo(c, services.CreateTodoParams{
		Name: req.Name,
		Done: req.Done,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create todo")
		switch {
		case errors.Is(err, services.ErrInvalidTodo):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, newGetTodoResponse(todo))
}

func (h *handlerImpl) HandleGetTodos(c *gin.Context) {
	todos, err := h.todos.GetTodos(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get todos")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]getTodoResponse, len(todos))
	for i, todo := range todos {
		response[i] = newGetTodoResponse(todo)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.GetTodo(c, id)
	if err != nil {
		h.abortTodoError(c, err, "failed to get todo")
		return
	}

	c.JSON(http.StatusOK, newGetTodoResponse(todo))
}

// updateTodoRequest tells an absent field, which is left unchanged,
// from an explicit null, which is rejected.
type updateTodoRequest struct {
	Name optionalField[string] `json:"name"`
	Done optionalField[bool]   `json:"done"`
}

func (r updateTodoRequest) validate() error {
	if r.Name.Set && r.Name.Value == nil {
		return fmt.Errorf("%w: name may not be null", services.ErrInvalidTodo)
	}
	if r.Done.Set && r.Done.Value == nil {
		return fmt.Errorf("%w: done may not be null", services.ErrInvalidTodo)
	}
	return nil
}

func (h *handlerImpl) HandleUpdateTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	var req updateTodoRequest
	err := bindJSON(c, &req)
	// An empty body is an update without fields.
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("failed to bind json")
		h.abortInvalidTodo(c, id, errInvalidRequestBody)
		return
	}

	err = req.validate()
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("todo_id", id).
			Msg("invalid update")
		h.abortInvalidTodo(c, id, err)
		return
	}

	todo, err := h.todos.UpdateTodo(c, services.UpdateTodoParams{
		ID:   id,
		Name: req.Name.Value,
		Done: req.Done.Value,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTodo) {
			h.logger.Error().
				Err(err).
				Int64("todo_id", id).
				Msg("failed to update todo")
			h.abortInvalidTodo(c, id, err)
			return
		}

		h.abortTodoError(c, err, "failed to update todo")
		return
	}

	c.JSON(http.StatusOK, newGetTodoResponse(todo))
}

func (h *handlerImpl) HandleDeleteTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	err := h.todos.DeleteTodo(c, id)
	if err != nil {
		h.abortTodoError(c, err, "failed to delete todo")
		return
	}

	c.Status(http.StatusNoContent)
}

// todoID parses the ":id" path parameter. Anything but a positive
// integer can't match a todo, so it aborts with 404.
func (h *handlerImpl) todoID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.logger.Warn().
			Str("id", raw).
			Msg("invalid todo id")
		abort(c, newNotFoundError(services.ErrTodoNotFound.Error()))
		return 0, false
	}
	return id, true
}

func (h *handlerImpl) abortTodoError(c *gin.Context, err error, msg string) {
	if errors.Is(err, services.ErrTodoNotFound) {
		abort(c, newNotFoundError(services.ErrTodoNotFound.Error()))
		return
	}

	h.logger.Error().
		Err(err).
		Msg(msg)
	abort(c, newStatusTextError(http.StatusInternalServerError))
}

// abortInvalidTodo answers an update with an invalid body. A missing
// todo takes precedence, so it responds 404 rather than 400 then.
func (h *handlerImpl) abortInvalidTodo(c *gin.Context, id int64, cause error) {
	_, err := h.todos.GetTodo(c, id)
	if err != nil {
		h.abortTodoError(c, err, "failed to get todo")
		return
	}

	abort(c, newBadRequestError(cause.Error()))
}
