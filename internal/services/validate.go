package services

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/adanyl0v/go-todo-api/internal/models"
)

func validateTodoName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTodo)
	}

	n := utf8.RuneCountInString(name)
	if n > models.TodoNameMaxLength {
		return fmt.Errorf("%w: name has %d characters, at most %d allowed",
			ErrInvalidTodo, n, models.TodoNameMaxLength)
	}
	return nil
}

// today truncates t to a UTC calendar date.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
