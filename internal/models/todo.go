package models

import "time"

const TodoNameMaxLength = 120

type Todo struct {
	ID       int64
	Name     string
	Done     bool
	CreateAt time.Time
}
