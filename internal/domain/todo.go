package domain

import "time"

// SeedTodoText is the task every new account starts with.
const SeedTodoText = "Hello! Create your first todo"

// Todo is a single task owned by exactly one user.
type Todo struct {
	ID        int64
	UserID    int64
	Task      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoPatch carries the optional fields of an update. Nil fields keep their stored value.
type TodoPatch struct {
	Task      *string
	Completed *bool
}
