package repository

import (
	"context"

	"github.com/devinder777/to-do-backend-service/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	// CreateWithTodo stores the user and its first todo in a single transaction.
	CreateWithTodo(ctx context.Context, user *domain.User, seed *domain.Todo) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
