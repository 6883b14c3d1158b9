package repository

import (
	"context"

	"github.com/devinder777/to-do-backend-service/internal/domain"
)

// TodoRepository exposes owner-scoped persistence for todos. Every method that
// takes an id also takes the owner id, and rows owned by someone else behave
// exactly like missing rows.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error)
	Update(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
