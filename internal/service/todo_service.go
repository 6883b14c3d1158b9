package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devinder777/to-do-backend-service/internal/domain"
	"github.com/devinder777/to-do-backend-service/internal/repository"
)

// TodoService coordinates todo operations for a single authenticated owner.
type TodoService interface {
	ListTodos(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, ownerID int64, task string) (*domain.Todo, error)
	UpdateTodo(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, ownerID, id int64) error
}

type todoService struct {
	todos repository.TodoRepository
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) ListTodos(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	todos, err := s.todos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *todoService) CreateTodo(ctx context.Context, ownerID int64, task string) (*domain.Todo, error) {
	if task == "" {
		return nil, ErrTaskRequired
	}

	todo := &domain.Todo{
		UserID: ownerID,
		Task:   task,
	}
	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	todo, err := s.todos.Update(ctx, ownerID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}
	return todo, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, ownerID, id int64) error {
	if err := s.todos.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}
