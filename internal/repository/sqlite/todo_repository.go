package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devinder777/to-do-backend-service/internal/domain"
	"github.com/devinder777/to-do-backend-service/internal/repository"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	task TEXT,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users (id)
);
CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);
`

const selectTodoColumns = `SELECT id, user_id, task, completed, created_at, updated_at FROM todos`

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	return insertTodo(ctx, r.db, todo)
}

func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, selectTodoColumns+`
WHERE user_id = ?
ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func (r *TodoRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, selectTodoColumns+`
WHERE id = ? AND user_id = ?`,
		id,
		ownerID,
	)
	return scanTodo(row)
}

// Update applies the non-nil fields of patch. The row is only touched when both
// id and owner match.
func (r *TodoRepository) Update(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	var task, completed any
	if patch.Task != nil {
		task = *patch.Task
	}
	if patch.Completed != nil {
		completed = boolToInt(*patch.Completed)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET task = COALESCE(?, task),
	completed = COALESCE(?, completed),
	updated_at = ?
WHERE id = ? AND user_id = ?`,
		task,
		completed,
		time.Now().UTC(),
		id,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("todo update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, repository.ErrNotFound
	}

	return r.Get(ctx, ownerID, id)
}

func (r *TodoRepository) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func insertTodo(ctx context.Context, ex execer, todo *domain.Todo) (int64, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	res, err := ex.ExecContext(ctx, `
INSERT INTO todos (user_id, task, completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		todo.UserID,
		todo.Task,
		boolToInt(todo.Completed),
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("todo last insert id: %w", err)
	}
	todo.ID = id
	return id, nil
}

func scanTodo(scanner rowScanner) (*domain.Todo, error) {
	var (
		todo      domain.Todo
		task      sql.NullString
		completed sql.NullInt64
	)
	if err := scanner.Scan(
		&todo.ID,
		&todo.UserID,
		&task,
		&completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	todo.Task = task.String
	todo.Completed = completed.Valid && completed.Int64 != 0
	return &todo, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
