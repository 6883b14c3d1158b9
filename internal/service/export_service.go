package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devinder777/to-do-backend-service/internal/repository"
	"github.com/devinder777/to-do-backend-service/internal/storage"
)

// ErrExportDisabled is returned when no object storage bucket is configured.
var ErrExportDisabled = errors.New("export storage is not configured")

const defaultExportURLExpiry = 15 * time.Minute

// Export describes an uploaded snapshot of a user's todos.
type Export struct {
	Key      string
	Location string
	URL      string
	Count    int
}

// ExportService writes and lists per-user todo snapshots in object storage.
type ExportService interface {
	Export(ctx context.Context, ownerID int64) (*Export, error)
	ListExports(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error)
	DeleteExports(ctx context.Context, ownerID int64) error
}

// ExportOptions configures where snapshots are written.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
	Now       func() time.Time
}

type exportService struct {
	todos repository.TodoRepository
	store storage.Service
	opts  ExportOptions
}

// NewExportService builds an ExportService. A nil store or empty bucket yields a
// service whose methods return ErrExportDisabled.
func NewExportService(todos repository.TodoRepository, store storage.Service, opts ExportOptions) ExportService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = defaultExportURLExpiry
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		todos: todos,
		store: store,
		opts:  opts,
	}
}

type snapshot struct {
	UserID     int64          `json:"user_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Todos      []snapshotTodo `json:"todos"`
}

type snapshotTodo struct {
	ID        int64     `json:"id"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *exportService) Export(ctx context.Context, ownerID int64) (*Export, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}

	todos, err := s.todos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos for export: %w", err)
	}

	snap := snapshot{
		UserID:     ownerID,
		ExportedAt: s.opts.Now().UTC(),
		Todos:      make([]snapshotTodo, len(todos)),
	}
	for i, todo := range todos {
		snap.Todos[i] = snapshotTodo{
			ID:        todo.ID,
			Task:      todo.Task,
			Completed: todo.Completed,
			CreatedAt: todo.CreatedAt.UTC(),
			UpdatedAt: todo.UpdatedAt.UTC(),
		}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(s.ownerPrefix(ownerID), fmt.Sprintf("%s-%s.json", snap.ExportedAt.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.store.PutObject(ctx, bytes.NewReader(payload), storage.PutOptions{
		Bucket:      s.opts.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	url, err := s.store.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}

	return &Export{
		Key:      key,
		Location: location,
		URL:      url,
		Count:    len(todos),
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, ownerID int64) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrExportDisabled
	}
	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.ownerPrefix(ownerID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return objects, nil
}

func (s *exportService) DeleteExports(ctx context.Context, ownerID int64) error {
	if !s.enabled() {
		return ErrExportDisabled
	}
	if err := s.store.DeletePrefix(ctx, s.opts.Bucket, s.ownerPrefix(ownerID)+"/"); err != nil {
		return fmt.Errorf("delete exports: %w", err)
	}
	return nil
}

func (s *exportService) enabled() bool {
	return s.store != nil && s.opts.Bucket != ""
}

// ownerPrefix is derived from the owner id only, so one user can never address
// another user's snapshots.
func (s *exportService) ownerPrefix(ownerID int64) string {
	return path.Join(s.opts.KeyPrefix, fmt.Sprintf("user-%d", ownerID))
}
