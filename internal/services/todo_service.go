package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// TodoService manages todos with the same trash lifecycle as notes
type TodoService struct {
	todos   TodoStore
	changes changes
	now     func() time.Time
	log     *zap.Logger
}

func NewTodoService(todos TodoStore, deps Deps) *TodoService {
	return &TodoService{todos: todos, changes: deps.changes(), now: deps.clock(), log: deps.logger()}
}

func validPriority(p string) bool {
	return p == models.PriorityLow || p == models.PriorityMedium || p == models.PriorityHigh
}

func (s *TodoService) Create(ctx context.Context, p models.Principal, t models.Todo) (*models.Todo, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !validPriority(t.Priority) {
		return nil, fmt.Errorf("%w: unsupported priority %q", ErrInvalidInput, t.Priority)
	}
	now := s.now()
	t.ID = uuid.MustNewUUID()
	t.CreatedBy = p.UserID
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Completed = false
	t.CompletedAt = nil
	t.DeletedAt = nil
	if err := s.todos.Create(ctx, &t); err != nil {
		s.log.Error("failed to create todo", zap.Error(err))
		return nil, err
	}
	s.changes.inserted(ctx, models.TableTodos, t)
	return &t, nil
}

func (s *TodoService) List(ctx context.Context) ([]models.Todo, error) {
	return s.todos.List(ctx)
}

func (s *TodoService) Trashed(ctx context.Context) ([]models.Todo, error) {
	return s.todos.ListTrash(ctx)
}

func (s *TodoService) Update(ctx context.Context, id string, u models.TodoUpdate) (*models.Todo, error) {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if u.Priority != nil && !validPriority(*u.Priority) {
		return nil, fmt.Errorf("%w: unsupported priority %q", ErrInvalidInput, *u.Priority)
	}
	t, err := s.todos.Update(ctx, id, u, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableTodos, t, nil)
	return t, nil
}

// Toggle flips the completed flag
func (s *TodoService) Toggle(ctx context.Context, id string) (*models.Todo, error) {
	current, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.todos.SetCompleted(ctx, id, !current.Completed, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableTodos, t, current)
	return t, nil
}

func (s *TodoService) Trash(ctx context.Context, id string) (*models.Todo, error) {
	t, err := s.todos.Trash(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableTodos, t, nil)
	return t, nil
}

func (s *TodoService) Restore(ctx context.Context, id string) (*models.Todo, error) {
	t, err := s.todos.Restore(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableTodos, t, nil)
	return t, nil
}

func (s *TodoService) Purge(ctx context.Context, id string) error {
	t, err := s.todos.Purge(ctx, id)
	if err != nil {
		return err
	}
	s.changes.deleted(ctx, models.TableTodos, t)
	return nil
}
