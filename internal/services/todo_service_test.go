package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

func TestTodoCreateDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewTodoService(newMemTodoStore(), testDeps(nil))

	todo, err := svc.Create(ctx, rep, models.Todo{Title: "Call vendor", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, todo.Priority)
	assert.False(t, todo.Completed, "new todos start open")

	_, err = svc.Create(ctx, rep, models.Todo{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := "urgent"
	_, err = svc.Update(ctx, todo.ID, models.TodoUpdate{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTodoToggle(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	svc := NewTodoService(newMemTodoStore(), testDeps(n))

	todo, err := svc.Create(ctx, rep, models.Todo{Title: "Send quote"})
	require.NoError(t, err)

	done, err := svc.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	open, err := svc.Toggle(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, open.Completed)
	assert.Nil(t, open.CompletedAt)

	assert.Equal(t, 2, n.count(models.ChangeUpdate, models.TableTodos))
}

func TestTodoTrashLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewTodoService(newMemTodoStore(), testDeps(nil))

	todo, err := svc.Create(ctx, rep, models.Todo{Title: "Book stall"})
	require.NoError(t, err)

	err = svc.Purge(ctx, todo.ID)
	assert.True(t, repositories.IsConflict(err))

	_, err = svc.Trash(ctx, todo.ID)
	require.NoError(t, err)
	_, err = svc.Trash(ctx, todo.ID)
	assert.True(t, repositories.IsConflict(err))
	_, err = svc.Toggle(ctx, todo.ID)
	assert.True(t, repositories.IsConflict(err), "trashed todos cannot be completed")

	list, _ := svc.List(ctx)
	assert.Empty(t, list)
	bin, _ := svc.Trashed(ctx)
	require.Len(t, bin, 1)
	assert.Equal(t, todo.ID, bin[0].ID)

	_, err = svc.Restore(ctx, todo.ID)
	require.NoError(t, err)
	list, _ = svc.List(ctx)
	assert.Len(t, list, 1)

	_, err = svc.Trash(ctx, todo.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Purge(ctx, todo.ID))
	_, err = svc.Restore(ctx, todo.ID)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
}
