package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

func TestNoteTrashLifecycle(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	svc := NewNoteService(newMemNoteStore(), testDeps(n))

	note, err := svc.Create(ctx, rep, models.Note{Title: " Site visit plan "})
	require.NoError(t, err)
	assert.Equal(t, "Site visit plan", note.Title)
	assert.Equal(t, rep.UserID, note.CreatedBy)
	assert.NotNil(t, note.Tags)

	err = svc.Purge(ctx, note.ID)
	assert.True(t, repositories.IsConflict(err), "active notes cannot be purged")

	trashed, err := svc.Trash(ctx, note.ID)
	require.NoError(t, err)
	require.NotNil(t, trashed.DeletedAt)
	assert.Equal(t, testNow, *trashed.DeletedAt)

	active, _ := svc.List(ctx)
	assert.Empty(t, active)
	bin, _ := svc.Trashed(ctx)
	assert.Len(t, bin, 1)

	_, err = svc.Trash(ctx, note.ID)
	assert.True(t, repositories.IsConflict(err), "double trash")
	title := "edited"
	_, err = svc.Update(ctx, note.ID, models.NoteUpdate{Title: &title})
	assert.True(t, repositories.IsConflict(err), "trashed notes are read-only")

	restored, err := svc.Restore(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	_, err = svc.Restore(ctx, note.ID)
	assert.True(t, repositories.IsConflict(err), "restore needs a trashed note")

	_, err = svc.Trash(ctx, note.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Purge(ctx, note.ID))
	bin, _ = svc.Trashed(ctx)
	assert.Empty(t, bin)

	err = svc.Purge(ctx, note.ID)
	assert.ErrorIs(t, err, repositories.ErrNoteNotFound)

	assert.Equal(t, 1, n.count(models.ChangeInsert, models.TableNotes))
	assert.Equal(t, 3, n.count(models.ChangeUpdate, models.TableNotes))
	assert.Equal(t, 1, n.count(models.ChangeDelete, models.TableNotes))
}

func TestNoteTogglePin(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(newMemNoteStore(), testDeps(nil))

	note, err := svc.Create(ctx, rep, models.Note{Title: "Rates", Tags: []string{"pricing"}})
	require.NoError(t, err)
	assert.False(t, note.Pinned)

	pinned, err := svc.TogglePin(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)
	assert.Equal(t, []string{"pricing"}, pinned.Tags)

	unpinned, err := svc.TogglePin(ctx, note.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)

	_, err = svc.TogglePin(ctx, "missing")
	assert.True(t, repositories.IsNotFound(err))
}

func TestNoteValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(newMemNoteStore(), testDeps(nil))

	_, err := svc.Create(ctx, rep, models.Note{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	note, err := svc.Create(ctx, rep, models.Note{Title: "ok"})
	require.NoError(t, err)
	blank := " "
	_, err = svc.Update(ctx, note.ID, models.NoteUpdate{Title: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
