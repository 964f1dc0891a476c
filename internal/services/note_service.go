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

// NoteService manages notes. Delete moves a note to trash; only trashed
// notes can be purged.
type NoteService struct {
	notes   NoteStore
	changes changes
	now     func() time.Time
	log     *zap.Logger
}

func NewNoteService(notes NoteStore, deps Deps) *NoteService {
	return &NoteService{notes: notes, changes: deps.changes(), now: deps.clock(), log: deps.logger()}
}

func (s *NoteService) Create(ctx context.Context, p models.Principal, n models.Note) (*models.Note, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	now := s.now()
	n.ID = uuid.MustNewUUID()
	n.CreatedBy = p.UserID
	n.CreatedAt = now
	n.UpdatedAt = now
	n.DeletedAt = nil
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if err := s.notes.Create(ctx, &n); err != nil {
		s.log.Error("failed to create note", zap.Error(err))
		return nil, err
	}
	s.changes.inserted(ctx, models.TableNotes, n)
	return &n, nil
}

func (s *NoteService) List(ctx context.Context) ([]models.Note, error) {
	return s.notes.List(ctx)
}

func (s *NoteService) Trashed(ctx context.Context) ([]models.Note, error) {
	return s.notes.ListTrash(ctx)
}

func (s *NoteService) Update(ctx context.Context, id string, u models.NoteUpdate) (*models.Note, error) {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	n, err := s.notes.Update(ctx, id, u, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableNotes, n, nil)
	return n, nil
}

// TogglePin flips the pinned flag of an active note
func (s *NoteService) TogglePin(ctx context.Context, id string) (*models.Note, error) {
	current, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pinned := !current.Pinned
	return s.Update(ctx, id, models.NoteUpdate{Pinned: &pinned})
}

func (s *NoteService) Trash(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.notes.Trash(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableNotes, n, nil)
	return n, nil
}

func (s *NoteService) Restore(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.notes.Restore(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableNotes, n, nil)
	return n, nil
}

func (s *NoteService) Purge(ctx context.Context, id string) error {
	n, err := s.notes.Purge(ctx, id)
	if err != nil {
		return err
	}
	s.changes.deleted(ctx, models.TableNotes, n)
	return nil
}
