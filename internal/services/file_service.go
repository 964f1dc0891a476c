package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// Entities attachments can belong to
var attachableEntities = map[string]bool{
	"leads":           true,
	"orders":          true,
	"bookings":        true,
	"inventory_items": true,
	"notes":           true,
}

type FileService struct {
	files FileStore
	now   func() time.Time
	log   *zap.Logger
}

func NewFileService(files FileStore, deps Deps) *FileService {
	return &FileService{files: files, now: deps.clock(), log: deps.logger()}
}

// Upload stores content as an attachment of entity/entityID
func (s *FileService) Upload(ctx context.Context, p models.Principal, entity, entityID, filename, contentType string, content io.Reader) (*models.Attachment, error) {
	if !attachableEntities[entity] {
		return nil, fmt.Errorf("%w: files cannot be attached to %q", ErrInvalidInput, entity)
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, fmt.Errorf("%w: entityId is required", ErrInvalidInput)
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	a := &models.Attachment{
		ID:          uuid.MustNewUUID(),
		Entity:      entity,
		EntityID:    entityID,
		Path:        uuid.StoragePath(entity, entityID, name),
		Filename:    name,
		ContentType: contentType,
		UploadedBy:  p.UserID,
	}
	if err := s.files.Upload(ctx, a, content); err != nil {
		s.log.Error("failed to upload file", zap.String("entity", entity), zap.String("entity_id", entityID), zap.Error(err))
		return nil, err
	}
	s.log.Info("file uploaded", zap.String("file_id", a.ID), zap.String("path", a.Path), zap.Int64("size", a.Size))
	return a, nil
}

// Open returns an attachment and its content. The caller closes the reader.
func (s *FileService) Open(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error) {
	if err := uuid.ValidateUUID(id); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.files.Open(ctx, id)
}

func (s *FileService) List(ctx context.Context, entity, entityID string) ([]models.Attachment, error) {
	if entity == "" || entityID == "" {
		return nil, fmt.Errorf("%w: entity and entityId are required", ErrInvalidInput)
	}
	return s.files.ListByEntity(ctx, entity, entityID)
}
