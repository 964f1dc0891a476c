package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

type memFileStore struct {
	files   map[string]models.Attachment
	content map[string][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string]models.Attachment{}, content: map[string][]byte{}}
}

func (m *memFileStore) Upload(_ context.Context, a *models.Attachment, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.Size = int64(len(b))
	a.UploadedAt = testNow
	m.files[a.ID] = *a
	m.content[a.ID] = b
	return nil
}

func (m *memFileStore) Open(_ context.Context, id string) (*models.Attachment, io.ReadCloser, error) {
	a, ok := m.files[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", missing(repositories.ErrFileNotFound), id)
	}
	return &a, io.NopCloser(bytes.NewReader(m.content[id])), nil
}

func (m *memFileStore) ListByEntity(_ context.Context, entity, entityID string) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range m.files {
		if a.Entity == entity && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestFileUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	svc := NewFileService(newMemFileStore(), testDeps(nil))

	a, err := svc.Upload(ctx, rep, "orders", "o1", `C:\scans\po-17.pdf`, "", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "po-17.pdf", a.Filename)
	assert.Equal(t, "application/octet-stream", a.ContentType)
	assert.True(t, strings.HasPrefix(a.Path, "attachments/orders/o1/"))
	assert.True(t, strings.HasSuffix(a.Path, "-po-17.pdf"))
	assert.Equal(t, int64(4), a.Size)
	assert.Equal(t, rep.UserID, a.UploadedBy)

	got, rc, err := svc.Open(ctx, a.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, a.Path, got.Path)

	list, err := svc.List(ctx, "orders", "o1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFileValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewFileService(newMemFileStore(), testDeps(nil))

	_, err := svc.Upload(ctx, rep, "todos", "t1", "a.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, rep, "leads", " ", "a.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Open(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Open(ctx, "0190a8f4-3c5e-7b2a-9d4e-1f2a3b4c5d6e")
	assert.True(t, repositories.IsNotFound(err))

	_, err = svc.List(ctx, "leads", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
