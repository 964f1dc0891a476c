package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

// AttachmentsBucket is the GridFS bucket used as the attachment object store
const AttachmentsBucket = "attachments"

// GridFSFileRepository stores attachments in GridFS. The GridFS filename is
// the generated storage path; the rest of the metadata lives in the file's
// metadata document.
type GridFSFileRepository struct {
	bucket *gridfs.Bucket
}

func NewGridFSFileRepository(client *mongodb.Client) (*GridFSFileRepository, error) {
	bucket, err := client.Bucket(AttachmentsBucket)
	if err != nil {
		return nil, err
	}
	return &GridFSFileRepository{bucket: bucket}, nil
}

type fileMetadata struct {
	Entity       string `bson:"entity"`
	EntityID     string `bson:"entity_id"`
	OriginalName string `bson:"original_name"`
	ContentType  string `bson:"content_type"`
	UploadedBy   string `bson:"uploaded_by,omitempty"`
}

type fileDocument struct {
	ID         string       `bson:"_id"`
	Length     int64        `bson:"length"`
	Path       string       `bson:"filename"`
	UploadDate time.Time    `bson:"uploadDate"`
	Metadata   fileMetadata `bson:"metadata"`
}

func (d fileDocument) attachment() models.Attachment {
	return models.Attachment{
		ID:          d.ID,
		Entity:      d.Metadata.Entity,
		EntityID:    d.Metadata.EntityID,
		Path:        d.Path,
		Filename:    d.Metadata.OriginalName,
		ContentType: d.Metadata.ContentType,
		Size:        d.Length,
		UploadedBy:  d.Metadata.UploadedBy,
		UploadedAt:  d.UploadDate,
	}
}

// Upload streams content into the bucket under a.Path and fills in Size and UploadedAt
func (r *GridFSFileRepository) Upload(ctx context.Context, a *models.Attachment, content io.Reader) error {
	meta := fileMetadata{
		Entity:       a.Entity,
		EntityID:     a.EntityID,
		OriginalName: a.Filename,
		ContentType:  a.ContentType,
		UploadedBy:   a.UploadedBy,
	}
	stream, err := r.bucket.OpenUploadStreamWithID(a.ID, a.Path, options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return fmt.Errorf("error opening upload stream: %w", err)
	}

	n, err := io.Copy(stream, contextReader{ctx: ctx, r: content})
	if err != nil {
		_ = stream.Abort()
		return fmt.Errorf("error uploading file: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("error finalizing upload: %w", err)
	}
	a.Size = n
	a.UploadedAt = time.Now().UTC()
	return nil
}

// Open returns the attachment metadata and a reader for its content. The caller closes the reader.
func (r *GridFSFileRepository) Open(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error) {
	stream, err := r.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", notFound(ErrFileNotFound), id)
		}
		return nil, nil, fmt.Errorf("error opening file: %w", err)
	}

	file := stream.GetFile()
	doc := fileDocument{ID: id, Length: file.Length, Path: file.Name, UploadDate: file.UploadDate}
	if len(file.Metadata) > 0 {
		if err := bson.Unmarshal(file.Metadata, &doc.Metadata); err != nil {
			_ = stream.Close()
			return nil, nil, fmt.Errorf("error decoding file metadata: %w", err)
		}
	}
	a := doc.attachment()
	return &a, stream, nil
}

// ListByEntity returns the attachments of one record, newest first
func (r *GridFSFileRepository) ListByEntity(ctx context.Context, entity, entityID string) ([]models.Attachment, error) {
	filter := bson.M{"metadata.entity": entity, "metadata.entity_id": entityID}
	cursor, err := r.bucket.Find(filter, options.GridFSFind().SetSort(bson.D{{Key: "uploadDate", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []fileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding files: %w", err)
	}
	out := make([]models.Attachment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.attachment())
	}
	return out, nil
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
