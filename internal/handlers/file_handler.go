package handlers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

const maxAttachmentUpload = 25 << 20

type FileService interface {
	Upload(ctx context.Context, p models.Principal, entity, entityID, filename, contentType string, content io.Reader) (*models.Attachment, error)
	Open(ctx context.Context, id string) (*models.Attachment, io.ReadCloser, error)
	List(ctx context.Context, entity, entityID string) ([]models.Attachment, error)
}

// FileHandler uploads and serves attachments stored in GridFS
type FileHandler struct {
	base
	files FileService
}

func NewFileHandler(files FileService, v *validation.Validator, log *zap.Logger) *FileHandler {
	return &FileHandler{base: newBase(v, log), files: files}
}

// UploadFile godoc
// @Summary Upload an attachment
// @Description Stores a multipart "file" against the entity and entityId form fields
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Param entity formData string true "Owning entity (lead, order, ...)"
// @Param entityId formData string true "Owning entity ID"
// @Success 201 {object} models.Attachment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /files [post]
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentUpload)
	if err := r.ParseMultipartForm(maxAttachmentUpload); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart upload no larger than 25MB")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Form field 'file' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	attachment, err := h.files.Upload(ctx, p, r.FormValue("entity"), r.FormValue("entityId"), header.Filename, contentType, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, attachment)
}

// ListFiles godoc
// @Summary List attachments
// @Description Returns the attachments of ?entity=&entityId=
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param entity query string true "Owning entity"
// @Param entityId query string true "Owning entity ID"
// @Success 200 {array} models.Attachment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /files [get]
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) ([]models.Attachment, error) {
		return h.files.List(ctx, q.Get("entity"), q.Get("entityId"))
	})
}

// DownloadFile godoc
// @Summary Download an attachment
// @Description Streams an attachment
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Attachment ID"
// @Success 200 {file} file
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /files/{id} [get]
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	attachment, content, err := h.files.Open(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename}))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		h.log.Warn("attachment download interrupted",
			zap.String("file_id", attachment.ID),
			zap.Error(fmt.Errorf("copy: %w", err)))
	}
}
