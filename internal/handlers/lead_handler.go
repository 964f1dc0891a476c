package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/services"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

const maxImportUpload = 10 << 20

// LeadService is the lead pipeline used by LeadHandler
type LeadService interface {
	Create(ctx context.Context, p models.Principal, lead models.Lead) (*models.Lead, error)
	Get(ctx context.Context, id, viewerID string) (*models.Lead, error)
	List(ctx context.Context, q services.LeadQuery) ([]models.Lead, error)
	Update(ctx context.Context, p models.Principal, id string, u models.LeadUpdate) (*models.Lead, error)
	Convert(ctx context.Context, p models.Principal, id, conversionType string) (*models.Lead, error)
	Statuses(ctx context.Context) ([]services.StatusOption, error)
	CreateStatus(ctx context.Context, p models.Principal, name, color string) (*models.LeadStatusDef, error)
}

// LeadImporter parses and commits spreadsheet imports
type LeadImporter interface {
	Preview(ctx context.Context, r io.Reader) (*services.ImportPreview, error)
	Commit(ctx context.Context, p models.Principal, leads []models.Lead) ([]models.Lead, error)
}

// LeadHandler handles lead, lead status and lead import endpoints
type LeadHandler struct {
	base
	leads    LeadService
	importer LeadImporter
	loc      *time.Location
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leads LeadService, importer LeadImporter, loc *time.Location, v *validation.Validator, log *zap.Logger) *LeadHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LeadHandler{base: newBase(v, log), leads: leads, importer: importer, loc: loc}
}

// ListLeads godoc
// @Summary List leads
// @Description Returns leads filtered by status, search, location and date. Query: status, search, location, date, day, from, to, sort, order=asc|desc
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status name"
// @Param search query string false "Free-text search"
// @Param location query string false "Location"
// @Param date query string false "Date bucket: exact, today, yesterday, this_week or custom"
// @Param day query string false "Day for date=exact (YYYY-MM-DD)"
// @Param from query string false "First day for date=custom (YYYY-MM-DD)"
// @Param to query string false "Last day for date=custom (YYYY-MM-DD)"
// @Param sort query string false "created_at, client_name or status"
// @Param order query string false "asc or desc"
// @Success 200 {array} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads [get]
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDateFilter(q, h.loc)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	leads, err := h.leads.List(ctx, services.LeadQuery{
		Filter: filters.LeadFilter{
			Status:   q.Get("status"),
			Search:   q.Get("search"),
			Location: q.Get("location"),
			Date:     date,
		},
		Sort: q.Get("sort"),
		Desc: strings.EqualFold(q.Get("order"), "desc"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, leads)
}

// GetLead godoc
// @Summary Get a lead
// @Description Returns one lead with the activities visible to the caller
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Success 200 {object} models.Lead
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{id} [get]
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	lead, err := h.leads.Get(ctx, mux.Vars(r)["id"], p.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lead)
}

// CreateLead godoc
// @Summary Create a lead
// @Description Creates a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lead body models.Lead true "Lead"
// @Success 201 {object} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads [post]
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var lead models.Lead
	if !h.decode(w, r, &lead, false) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.leads.Create(ctx, p, lead)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateLead godoc
// @Summary Update a lead
// @Description Applies an inline edit
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param update body models.LeadUpdate true "Changed fields"
// @Success 200 {object} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{id} [patch]
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var update models.LeadUpdate
	if !h.decode(w, r, &update, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	lead, err := h.leads.Update(ctx, p, mux.Vars(r)["id"], update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lead)
}

type convertLeadRequest struct {
	Type string `json:"type" validate:"required,oneof=order booking"`
}

// ConvertLead godoc
// @Summary Convert a lead
// @Description Marks a lead as converted to an order or a booking
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lead ID"
// @Param conversion body convertLeadRequest true "Conversion type"
// @Success 200 {object} models.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{id}/convert [post]
func (h *LeadHandler) ConvertLead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req convertLeadRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	lead, err := h.leads.Convert(ctx, p, mux.Vars(r)["id"], req.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lead)
}

// ListStatuses godoc
// @Summary List lead statuses
// @Description Returns the fixed stages followed by the custom labels
// @Tags Leads
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.StatusOption
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /lead-statuses [get]
func (h *LeadHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	statuses, err := h.leads.Statuses(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, statuses)
}

type createStatusRequest struct {
	Name  string `json:"name" validate:"required,max=60"`
	Color string `json:"color" validate:"omitempty,max=20"`
}

// CreateStatus godoc
// @Summary Create a custom lead status
// @Description Stores a custom status label
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status body createStatusRequest true "Status label"
// @Success 201 {object} models.LeadStatusDef
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /lead-statuses [post]
func (h *LeadHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createStatusRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	def, err := h.leads.CreateStatus(ctx, p, req.Name, req.Color)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, def)
}

// PreviewImport godoc
// @Summary Preview a lead spreadsheet
// @Description Parses an uploaded .xlsx (form field "file") without saving anything
// @Tags Leads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel workbook (.xlsx)"
// @Success 200 {object} services.ImportPreview
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/import/preview [post]
func (h *LeadHandler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart upload no larger than 10MB")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Form field 'file' is required")
		return
	}
	defer file.Close()

	ctx, cancel := requestContext(r)
	defer cancel()

	preview, err := h.importer.Preview(ctx, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, preview)
}

type commitImportRequest struct {
	Leads []models.Lead `json:"leads"`
}

// CommitImport godoc
// @Summary Save imported leads
// @Description Saves previewed leads. Nothing is saved if any row fails.
// @Tags Leads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param import body commitImportRequest true "Previewed leads"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/import/commit [post]
func (h *LeadHandler) CommitImport(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req commitImportRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	if len(req.Leads) == 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "No leads to import")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.importer.Commit(ctx, p, req.Leads)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(created),
		"leads":    created,
	})
}

// parseDateFilter reads date, day, from and to (YYYY-MM-DD) from a query string
func parseDateFilter(q url.Values, loc *time.Location) (filters.DateFilter, error) {
	bucket, err := filters.ParseDateBucket(q.Get("date"))
	if err != nil {
		return filters.DateFilter{}, err
	}
	f := filters.DateFilter{Bucket: bucket, Location: loc}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"day", &f.Day}, {"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return filters.DateFilter{}, fmt.Errorf("%s must be YYYY-MM-DD", p.key)
		}
		*p.dst = &t
	}
	return f, nil
}
