package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

type ProjectionService interface {
	SetTarget(ctx context.Context, p models.Principal, t models.ProjectionTarget) (*models.ProjectionTarget, error)
	AddEntry(ctx context.Context, p models.Principal, e models.ProjectionEntry) (*models.ProjectionEntry, error)
	Targets(ctx context.Context, month string) ([]models.ProjectionTarget, error)
	Entries(ctx context.Context, month string) ([]models.ProjectionEntry, error)
	Summary(ctx context.Context, month string) (*models.ProjectionSummary, error)
}

// ProjectionHandler handles monthly sales targets and projections. Every
// endpoint is scoped by ?month=YYYY-MM (or the month field of the body).
type ProjectionHandler struct {
	base
	projections ProjectionService
}

func NewProjectionHandler(projections ProjectionService, v *validation.Validator, log *zap.Logger) *ProjectionHandler {
	return &ProjectionHandler{base: newBase(v, log), projections: projections}
}

// ListTargets godoc
// @Summary List monthly targets
// @Description List monthly targets
// @Tags Projections
// @Produce json
// @Security BearerAuth
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {array} models.ProjectionTarget
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projections/targets [get]
func (h *ProjectionHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) ([]models.ProjectionTarget, error) {
		return h.projections.Targets(ctx, month)
	})
}

// SetTarget godoc
// @Summary Set a monthly target
// @Description Creates or replaces the target of a zone/sector for a month
// @Tags Projections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param target body models.ProjectionTarget true "Target"
// @Success 200 {object} models.ProjectionTarget
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projections/targets [post]
func (h *ProjectionHandler) SetTarget(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var target models.ProjectionTarget
	if !h.decode(w, r, &target, true) {
		return
	}
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*models.ProjectionTarget, error) {
		return h.projections.SetTarget(ctx, p, target)
	})
}

// ListEntries godoc
// @Summary List projection entries
// @Description List projection entries
// @Tags Projections
// @Produce json
// @Security BearerAuth
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {array} models.ProjectionEntry
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projections/entries [get]
func (h *ProjectionHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) ([]models.ProjectionEntry, error) {
		return h.projections.Entries(ctx, month)
	})
}

// AddEntry godoc
// @Summary Add a projection entry
// @Description Add a projection entry
// @Tags Projections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entry body models.ProjectionEntry true "Projection entry"
// @Success 201 {object} models.ProjectionEntry
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projections/entries [post]
func (h *ProjectionHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var entry models.ProjectionEntry
	if !h.decode(w, r, &entry, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.ProjectionEntry, error) {
		return h.projections.AddEntry(ctx, p, entry)
	})
}

// Summary godoc
// @Summary Monthly projection summary
// @Description Returns target, projected and achieved totals per zone
// @Tags Projections
// @Produce json
// @Security BearerAuth
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} models.ProjectionSummary
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projections/summary [get]
func (h *ProjectionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*models.ProjectionSummary, error) {
		return h.projections.Summary(ctx, month)
	})
}
