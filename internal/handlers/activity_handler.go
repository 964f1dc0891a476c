package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

// ActivityService is the activity log used by ActivityHandler
type ActivityService interface {
	Create(ctx context.Context, p models.Principal, a models.Activity) (*models.Activity, error)
	List(ctx context.Context, f filters.ActivityFilter) ([]models.Activity, error)
	Hide(ctx context.Context, p models.Principal, id string) (*models.Activity, error)
	Unhide(ctx context.Context, p models.Principal, id string) (*models.Activity, error)
	SetUpdate(ctx context.Context, p models.Principal, id, text string) (*models.Activity, error)
}

// ActivityHandler handles the activity timeline endpoints
type ActivityHandler struct {
	base
	activities ActivityService
	loc        *time.Location
}

func NewActivityHandler(activities ActivityService, loc *time.Location, v *validation.Validator, log *zap.Logger) *ActivityHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityHandler{base: newBase(v, log), activities: activities, loc: loc}
}

// ListActivities godoc
// @Summary List activities
// @Description Returns activities visible to the caller. Query: type, leadId, assignedTo, search, date, day, from, to
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param type query string false "Activity type"
// @Param leadId query string false "Lead ID"
// @Param assignedTo query string false "Team member ID"
// @Param search query string false "Free-text search"
// @Param date query string false "Date bucket: exact, today, yesterday, this_week or custom"
// @Param day query string false "Day for date=exact (YYYY-MM-DD)"
// @Param from query string false "First day for date=custom (YYYY-MM-DD)"
// @Param to query string false "Last day for date=custom (YYYY-MM-DD)"
// @Success 200 {array} models.Activity
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities [get]
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	date, err := parseDateFilter(q, h.loc)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	activities, err := h.activities.List(ctx, filters.ActivityFilter{
		Type:       q.Get("type"),
		LeadID:     q.Get("leadId"),
		AssignedTo: q.Get("assignedTo"),
		Search:     q.Get("search"),
		ViewerID:   p.UserID,
		Date:       date,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, activities)
}

// CreateActivity godoc
// @Summary Log an activity
// @Description Logs a call, meeting, email, note or follow-up against a lead
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activity body models.Activity true "Activity"
// @Success 201 {object} models.Activity
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities [post]
func (h *ActivityHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var activity models.Activity
	if !h.decode(w, r, &activity, false) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.activities.Create(ctx, p, activity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

type activityUpdateRequest struct {
	Update string `json:"update" validate:"max=2000"`
}

// SetActivityUpdate godoc
// @Summary Set activity progress update
// @Description Replaces the free-text progress update of an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Param update body activityUpdateRequest true "Update text"
// @Success 200 {object} models.Activity
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities/{id}/update [patch]
func (h *ActivityHandler) SetActivityUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req activityUpdateRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	activity, err := h.activities.SetUpdate(ctx, p, mux.Vars(r)["id"], req.Update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, activity)
}

// HideActivity godoc
// @Summary Hide an activity for the caller
// @Description Dismisses an activity for the caller only
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} models.Activity
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities/{id}/hide [post]
func (h *ActivityHandler) HideActivity(w http.ResponseWriter, r *http.Request) {
	h.visibility(w, r, h.activities.Hide)
}

// UnhideActivity godoc
// @Summary Unhide an activity for the caller
// @Description Brings a dismissed activity back for the caller
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} models.Activity
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities/{id}/unhide [post]
func (h *ActivityHandler) UnhideActivity(w http.ResponseWriter, r *http.Request) {
	h.visibility(w, r, h.activities.Unhide)
}

func (h *ActivityHandler) visibility(w http.ResponseWriter, r *http.Request, apply func(context.Context, models.Principal, string) (*models.Activity, error)) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	activity, err := apply(ctx, p, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, activity)
}
