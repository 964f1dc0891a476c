package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/services"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

type LookupService interface {
	TeamMembers(ctx context.Context) ([]models.TeamMember, error)
	Zones(ctx context.Context) ([]models.Zone, error)
	CreateZone(ctx context.Context, name string) (*models.Zone, error)
	Sectors(ctx context.Context, zoneID string) ([]models.Sector, error)
	CreateSector(ctx context.Context, name, zoneID string) (*models.Sector, error)
}

type ProfileService interface {
	Columns(ctx context.Context, userID, view string) (*services.ColumnPrefs, error)
	SetColumns(ctx context.Context, userID, view string, visible []string) (*services.ColumnPrefs, error)
}

// LookupHandler serves dropdown data (team members, zones, sectors) and
// per-member column preferences
type LookupHandler struct {
	base
	lookups  LookupService
	profiles ProfileService
}

func NewLookupHandler(lookups LookupService, profiles ProfileService, v *validation.Validator, log *zap.Logger) *LookupHandler {
	return &LookupHandler{base: newBase(v, log), lookups: lookups, profiles: profiles}
}

// ListTeamMembers godoc
// @Summary List team members
// @Description List team members
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.TeamMember
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /team-members [get]
func (h *LookupHandler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.lookups.TeamMembers)
}

// ListZones godoc
// @Summary List zones
// @Description List zones
// @Tags Lookups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Zone
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /zones [get]
func (h *LookupHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.lookups.Zones)
}

// CreateZone godoc
// @Summary Create a zone
// @Description Create a zone
// @Tags Lookups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param zone body models.Zone true "Zone"
// @Success 201 {object} models.Zone
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /zones [post]
func (h *LookupHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var zone models.Zone
	if !h.decode(w, r, &zone, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.Zone, error) {
		return h.lookups.CreateZone(ctx, zone.Name)
	})
}

// ListSectors godoc
// @Summary List sectors
// @Description Returns sectors, optionally of one ?zoneId=
// @Tags Lookups
// @Produce json
// @Security BearerAuth
// @Param zoneId query string false "Zone ID"
// @Success 200 {array} models.Sector
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sectors [get]
func (h *LookupHandler) ListSectors(w http.ResponseWriter, r *http.Request) {
	zoneID := r.URL.Query().Get("zoneId")
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) ([]models.Sector, error) {
		return h.lookups.Sectors(ctx, zoneID)
	})
}

// CreateSector godoc
// @Summary Create a sector
// @Description Create a sector
// @Tags Lookups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sector body models.Sector true "Sector"
// @Success 201 {object} models.Sector
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sectors [post]
func (h *LookupHandler) CreateSector(w http.ResponseWriter, r *http.Request) {
	var sector models.Sector
	if !h.decode(w, r, &sector, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.Sector, error) {
		return h.lookups.CreateSector(ctx, sector.Name, sector.ZoneID)
	})
}

// GetColumns godoc
// @Summary Get visible columns
// @Description Returns the caller's visible columns for ?view=
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Param view query string true "leads, activities, inventory or orders"
// @Success 200 {object} services.ColumnPrefs
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /preferences/columns [get]
func (h *LookupHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	view := r.URL.Query().Get("view")
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*services.ColumnPrefs, error) {
		return h.profiles.Columns(ctx, p.UserID, view)
	})
}

// SetColumns godoc
// @Summary Set visible columns
// @Description Set visible columns
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param columns body models.UpdateColumnsRequest true "Visible columns"
// @Success 200 {object} services.ColumnPrefs
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /preferences/columns [put]
func (h *LookupHandler) SetColumns(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.UpdateColumnsRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*services.ColumnPrefs, error) {
		return h.profiles.SetColumns(ctx, p.UserID, req.View, req.Visible)
	})
}
