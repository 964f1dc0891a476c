package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

type InventoryService interface {
	Create(ctx context.Context, p models.Principal, req models.CreateInventoryRequest) (*models.InventoryItem, error)
	Get(ctx context.Context, id string) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
	Update(ctx context.Context, p models.Principal, id string, u models.InventoryUpdate) (*models.InventoryItem, error)
}

// InventoryHandler handles ad-space inventory endpoints
type InventoryHandler struct {
	base
	inventory InventoryService
}

func NewInventoryHandler(inventory InventoryService, v *validation.Validator, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{base: newBase(v, log), inventory: inventory}
}

// ListInventory godoc
// @Summary List inventory
// @Description List inventory
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.InventoryItem
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /inventory [get]
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	items, err := h.inventory.List(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

// GetInventoryItem godoc
// @Summary Get an inventory item
// @Description Get an inventory item
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inventory item ID"
// @Success 200 {object} models.InventoryItem
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /inventory/{id} [get]
func (h *InventoryHandler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	item, err := h.inventory.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// CreateInventoryItem godoc
// @Summary Create an inventory item
// @Description Create an inventory item
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body models.CreateInventoryRequest true "Inventory item"
// @Success 201 {object} models.InventoryItem
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /inventory [post]
func (h *InventoryHandler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.CreateInventoryRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.inventory.Create(ctx, p, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateInventoryItem godoc
// @Summary Update an inventory item
// @Description Edits an item directly; available stock never exceeds quantity
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inventory item ID"
// @Param update body models.InventoryUpdate true "Changed fields"
// @Success 200 {object} models.InventoryItem
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /inventory/{id} [patch]
func (h *InventoryHandler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var update models.InventoryUpdate
	if !h.decode(w, r, &update, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	item, err := h.inventory.Update(ctx, p, mux.Vars(r)["id"], update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}
