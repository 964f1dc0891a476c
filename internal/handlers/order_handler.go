package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

// OrderService prices, approves and rejects orders
type OrderService interface {
	Create(ctx context.Context, p models.Principal, req models.CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, status string) ([]models.Order, error)
	Approve(ctx context.Context, p models.Principal, id string) (*models.Order, error)
	Reject(ctx context.Context, p models.Principal, id string) (*models.Order, error)
}

// BookingService reserves inventory over a date range
type BookingService interface {
	Create(ctx context.Context, p models.Principal, b models.Booking) (*models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, inventoryItemID string) ([]models.Booking, error)
	Cancel(ctx context.Context, p models.Principal, id string) (*models.Booking, error)
}

// OrderHandler handles order and booking endpoints
type OrderHandler struct {
	base
	orders   OrderService
	bookings BookingService
}

func NewOrderHandler(orders OrderService, bookings BookingService, v *validation.Validator, log *zap.Logger) *OrderHandler {
	return &OrderHandler{base: newBase(v, log), orders: orders, bookings: bookings}
}

// ListOrders godoc
// @Summary List orders
// @Description Returns orders, optionally only those with ?status=
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Success 200 {array} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", models.OrderPending, models.OrderApproved, models.OrderRejected:
	default:
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be pending, approved or rejected")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := h.orders.List(ctx, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

// GetOrder godoc
// @Summary Get an order
// @Description Get an order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

// CreateOrder godoc
// @Summary Create an order
// @Description Creates a pending order priced from inventory rates
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body models.CreateOrderRequest true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.orders.Create(ctx, p, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

// ApproveOrder godoc
// @Summary Approve an order
// @Description Approves a pending order and takes its items out of stock
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orders/{id}/approve [post]
func (h *OrderHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Approve)
}

// RejectOrder godoc
// @Summary Reject an order
// @Description Rejects an order, returning stock if it had been approved
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /orders/{id}/reject [post]
func (h *OrderHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Reject)
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, models.Principal, string) (*models.Order, error)) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := apply(ctx, p, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

// ListBookings godoc
// @Summary List bookings
// @Description Returns bookings, optionally for one ?inventoryItemId=
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param inventoryItemId query string false "Inventory item ID"
// @Success 200 {array} models.Booking
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings [get]
func (h *OrderHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	bookings, err := h.bookings.List(ctx, r.URL.Query().Get("inventoryItemId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bookings)
}

// CreateBooking godoc
// @Summary Create a booking
// @Description Create a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booking body models.Booking true "Booking"
// @Success 201 {object} models.Booking
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings [post]
func (h *OrderHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var booking models.Booking
	if !h.decode(w, r, &booking, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := h.bookings.Create(ctx, p, booking)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels a booking and returns its quantity to stock
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /bookings/{id}/cancel [post]
func (h *OrderHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	booking, err := h.bookings.Cancel(ctx, p, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}
