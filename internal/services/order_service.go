package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// DefaultGSTRate is the GST percentage applied when none is configured
var DefaultGSTRate = decimal.NewFromInt(18)

var hundred = decimal.NewFromInt(100)

// OrderService creates orders and moves them through approval. Approval
// takes stock from inventory and rejecting an approved order returns it.
type OrderService struct {
	orders    OrderStore
	inventory InventoryStore
	gstRate   decimal.Decimal
	changes   changes
	queries   *cache.QueryCache
	now       func() time.Time
	log       *zap.Logger
}

func NewOrderService(orders OrderStore, inventory InventoryStore, gstRate decimal.Decimal, deps Deps) *OrderService {
	if gstRate.IsZero() {
		gstRate = DefaultGSTRate
	}
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		gstRate:   gstRate,
		changes:   deps.changes(),
		queries:   deps.Queries,
		now:       deps.clock(),
		log:       deps.logger(),
	}
}

// Totals are the money fields of an order, rounded to paise
type Totals struct {
	Subtotal  decimal.Decimal
	GSTAmount decimal.Decimal
	Total     decimal.Decimal
}

// LineAmount is rate times quantity, rounded to two places
func LineAmount(rate decimal.Decimal, qty int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// ComputeTotals sums the line amounts and applies gstRate percent on top
func ComputeTotals(items []models.OrderItem, gstRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineAmount(decimal.NewFromFloat(it.Rate), it.Quantity))
	}
	gst := subtotal.Mul(gstRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:  subtotal,
		GSTAmount: gst,
		Total:     subtotal.Add(gst),
	}
}

// Create prices the requested lines from inventory and stores a pending order.
// No stock is taken until approval.
func (s *OrderService) Create(ctx context.Context, p models.Principal, req models.CreateOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, fmt.Errorf("%w: clientName is required", ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", ErrInvalidInput)
	}

	orderID := uuid.MustNewUUID()
	items := make([]models.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i+1)
		}
		inv, err := s.inventory.GetByID(ctx, line.InventoryItemID)
		if err != nil {
			return nil, err
		}
		if line.Quantity > inv.Quantity {
			return nil, fmt.Errorf("%w: item %d asks for %d of %s which only has %d", ErrInvalidInput, i+1, line.Quantity, inv.Name, inv.Quantity)
		}
		rate := decimal.NewFromFloat(inv.Rate)
		if line.Rate != nil {
			rate = decimal.NewFromFloat(*line.Rate)
		}
		items = append(items, models.OrderItem{
			ID:              uuid.MustNewUUID(),
			OrderID:         orderID,
			InventoryItemID: inv.ID,
			Quantity:        line.Quantity,
			Rate:            rate.InexactFloat64(),
			Amount:          LineAmount(rate, line.Quantity).InexactFloat64(),
		})
	}

	totals := ComputeTotals(items, s.gstRate)
	now := s.now()
	order := &models.Order{
		ID:         orderID,
		LeadID:     req.LeadID,
		ClientName: strings.TrimSpace(req.ClientName),
		Status:     models.OrderPending,
		Subtotal:   totals.Subtotal.InexactFloat64(),
		GSTRate:    s.gstRate.InexactFloat64(),
		GSTAmount:  totals.GSTAmount.InexactFloat64(),
		Total:      totals.Total.InexactFloat64(),
		Notes:      req.Notes,
		Items:      items,
		CreatedBy:  p.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	s.changes.inserted(ctx, models.TableOrders, order)
	for _, it := range items {
		s.changes.inserted(ctx, models.TableOrderItems, it)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// PollPending keeps the cached approval queue fresh every interval until ctx is done
func (s *OrderService) PollPending(ctx context.Context, interval time.Duration) {
	if s.queries == nil {
		return
	}
	cache.Poll(ctx, s.queries, cache.QueryKey(models.TableOrders, models.OrderPending), interval, func(ctx context.Context) ([]models.Order, error) {
		return s.orders.List(ctx, models.OrderPending)
	}, nil)
}

func (s *OrderService) List(ctx context.Context, status string) ([]models.Order, error) {
	load := func(ctx context.Context) ([]models.Order, error) {
		return s.orders.List(ctx, status)
	}
	if s.queries == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableOrders, status), load)
}

// Approve moves a pending order to approved and takes each line's quantity
// from inventory. If any line is short, stock already taken is returned and
// the order goes back to pending.
func (s *OrderService) Approve(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	now := s.now()
	order, err := s.orders.Transition(ctx, id, models.OrderPending, models.OrderApproved, p.UserID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusTransitionStale) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotPending, id)
		}
		return nil, err
	}

	taken := make([]models.OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		inv, err := s.inventory.Decrement(ctx, it.InventoryItemID, it.Quantity, models.InventorySold)
		if err != nil {
			s.log.Warn("approval failed, returning stock",
				zap.String("order_id", id),
				zap.String("inventory_item_id", it.InventoryItemID),
				zap.Error(err))
			s.restore(ctx, taken)
			if _, rerr := s.orders.Transition(ctx, id, models.OrderApproved, models.OrderPending, p.UserID, s.now()); rerr != nil {
				s.log.Error("failed to reset order to pending", zap.String("order_id", id), zap.Error(rerr))
			}
			return nil, err
		}
		taken = append(taken, it)
		s.changes.updated(ctx, models.TableInventoryItems, inv, nil)
	}

	s.changes.updated(ctx, models.TableOrders, order, nil)
	s.log.Info("order approved", zap.String("order_id", id), zap.String("by", p.UserID))
	return order, nil
}

// Reject rejects a pending or approved order. An approved order's stock is
// returned to inventory.
func (s *OrderService) Reject(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.OrderRejected {
		return nil, fmt.Errorf("%w: %s", ErrOrderAlreadyRejected, id)
	}

	order, err := s.orders.Transition(ctx, id, current.Status, models.OrderRejected, p.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if current.Status == models.OrderApproved {
		s.restore(ctx, order.Items)
	}

	s.changes.updated(ctx, models.TableOrders, order, current)
	s.log.Info("order rejected", zap.String("order_id", id), zap.String("from", current.Status), zap.String("by", p.UserID))
	return order, nil
}

// restore gives back the quantities of items. Failures are logged and the
// remaining items are still restored.
func (s *OrderService) restore(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		inv, err := s.inventory.Restore(ctx, it.InventoryItemID, it.Quantity)
		if err != nil {
			s.log.Error("failed to restore stock",
				zap.String("inventory_item_id", it.InventoryItemID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
			continue
		}
		s.changes.updated(ctx, models.TableInventoryItems, inv, nil)
	}
}
