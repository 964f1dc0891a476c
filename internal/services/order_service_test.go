package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
)

func hoarding(id string, qty int, rate float64) models.InventoryItem {
	return models.InventoryItem{
		ID: id, Name: "Hoarding " + id, Type: "hoarding", Rate: rate,
		Quantity: qty, AvailableQuantity: qty, Status: models.InventoryAvailable,
	}
}

type orderFixture struct {
	inventory *memInventoryStore
	orders    *memOrderStore
	notifier  *recordingNotifier
	svc       *OrderService
}

func newOrderFixture(items ...models.InventoryItem) *orderFixture {
	f := &orderFixture{
		inventory: newMemInventoryStore(items...),
		orders:    newMemOrderStore(),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewOrderService(f.orders, f.inventory, decimal.Zero, testDeps(f.notifier))
	return f
}

func (f *orderFixture) create(t *testing.T, lines ...models.CreateOrderItemRequest) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), rep, models.CreateOrderRequest{ClientName: "Shreyas Media", Items: lines})
	require.NoError(t, err)
	return order
}

func line(id string, qty int) models.CreateOrderItemRequest {
	return models.CreateOrderItemRequest{InventoryItemID: id, Quantity: qty}
}

func TestApproveThenRejectRestoresStock(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000), hoarding("b", 5, 500))
	ctx := context.Background()
	order := f.create(t, line("a", 2), line("b", 3))

	approved, err := f.svc.Approve(ctx, rep, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderApproved, approved.Status)
	assert.Equal(t, 3, f.inventory.available("a"))
	assert.Equal(t, 2, f.inventory.available("b"))

	rejected, err := f.svc.Reject(ctx, rep, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRejected, rejected.Status)
	assert.Equal(t, 5, f.inventory.available("a"))
	assert.Equal(t, 5, f.inventory.available("b"))
}

func TestDoubleApprovalDoesNotTakeStockTwice(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000))
	ctx := context.Background()
	order := f.create(t, line("a", 2))

	_, err := f.svc.Approve(ctx, rep, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, rep, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPending)
	assert.Equal(t, 3, f.inventory.available("a"))
}

func TestApproveShortStockCompensates(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000), hoarding("b", 5, 500))
	ctx := context.Background()
	order := f.create(t, line("a", 2), line("b", 3))

	// another sale takes most of b after the order was placed
	_, err := f.inventory.Decrement(ctx, "b", 4, models.InventorySold)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, rep, order.ID)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	assert.Equal(t, 5, f.inventory.available("a"))
	assert.Equal(t, 1, f.inventory.available("b"))

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Empty(t, stored.ApprovedBy)
}

func TestApproveExhaustsToSold(t *testing.T) {
	f := newOrderFixture(hoarding("a", 2, 1000))
	ctx := context.Background()
	order := f.create(t, line("a", 2))

	_, err := f.svc.Approve(ctx, rep, order.ID)
	require.NoError(t, err)
	item, _ := f.inventory.GetByID(ctx, "a")
	assert.Equal(t, models.InventorySold, item.Status)

	_, err = f.svc.Reject(ctx, rep, order.ID)
	require.NoError(t, err)
	item, _ = f.inventory.GetByID(ctx, "a")
	assert.Equal(t, models.InventoryAvailable, item.Status)
	assert.Equal(t, 2, item.AvailableQuantity)
}

func TestRejectPendingLeavesStock(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000))
	ctx := context.Background()
	order := f.create(t, line("a", 2))

	_, err := f.svc.Reject(ctx, rep, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.inventory.available("a"))

	_, err = f.svc.Reject(ctx, rep, order.ID)
	assert.ErrorIs(t, err, ErrOrderAlreadyRejected)

	_, err = f.svc.Approve(ctx, rep, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotPending)
	assert.Equal(t, 5, f.inventory.available("a"))
}

func TestCreateOrderTotals(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000), hoarding("b", 5, 500))
	order := f.create(t, line("a", 2), line("b", 3))

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 3500.0, order.Subtotal)
	assert.Equal(t, 18.0, order.GSTRate)
	assert.Equal(t, 630.0, order.GSTAmount)
	assert.Equal(t, 4130.0, order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2000.0, order.Items[0].Amount)
	assert.Equal(t, 1, f.notifier.count(models.ChangeInsert, models.TableOrders))
	assert.Equal(t, 2, f.notifier.count(models.ChangeInsert, models.TableOrderItems))
	// no stock moves until approval
	assert.Equal(t, 5, f.inventory.available("a"))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(hoarding("a", 5, 1000))
	ctx := context.Background()

	_, err := f.svc.Create(ctx, rep, models.CreateOrderRequest{ClientName: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, rep, models.CreateOrderRequest{ClientName: "X", Items: []models.CreateOrderItemRequest{line("a", 6)}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, rep, models.CreateOrderRequest{ClientName: "X", Items: []models.CreateOrderItemRequest{line("missing", 1)}})
	assert.ErrorIs(t, err, repositories.ErrInventoryNotFound)
}

func TestComputeTotalsRounding(t *testing.T) {
	items := []models.OrderItem{{Quantity: 1, Rate: 99.99}}
	totals := ComputeTotals(items, DefaultGSTRate)

	assert.Equal(t, "99.99", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "18.00", totals.GSTAmount.StringFixed(2))
	assert.Equal(t, "117.99", totals.Total.StringFixed(2))
}

func TestBookingTakesAndReturnsStock(t *testing.T) {
	inventory := newMemInventoryStore(hoarding("gate", 2, 5000))
	bookings := newMemBookingStore()
	svc := NewBookingService(bookings, inventory, testDeps(nil))
	ctx := context.Background()

	b, err := svc.Create(ctx, rep, models.Booking{
		InventoryItemID: "gate", ClientName: "Temple Trust", Quantity: 2,
		StartDate: testNow, EndDate: testNow.AddDate(0, 0, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	item, _ := inventory.GetByID(ctx, "gate")
	assert.Equal(t, 0, item.AvailableQuantity)
	assert.Equal(t, models.InventoryBooked, item.Status)

	_, err = svc.Create(ctx, rep, models.Booking{
		InventoryItemID: "gate", ClientName: "Late", Quantity: 1,
		StartDate: testNow, EndDate: testNow,
	})
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)

	_, err = svc.Cancel(ctx, rep, b.ID)
	require.NoError(t, err)
	item, _ = inventory.GetByID(ctx, "gate")
	assert.Equal(t, 2, item.AvailableQuantity)
	assert.Equal(t, models.InventoryAvailable, item.Status)

	_, err = svc.Cancel(ctx, rep, b.ID)
	assert.True(t, repositories.IsConflict(err))
	assert.Equal(t, 2, inventory.available("gate"))
}

func TestBookingStoreFailureReturnsStock(t *testing.T) {
	inventory := newMemInventoryStore(hoarding("gate", 2, 5000))
	bookings := newMemBookingStore()
	bookings.fail = assert.AnError
	svc := NewBookingService(bookings, inventory, testDeps(nil))

	_, err := svc.Create(context.Background(), rep, models.Booking{
		InventoryItemID: "gate", ClientName: "Temple Trust", Quantity: 1,
		StartDate: testNow, EndDate: testNow,
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, inventory.available("gate"))
}

func TestInventoryUpdateRejectsOverAvailable(t *testing.T) {
	inventory := newMemInventoryStore(hoarding("a", 5, 1000))
	svc := NewInventoryService(inventory, testDeps(nil))
	ctx := context.Background()

	six := 6
	_, err := svc.Update(ctx, rep, "a", models.InventoryUpdate{AvailableQuantity: &six})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ten := 10
	item, err := svc.Update(ctx, rep, "a", models.InventoryUpdate{Quantity: &ten, AvailableQuantity: &six})
	require.NoError(t, err)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 6, item.AvailableQuantity)
}

func TestInventoryCreateAvailableQuantity(t *testing.T) {
	ctx := context.Background()
	svc := NewInventoryService(newMemInventoryStore(), testDeps(nil))

	open, err := svc.Create(ctx, rep, models.CreateInventoryRequest{Name: "Gate 4 arch", Type: "gate", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, open.AvailableQuantity, "unset means fully available")
	assert.Equal(t, models.InventoryAvailable, open.Status)

	zero := 0
	soldOut, err := svc.Create(ctx, rep, models.CreateInventoryRequest{Name: "Ghat 2 hoarding", Type: "hoarding", Quantity: 4, AvailableQuantity: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, soldOut.AvailableQuantity)
	assert.Equal(t, models.InventorySold, soldOut.Status)

	two := 2
	partial, err := svc.Create(ctx, rep, models.CreateInventoryRequest{Name: "Sector 5 wall", Type: "wall", Quantity: 4, AvailableQuantity: &two, Status: models.InventoryReserved})
	require.NoError(t, err)
	assert.Equal(t, 2, partial.AvailableQuantity)
	assert.Equal(t, models.InventoryReserved, partial.Status)

	five := 5
	_, err = svc.Create(ctx, rep, models.CreateInventoryRequest{Name: "x", Type: "wall", Quantity: 4, AvailableQuantity: &five})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
