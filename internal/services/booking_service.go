package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// BookingService reserves inventory for a date range
type BookingService struct {
	bookings  BookingStore
	inventory InventoryStore
	changes   changes
	now       func() time.Time
	log       *zap.Logger
}

func NewBookingService(bookings BookingStore, inventory InventoryStore, deps Deps) *BookingService {
	return &BookingService{
		bookings:  bookings,
		inventory: inventory,
		changes:   deps.changes(),
		now:       deps.clock(),
		log:       deps.logger(),
	}
}

// Create takes the booked quantity from inventory and stores the booking.
// The stock is returned if the booking cannot be stored.
func (s *BookingService) Create(ctx context.Context, p models.Principal, b models.Booking) (*models.Booking, error) {
	if b.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(b.ClientName) == "" {
		return nil, fmt.Errorf("%w: clientName is required", ErrInvalidInput)
	}
	if b.EndDate.Before(b.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	inv, err := s.inventory.Decrement(ctx, b.InventoryItemID, b.Quantity, models.InventoryBooked)
	if err != nil {
		return nil, err
	}

	now := s.now()
	b.ID = uuid.MustNewUUID()
	b.Status = models.BookingConfirmed
	b.CreatedBy = p.UserID
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.bookings.Create(ctx, &b); err != nil {
		s.log.Error("failed to create booking, returning stock", zap.String("inventory_item_id", b.InventoryItemID), zap.Error(err))
		if _, rerr := s.inventory.Restore(ctx, b.InventoryItemID, b.Quantity); rerr != nil {
			s.log.Error("failed to restore stock", zap.String("inventory_item_id", b.InventoryItemID), zap.Error(rerr))
		}
		return nil, err
	}

	s.changes.updated(ctx, models.TableInventoryItems, inv, nil)
	s.changes.inserted(ctx, models.TableBookings, b)
	return &b, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) List(ctx context.Context, inventoryItemID string) ([]models.Booking, error) {
	return s.bookings.List(ctx, inventoryItemID)
}

// Cancel cancels a confirmed booking and returns its stock
func (s *BookingService) Cancel(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	b, err := s.bookings.Cancel(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableBookings, b, nil)

	inv, err := s.inventory.Restore(ctx, b.InventoryItemID, b.Quantity)
	if err != nil {
		s.log.Error("failed to restore stock for cancelled booking", zap.String("booking_id", id), zap.Error(err))
		return b, nil
	}
	s.changes.updated(ctx, models.TableInventoryItems, inv, nil)
	return b, nil
}
