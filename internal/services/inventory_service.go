package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

type InventoryService struct {
	inventory InventoryStore
	changes   changes
	queries   *cache.QueryCache
	now       func() time.Time
	log       *zap.Logger
}

func NewInventoryService(inventory InventoryStore, deps Deps) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		changes:   deps.changes(),
		queries:   deps.Queries,
		now:       deps.clock(),
		log:       deps.logger(),
	}
}

// Create stores a new item. An unset available quantity means fully
// available; a sold-out item without a status is marked sold.
func (s *InventoryService) Create(ctx context.Context, p models.Principal, req models.CreateInventoryRequest) (*models.InventoryItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	item := models.InventoryItem{
		Name:              strings.TrimSpace(req.Name),
		Code:              req.Code,
		Type:              req.Type,
		Location:          req.Location,
		Zone:              req.Zone,
		Sector:            req.Sector,
		Dimensions:        req.Dimensions,
		Rate:              req.Rate,
		Quantity:          req.Quantity,
		AvailableQuantity: req.Quantity,
		Status:            req.Status,
	}
	if req.AvailableQuantity != nil {
		item.AvailableQuantity = *req.AvailableQuantity
	}
	if item.Status == "" {
		item.Status = models.InventoryAvailable
		if item.Quantity > 0 && item.AvailableQuantity == 0 {
			item.Status = models.InventorySold
		}
	}
	if err := checkInventory(item); err != nil {
		return nil, err
	}

	now := s.now()
	item.ID = uuid.MustNewUUID()
	item.CreatedBy = p.UserID
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.inventory.Create(ctx, &item); err != nil {
		s.log.Error("failed to create inventory item", zap.Error(err))
		return nil, err
	}
	s.changes.inserted(ctx, models.TableInventoryItems, item)
	return &item, nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*models.InventoryItem, error) {
	return s.inventory.GetByID(ctx, id)
}

// Poll keeps the cached inventory list fresh every interval until ctx is done
func (s *InventoryService) Poll(ctx context.Context, interval time.Duration) {
	if s.queries == nil {
		return
	}
	cache.Poll(ctx, s.queries, cache.QueryKey(models.TableInventoryItems), interval, s.inventory.List, nil)
}

func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	if s.queries == nil {
		return s.inventory.List(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableInventoryItems), s.inventory.List)
}

// Update applies a direct edit. The write only lands if available_quantity
// has not moved since the item was read.
func (s *InventoryService) Update(ctx context.Context, p models.Principal, id string, u models.InventoryUpdate) (*models.InventoryItem, error) {
	current, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item := *current
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Location != nil {
		item.Location = *u.Location
	}
	if u.Zone != nil {
		item.Zone = *u.Zone
	}
	if u.Sector != nil {
		item.Sector = *u.Sector
	}
	if u.Dimensions != nil {
		item.Dimensions = *u.Dimensions
	}
	if u.Rate != nil {
		item.Rate = *u.Rate
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.AvailableQuantity != nil {
		item.AvailableQuantity = *u.AvailableQuantity
	}
	if u.Status != nil {
		item.Status = *u.Status
	}
	if err := checkInventory(item); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.now()

	if err := s.inventory.Replace(ctx, &item, current.AvailableQuantity); err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableInventoryItems, item, current)
	return &item, nil
}

func checkInventory(item models.InventoryItem) error {
	if item.Quantity < 0 || item.AvailableQuantity < 0 {
		return fmt.Errorf("%w: quantities cannot be negative", ErrInvalidInput)
	}
	if item.AvailableQuantity > item.Quantity {
		return fmt.Errorf("%w: available quantity %d exceeds quantity %d", ErrInvalidInput, item.AvailableQuantity, item.Quantity)
	}
	if !models.IsInventoryStatus(item.Status) {
		return fmt.Errorf("%w: unsupported inventory status %q", ErrInvalidInput, item.Status)
	}
	return nil
}
