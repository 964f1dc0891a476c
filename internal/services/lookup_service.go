package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// LookupService serves the small reference tables: team members, zones and sectors
type LookupService struct {
	lookups LookupStore
	members TeamMemberStore
	changes changes
	queries *cache.QueryCache
	now     func() time.Time
	log     *zap.Logger
}

func NewLookupService(lookups LookupStore, members TeamMemberStore, deps Deps) *LookupService {
	return &LookupService{
		lookups: lookups,
		members: members,
		changes: deps.changes(),
		queries: deps.Queries,
		now:     deps.clock(),
		log:     deps.logger(),
	}
}

func (s *LookupService) TeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	load := func(ctx context.Context) ([]models.TeamMember, error) {
		return s.members.List(ctx, true)
	}
	if s.queries == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableTeamMembers), load)
}

func (s *LookupService) Zones(ctx context.Context) ([]models.Zone, error) {
	if s.queries == nil {
		return s.lookups.ListZones(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableZones), s.lookups.ListZones)
}

func (s *LookupService) CreateZone(ctx context.Context, name string) (*models.Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	z := &models.Zone{ID: uuid.MustNewUUID(), Name: name, CreatedAt: s.now()}
	if err := s.lookups.CreateZone(ctx, z); err != nil {
		return nil, err
	}
	s.changes.inserted(ctx, models.TableZones, z)
	return z, nil
}

func (s *LookupService) Sectors(ctx context.Context, zoneID string) ([]models.Sector, error) {
	load := func(ctx context.Context) ([]models.Sector, error) {
		return s.lookups.ListSectors(ctx, zoneID)
	}
	if s.queries == nil {
		return load(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableSectors, zoneID), load)
}

func (s *LookupService) CreateSector(ctx context.Context, name, zoneID string) (*models.Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	sec := &models.Sector{ID: uuid.MustNewUUID(), Name: name, ZoneID: zoneID, CreatedAt: s.now()}
	if err := s.lookups.CreateSector(ctx, sec); err != nil {
		return nil, err
	}
	s.changes.inserted(ctx, models.TableSectors, sec)
	return sec, nil
}

// ProfileService stores per-member table preferences
type ProfileService struct {
	profiles ProfileStore
	now      func() time.Time
}

func NewProfileService(profiles ProfileStore, deps Deps) *ProfileService {
	return &ProfileService{profiles: profiles, now: deps.clock()}
}

// ColumnPrefs is the column visibility of one view
type ColumnPrefs struct {
	View      string   `json:"view"`
	Visible   []string `json:"visible"`
	Available []string `json:"available"`
}

func columnPrefs(c filters.Columns) *ColumnPrefs {
	return &ColumnPrefs{View: c.View(), Visible: c.List(), Available: c.All()}
}

// Columns returns the member's column set for a view, defaults when unset
func (s *ProfileService) Columns(ctx context.Context, userID, view string) (*ColumnPrefs, error) {
	if !filters.IsView(view) {
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidInput, view)
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible, ok := profile.Columns[view]
	if !ok {
		return columnPrefs(filters.DefaultColumns(view)), nil
	}
	return columnPrefs(filters.NewColumns(view, visible)), nil
}

// SetColumns replaces the member's visible columns for a view
func (s *ProfileService) SetColumns(ctx context.Context, userID, view string, visible []string) (*ColumnPrefs, error) {
	if !filters.IsView(view) {
		return nil, fmt.Errorf("%w: unknown view %q", ErrInvalidInput, view)
	}
	cols := filters.NewColumns(view, visible)
	if _, err := s.profiles.SetColumns(ctx, userID, view, cols.List(), s.now()); err != nil {
		return nil, err
	}
	return columnPrefs(cols), nil
}
