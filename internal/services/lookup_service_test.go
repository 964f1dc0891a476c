package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/filters"
)

func TestZonesAndSectors(t *testing.T) {
	ctx := context.Background()
	store := &memLookupStore{}
	deps := testDeps(nil)
	deps.Queries = cache.NewQueryCache(cache.NewMemory(), time.Minute, 0, nil)
	svc := NewLookupService(store, newMemMemberStore(), deps)

	_, err := svc.CreateZone(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	north, err := svc.CreateZone(ctx, " North ")
	require.NoError(t, err)
	assert.Equal(t, "North", north.Name)

	zones, err := svc.Zones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 1)
	_, _ = svc.Zones(ctx)
	assert.Equal(t, 1, store.zoneListing, "second read served from cache")

	_, err = svc.CreateZone(ctx, "East")
	require.NoError(t, err)
	zones, err = svc.Zones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 2, "create invalidates the cached list")

	_, err = svc.CreateSector(ctx, "Sector 1", north.ID)
	require.NoError(t, err)
	_, err = svc.CreateSector(ctx, "Sector 9", "other-zone")
	require.NoError(t, err)
	_, err = svc.CreateSector(ctx, "", north.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	sectors, err := svc.Sectors(ctx, north.ID)
	require.NoError(t, err)
	require.Len(t, sectors, 1)
	assert.Equal(t, "Sector 1", sectors[0].Name)

	all, err := svc.Sectors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestColumnPreferences(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(newMemProfileStore(), testDeps(nil))

	_, err := svc.Columns(ctx, rep.UserID, "calendar")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetColumns(ctx, rep.UserID, "calendar", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	defaults, err := svc.Columns(ctx, rep.UserID, filters.ViewLeads)
	require.NoError(t, err)
	assert.Equal(t, filters.DefaultColumns(filters.ViewLeads).List(), defaults.Visible)
	assert.Equal(t, defaults.Visible, defaults.Available)

	saved, err := svc.SetColumns(ctx, rep.UserID, filters.ViewLeads, []string{"status", "bogus", "clientName"})
	require.NoError(t, err)
	assert.Equal(t, []string{"clientName", "status"}, saved.Visible, "unknown names dropped, display order kept")

	got, err := svc.Columns(ctx, rep.UserID, filters.ViewLeads)
	require.NoError(t, err)
	assert.Equal(t, saved.Visible, got.Visible)

	other, err := svc.Columns(ctx, rep.UserID, filters.ViewOrders)
	require.NoError(t, err)
	assert.Equal(t, filters.DefaultColumns(filters.ViewOrders).List(), other.Visible, "views are independent")
}
