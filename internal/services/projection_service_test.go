package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

func TestSummarizeByZone(t *testing.T) {
	targets := []models.ProjectionTarget{
		{Zone: "North", Sector: "1", TargetAmount: 100000},
		{Zone: "North", Sector: "2", TargetAmount: 50000},
		{Zone: "East", TargetAmount: 80000},
	}
	entries := []models.ProjectionEntry{
		{Zone: "North", ProjectedAmount: 90000, AchievedAmount: 60000},
		{Zone: "North", ProjectedAmount: 30000.5, AchievedAmount: 15000.25},
		{Zone: "South", ProjectedAmount: 10000},
	}

	s := Summarize("2025-01", targets, entries)
	require.Len(t, s.Zones, 3)
	assert.Equal(t, []string{"East", "North", "South"}, []string{s.Zones[0].Zone, s.Zones[1].Zone, s.Zones[2].Zone})

	north := s.Zones[1]
	assert.Equal(t, 150000.0, north.Target)
	assert.Equal(t, 120000.5, north.Projected)
	assert.Equal(t, 75000.25, north.Achieved)
	assert.Equal(t, 50.0, north.AchievementPct)

	// no target means no percentage
	assert.Equal(t, 0.0, s.Zones[2].AchievementPct)

	assert.Equal(t, 230000.0, s.Totals.Target)
	assert.Equal(t, 130000.5, s.Totals.Projected)
}

func TestSummaryRejectsBadMonth(t *testing.T) {
	svc := NewProjectionService(nil, testDeps(nil))
	_, err := svc.Summary(context.Background(), "January")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
