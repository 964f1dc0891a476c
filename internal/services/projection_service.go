package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

type ProjectionService struct {
	projections ProjectionStore
	changes     changes
	now         func() time.Time
	log         *zap.Logger
}

func NewProjectionService(projections ProjectionStore, deps Deps) *ProjectionService {
	return &ProjectionService{projections: projections, changes: deps.changes(), now: deps.clock(), log: deps.logger()}
}

// SetTarget creates or replaces the target of a zone/sector for a month
func (s *ProjectionService) SetTarget(ctx context.Context, p models.Principal, t models.ProjectionTarget) (*models.ProjectionTarget, error) {
	t.Zone = strings.TrimSpace(t.Zone)
	if t.Zone == "" {
		return nil, fmt.Errorf("%w: zone is required", ErrInvalidInput)
	}
	if err := checkMonth(t.Month); err != nil {
		return nil, err
	}
	if t.TargetAmount < 0 {
		return nil, fmt.Errorf("%w: target cannot be negative", ErrInvalidInput)
	}
	now := s.now()
	t.ID = uuid.MustNewUUID()
	t.CreatedBy = p.UserID
	t.CreatedAt = now
	t.UpdatedAt = now

	stored, err := s.projections.UpsertTarget(ctx, &t)
	if err != nil {
		s.log.Error("failed to save projection target", zap.String("zone", t.Zone), zap.String("month", t.Month), zap.Error(err))
		return nil, err
	}
	s.changes.updated(ctx, models.TableProjectionTargets, stored, nil)
	return stored, nil
}

// AddEntry records a projected amount for a client
func (s *ProjectionService) AddEntry(ctx context.Context, p models.Principal, e models.ProjectionEntry) (*models.ProjectionEntry, error) {
	e.Zone = strings.TrimSpace(e.Zone)
	if e.Zone == "" {
		return nil, fmt.Errorf("%w: zone is required", ErrInvalidInput)
	}
	if err := checkMonth(e.Month); err != nil {
		return nil, err
	}
	if e.ProjectedAmount < 0 || e.AchievedAmount < 0 {
		return nil, fmt.Errorf("%w: amounts cannot be negative", ErrInvalidInput)
	}
	e.ID = uuid.MustNewUUID()
	e.CreatedBy = p.UserID
	e.CreatedAt = s.now()

	if err := s.projections.CreateEntry(ctx, &e); err != nil {
		return nil, err
	}
	s.changes.inserted(ctx, models.TableProjectionEntries, e)
	return &e, nil
}

func (s *ProjectionService) Targets(ctx context.Context, month string) ([]models.ProjectionTarget, error) {
	return s.projections.ListTargets(ctx, month)
}

func (s *ProjectionService) Entries(ctx context.Context, month string) ([]models.ProjectionEntry, error) {
	return s.projections.ListEntries(ctx, month)
}

// Summary totals targets, projections and achievements per zone for a month
func (s *ProjectionService) Summary(ctx context.Context, month string) (*models.ProjectionSummary, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	targets, err := s.projections.ListTargets(ctx, month)
	if err != nil {
		return nil, err
	}
	entries, err := s.projections.ListEntries(ctx, month)
	if err != nil {
		return nil, err
	}
	return Summarize(month, targets, entries), nil
}

type zoneSums struct {
	target, projected, achieved decimal.Decimal
}

// Summarize aggregates targets and entries by zone. Zones are sorted by name.
func Summarize(month string, targets []models.ProjectionTarget, entries []models.ProjectionEntry) *models.ProjectionSummary {
	byZone := map[string]*zoneSums{}
	get := func(zone string) *zoneSums {
		z, ok := byZone[zone]
		if !ok {
			z = &zoneSums{}
			byZone[zone] = z
		}
		return z
	}
	for _, t := range targets {
		z := get(t.Zone)
		z.target = z.target.Add(decimal.NewFromFloat(t.TargetAmount))
	}
	for _, e := range entries {
		z := get(e.Zone)
		z.projected = z.projected.Add(decimal.NewFromFloat(e.ProjectedAmount))
		z.achieved = z.achieved.Add(decimal.NewFromFloat(e.AchievedAmount))
	}

	names := make([]string, 0, len(byZone))
	for name := range byZone {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &models.ProjectionSummary{Month: month, Zones: make([]models.ProjectionSummaryRow, 0, len(names))}
	var total zoneSums
	for _, name := range names {
		z := byZone[name]
		out.Zones = append(out.Zones, summaryRow(name, *z))
		total.target = total.target.Add(z.target)
		total.projected = total.projected.Add(z.projected)
		total.achieved = total.achieved.Add(z.achieved)
	}
	out.Totals = summaryRow("", total)
	return out
}

func summaryRow(zone string, z zoneSums) models.ProjectionSummaryRow {
	row := models.ProjectionSummaryRow{
		Zone:      zone,
		Target:    z.target.Round(2).InexactFloat64(),
		Projected: z.projected.Round(2).InexactFloat64(),
		Achieved:  z.achieved.Round(2).InexactFloat64(),
	}
	if z.target.IsPositive() {
		row.AchievementPct = z.achieved.Mul(hundred).Div(z.target).Round(1).InexactFloat64()
	}
	return row
}

func checkMonth(month string) error {
	if _, err := time.Parse("2006-01", month); err != nil {
		return fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	return nil
}
