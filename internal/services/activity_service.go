package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/filters"
	"github.com/shreyas/kumbhmela-leads/internal/mappers"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// recentActivityLimit caps the unscoped activity feed when no date window
// narrows the query
const recentActivityLimit = 500

type ActivityService struct {
	activities ActivityStore
	leads      LeadStore
	changes    changes
	queries    *cache.QueryCache
	loc        *time.Location
	now        func() time.Time
	log        *zap.Logger
}

func NewActivityService(activities ActivityStore, leads LeadStore, loc *time.Location, deps Deps) *ActivityService {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityService{
		activities: activities,
		leads:      leads,
		changes:    deps.changes(),
		queries:    deps.Queries,
		loc:        loc,
		now:        deps.clock(),
		log:        deps.logger(),
	}
}

// Create logs an activity against an existing lead. A follow_up activity
// also copies its outcome and next action onto the lead.
func (s *ActivityService) Create(ctx context.Context, p models.Principal, a models.Activity) (*models.Activity, error) {
	if err := validateActivity(a); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, a.LeadID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a.ID = uuid.MustNewUUID()
	a.CreatedBy = p.UserID
	a.CreatedAt = now
	a.UpdatedAt = now
	a.HiddenFor = nil

	row := mappers.ActivityToRow(a)
	if err := s.activities.Create(ctx, &row); err != nil {
		s.log.Error("failed to create activity", zap.String("lead_id", a.LeadID), zap.Error(err))
		return nil, err
	}
	s.changes.inserted(ctx, models.TableActivities, row)

	if a.Type == models.ActivityFollowUp {
		updated, err := s.leads.SetFollowUp(ctx, a.LeadID, a.NextActionDate, a.Outcome, a.NextAction)
		if err != nil {
			s.log.Error("failed to apply follow-up to lead", zap.String("lead_id", a.LeadID), zap.Error(err))
			return nil, err
		}
		s.changes.updated(ctx, models.TableLeads, updated, lead)
	}

	out := mappers.ActivityFromRow(row)
	return &out, nil
}

func validateActivity(a models.Activity) error {
	if strings.TrimSpace(a.LeadID) == "" {
		return fmt.Errorf("%w: leadId is required", ErrInvalidInput)
	}
	if !models.IsActivityType(a.Type) {
		return fmt.Errorf("%w: unsupported activity type %q", ErrInvalidInput, a.Type)
	}
	if a.Type == models.ActivityCall && a.CallType != "" &&
		a.CallType != models.CallIncoming && a.CallType != models.CallOutgoing {
		return fmt.Errorf("%w: callType must be %q or %q", ErrInvalidInput, models.CallIncoming, models.CallOutgoing)
	}
	if a.StartTime != nil && a.EndTime != nil && a.EndTime.Before(*a.StartTime) {
		return fmt.Errorf("%w: endTime is before startTime", ErrInvalidInput)
	}
	return nil
}

// List returns activities matching f, scoped to one lead when f.LeadID is set
func (s *ActivityService) List(ctx context.Context, f filters.ActivityFilter) ([]models.Activity, error) {
	if f.Date.Location == nil {
		f.Date.Location = s.loc
	}
	now := s.now()
	from, to, windowed := f.Date.Window(now)

	var (
		all []models.Activity
		err error
	)
	switch {
	case f.LeadID != "":
		all, err = s.load(ctx, cache.QueryKey(models.TableActivities, "lead", f.LeadID), func(ctx context.Context) ([]models.ActivityRow, error) {
			return s.activities.ListByLead(ctx, f.LeadID)
		})
	case windowed:
		key := cache.QueryKey(models.TableActivities, "window", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
		all, err = s.load(ctx, key, func(ctx context.Context) ([]models.ActivityRow, error) {
			return s.activities.ListBetween(ctx, from, to)
		})
	default:
		all, err = s.load(ctx, cache.QueryKey(models.TableActivities), func(ctx context.Context) ([]models.ActivityRow, error) {
			rows, err := s.activities.List(ctx, recentActivityLimit)
			if err == nil && len(rows) >= recentActivityLimit {
				s.log.Warn("activity feed truncated", zap.Int("limit", recentActivityLimit))
			}
			return rows, err
		})
	}
	if err != nil {
		return nil, err
	}
	return filters.Activities(all, f, now), nil
}

func (s *ActivityService) load(ctx context.Context, key string, read func(context.Context) ([]models.ActivityRow, error)) ([]models.Activity, error) {
	fetch := func(ctx context.Context) ([]models.Activity, error) {
		rows, err := read(ctx)
		if err != nil {
			return nil, err
		}
		return mappers.ActivitiesFromRows(rows), nil
	}
	if s.queries == nil {
		return fetch(ctx)
	}
	return cache.Fetch(ctx, s.queries, key, fetch)
}

// Hide dismisses an activity for the calling member only
func (s *ActivityService) Hide(ctx context.Context, p models.Principal, id string) (*models.Activity, error) {
	return s.mutate(ctx, id, func(ctx context.Context) (*models.ActivityRow, error) {
		return s.activities.Hide(ctx, id, p.UserID)
	})
}

// Unhide reverses Hide for the calling member
func (s *ActivityService) Unhide(ctx context.Context, p models.Principal, id string) (*models.Activity, error) {
	return s.mutate(ctx, id, func(ctx context.Context) (*models.ActivityRow, error) {
		return s.activities.Unhide(ctx, id, p.UserID)
	})
}

// SetUpdate stores the free-text progress update of an activity
func (s *ActivityService) SetUpdate(ctx context.Context, p models.Principal, id, text string) (*models.Activity, error) {
	return s.mutate(ctx, id, func(ctx context.Context) (*models.ActivityRow, error) {
		return s.activities.SetUpdate(ctx, id, strings.TrimSpace(text))
	})
}

func (s *ActivityService) mutate(ctx context.Context, id string, apply func(context.Context) (*models.ActivityRow, error)) (*models.Activity, error) {
	before, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row, err := apply(ctx)
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableActivities, row, before)

	out := mappers.ActivityFromRow(*row)
	return &out, nil
}
