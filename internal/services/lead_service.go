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
	"github.com/shreyas/kumbhmela-leads/internal/realtime"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// LeadService handles lead CRUD, inline edits, conversion and custom statuses
type LeadService struct {
	leads      LeadStore
	statuses   LeadStatusStore
	activities ActivityStore
	live       *realtime.LiveCollection[models.Lead]
	changes    changes
	queries    *cache.QueryCache
	loc        *time.Location
	now        func() time.Time
	log        *zap.Logger
}

func NewLeadService(leads LeadStore, statuses LeadStatusStore, activities ActivityStore, loc *time.Location, deps Deps) *LeadService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeadService{
		leads:      leads,
		statuses:   statuses,
		activities: activities,
		changes:    deps.changes(),
		queries:    deps.Queries,
		loc:        loc,
		now:        deps.clock(),
		log:        deps.logger(),
	}
}

// UseLive serves List from a live collection instead of the query cache.
func (s *LeadService) UseLive(c *realtime.LiveCollection[models.Lead]) {
	s.live = c
}

// LoadAll reads every lead from the store. It is the fetch function of the
// query cache and of the live collection.
func (s *LeadService) LoadAll(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.leads.List(ctx)
	if err != nil {
		return nil, err
	}
	return mappers.LeadsFromRows(rows), nil
}

// Create validates and stores a new lead
func (s *LeadService) Create(ctx context.Context, p models.Principal, lead models.Lead) (*models.Lead, error) {
	now := s.now()
	lead.ID = uuid.MustNewUUID()
	lead.CreatedBy = p.UserID
	lead.CreatedAt = now
	lead.UpdatedAt = now

	row, err := mappers.LeadToRow(lead)
	if err != nil {
		return nil, err
	}
	if err := s.checkStatus(ctx, lead.Status); err != nil {
		return nil, err
	}
	if err := s.leads.Create(ctx, &row); err != nil {
		s.log.Error("failed to create lead", zap.Error(err))
		return nil, err
	}
	s.changes.inserted(ctx, models.TableLeads, row)

	out := mappers.LeadFromRow(row)
	return &out, nil
}

// Get returns a lead with its activities, minus those the viewer hid
func (s *LeadService) Get(ctx context.Context, id, viewerID string) (*models.Lead, error) {
	row, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	acts, err := s.activities.ListByLead(ctx, id)
	if err != nil {
		return nil, err
	}

	lead := mappers.LeadFromRow(*row)
	lead.Activities = filters.Activities(mappers.ActivitiesFromRows(acts), filters.ActivityFilter{ViewerID: viewerID}, s.now())
	return &lead, nil
}

// LeadQuery selects and orders the leads table
type LeadQuery struct {
	Filter filters.LeadFilter
	Sort   string
	Desc   bool
}

// List returns the leads matching q
func (s *LeadService) List(ctx context.Context, q LeadQuery) ([]models.Lead, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if q.Filter.Date.Location == nil {
		q.Filter.Date.Location = s.loc
	}
	out := filters.Leads(all, q.Filter, s.now())
	if q.Sort != "" {
		filters.SortLeads(out, q.Sort, q.Desc)
	}
	return out, nil
}

func (s *LeadService) all(ctx context.Context) ([]models.Lead, error) {
	if s.live != nil {
		return s.live.Items(), nil
	}
	if s.queries == nil {
		return s.LoadAll(ctx)
	}
	return cache.Fetch(ctx, s.queries, cache.QueryKey(models.TableLeads), s.LoadAll)
}

// Update applies an inline edit. A status change also records a
// status_change activity on the lead.
func (s *LeadService) Update(ctx context.Context, p models.Principal, id string, u models.LeadUpdate) (*models.Lead, error) {
	if u.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	row, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := mappers.LeadFromRow(*row)

	now := s.now()
	after := mappers.ApplyLeadUpdate(before, u, now)
	if u.Status != nil && after.Status != before.Status {
		if err := s.checkStatus(ctx, after.Status); err != nil {
			return nil, err
		}
	}
	newRow, err := mappers.LeadToRow(after)
	if err != nil {
		return nil, err
	}
	stored, err := s.leads.SetFields(ctx, id, mappers.LeadUpdateFields(u, newRow))
	if err != nil {
		s.log.Error("failed to update lead", zap.String("lead_id", id), zap.Error(err))
		return nil, err
	}
	s.changes.updated(ctx, models.TableLeads, *stored, *row)

	if after.Status != before.Status {
		s.recordStatusChange(ctx, p, id, before.Status, after.Status, now)
	}

	out := mappers.LeadFromRow(*stored)
	return &out, nil
}

// recordStatusChange logs a status_change activity. A failure here does not
// undo the lead update.
func (s *LeadService) recordStatusChange(ctx context.Context, p models.Principal, leadID string, from, to models.LeadStatus, at time.Time) {
	act := models.Activity{
		ID:        uuid.MustNewUUID(),
		LeadID:    leadID,
		Type:      models.ActivityStatusChange,
		OldStatus: from.String(),
		NewStatus: to.String(),
		Notes:     fmt.Sprintf("Status changed from %s to %s", from, to),
		CreatedBy: p.UserID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	row := mappers.ActivityToRow(act)
	if err := s.activities.Create(ctx, &row); err != nil {
		s.log.Error("failed to record status change", zap.String("lead_id", leadID), zap.Error(err))
		return
	}
	s.changes.inserted(ctx, models.TableActivities, row)
}

// Convert flags the lead as converted into an order or a booking
func (s *LeadService) Convert(ctx context.Context, p models.Principal, id, conversionType string) (*models.Lead, error) {
	if conversionType != models.ConversionOrder && conversionType != models.ConversionBooking {
		return nil, fmt.Errorf("%w: conversion type must be %q or %q", ErrInvalidInput, models.ConversionOrder, models.ConversionBooking)
	}
	before, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row, err := s.leads.MarkConverted(ctx, id, conversionType, s.now())
	if err != nil {
		return nil, err
	}
	s.changes.updated(ctx, models.TableLeads, row, before)

	out := mappers.LeadFromRow(*row)
	return &out, nil
}

// StatusOption is one entry of the status picker
type StatusOption struct {
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Custom bool   `json:"custom"`
}

// Statuses returns the known stages followed by stored custom labels
func (s *LeadService) Statuses(ctx context.Context) ([]StatusOption, error) {
	defs, err := s.statuses.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StatusOption, 0, len(models.KnownLeadStatuses())+len(defs))
	for _, k := range models.KnownLeadStatuses() {
		out = append(out, StatusOption{Name: k})
	}
	for _, d := range defs {
		out = append(out, StatusOption{Name: d.Name, Color: d.Color, Custom: true})
	}
	return out, nil
}

// CreateStatus stores a custom status label
func (s *LeadService) CreateStatus(ctx context.Context, p models.Principal, name, color string) (*models.LeadStatusDef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: status name is required", ErrInvalidInput)
	}
	if models.IsKnownLeadStatus(name) {
		return nil, fmt.Errorf("%w: %q is a built-in status", ErrInvalidInput, name)
	}
	def := &models.LeadStatusDef{
		ID:        uuid.MustNewUUID(),
		Name:      name,
		Color:     color,
		CreatedBy: p.UserID,
		CreatedAt: s.now(),
	}
	if err := s.statuses.Create(ctx, def); err != nil {
		return nil, err
	}
	s.changes.inserted(ctx, models.TableLeadStatuses, def)
	return def, nil
}

func (s *LeadService) checkStatus(ctx context.Context, st models.LeadStatus) error {
	if st.IsZero() || st.IsKnown() {
		return nil
	}
	ok, err := s.statuses.Exists(ctx, st.String())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatus, st)
	}
	return nil
}

// CreateMany validates and stores leads in one batch. Nothing is stored if any lead is invalid.
func (s *LeadService) CreateMany(ctx context.Context, p models.Principal, leads []models.Lead) ([]models.Lead, error) {
	now := s.now()
	rows := make([]models.LeadRow, 0, len(leads))
	for i, lead := range leads {
		lead.ID = uuid.MustNewUUID()
		lead.CreatedBy = p.UserID
		lead.CreatedAt = now
		lead.UpdatedAt = now
		row, err := mappers.LeadToRow(lead)
		if err != nil {
			return nil, fmt.Errorf("lead %d: %w", i+1, err)
		}
		if err := s.checkStatus(ctx, lead.Status); err != nil {
			return nil, fmt.Errorf("lead %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	if err := s.leads.CreateMany(ctx, rows); err != nil {
		s.log.Error("failed to import leads", zap.Int("count", len(rows)), zap.Error(err))
		return nil, err
	}

	out := make([]models.Lead, 0, len(rows))
	for _, row := range rows {
		s.changes.inserted(ctx, models.TableLeads, row)
		out = append(out, mappers.LeadFromRow(row))
	}
	return out, nil
}
