package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/mappers"
	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// DefaultImportMaxRows bounds a spreadsheet import when no limit is configured
const DefaultImportMaxRows = 5000

// ImportRowError reports a spreadsheet row that could not become a lead.
// Row is the 1-based sheet row number.
type ImportRowError struct {
	Row     int      `json:"row"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// ImportPreview is what a sheet would import. Leads hold the exact values a
// commit will store.
type ImportPreview struct {
	Sheet  string           `json:"sheet"`
	Leads  []models.Lead    `json:"leads"`
	Errors []ImportRowError `json:"errors"`
}

// ImportService turns Excel sheets into leads
type ImportService struct {
	leads   *LeadService
	maxRows int
	log     *zap.Logger
}

func NewImportService(leads *LeadService, maxRows int, deps Deps) *ImportService {
	if maxRows <= 0 {
		maxRows = DefaultImportMaxRows
	}
	return &ImportService{leads: leads, maxRows: maxRows, log: deps.logger()}
}

// Preview parses the first sheet of an xlsx workbook
func (s *ImportService) Preview(ctx context.Context, r io.Reader) (*ImportPreview, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable xlsx workbook: %v", ErrInvalidInput, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %v", ErrInvalidInput, sheets[0], err)
	}
	if len(rows) > s.maxRows+1 {
		return nil, fmt.Errorf("%w: sheet has %d rows, the limit is %d", ErrInvalidInput, len(rows)-1, s.maxRows)
	}

	preview := ParseLeadSheet(rows)
	preview.Sheet = sheets[0]
	s.log.Info("lead import previewed",
		zap.String("sheet", preview.Sheet),
		zap.Int("leads", len(preview.Leads)),
		zap.Int("errors", len(preview.Errors)))
	return preview, nil
}

// Commit stores previewed leads unchanged
func (s *ImportService) Commit(ctx context.Context, p models.Principal, leads []models.Lead) ([]models.Lead, error) {
	if len(leads) == 0 {
		return nil, fmt.Errorf("%w: nothing to import", ErrInvalidInput)
	}
	if len(leads) > s.maxRows {
		return nil, fmt.Errorf("%w: %d leads exceed the limit of %d", ErrInvalidInput, len(leads), s.maxRows)
	}
	return s.leads.CreateMany(ctx, p, leads)
}

type leadColumn func(l *models.Lead, v string)

// leadColumns maps normalized header names to lead fields
var leadColumns = map[string]leadColumn{
	"clientname":         func(l *models.Lead, v string) { l.ClientName = v },
	"client":             func(l *models.Lead, v string) { l.ClientName = v },
	"location":           func(l *models.Lead, v string) { l.Location = v },
	"contactperson":      func(l *models.Lead, v string) { l.ContactPerson = v },
	"contact":            func(l *models.Lead, v string) { l.ContactPerson = v },
	"phone":              func(l *models.Lead, v string) { l.Phone = v },
	"mobile":             func(l *models.Lead, v string) { l.Phone = v },
	"email":              func(l *models.Lead, v string) { l.Email = v },
	"budget":             func(l *models.Lead, v string) { l.Budget = v },
	"leadreference":      func(l *models.Lead, v string) { l.LeadReference = v },
	"reference":          func(l *models.Lead, v string) { l.LeadReference = v },
	"leadsource":         func(l *models.Lead, v string) { l.LeadSource = v },
	"source":             func(l *models.Lead, v string) { l.LeadSource = v },
	"status":             func(l *models.Lead, v string) { l.Status = models.ParseLeadStatus(v) },
	"remarks":            func(l *models.Lead, v string) { l.Remarks = v },
	"assignedto":         func(l *models.Lead, v string) { l.AssignedTo = v },
	"customrequirements": func(l *models.Lead, v string) { l.Requirement.CustomRequirements = v },
}

func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// ParseLeadSheet reads a header row followed by lead rows. Headers match
// case-insensitively; an unrecognized header whose cell holds an integer
// becomes a requirement category. Blank rows are skipped.
func ParseLeadSheet(rows [][]string) *ImportPreview {
	preview := &ImportPreview{Leads: []models.Lead{}, Errors: []ImportRowError{}}
	if len(rows) == 0 {
		return preview
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	for i, cells := range rows[1:] {
		rowNum := i + 2
		if blankRow(cells) {
			continue
		}
		lead := models.Lead{Requirement: models.NewRequirement(), Status: models.KnownStatus(models.StatusSuspect)}
		for c, raw := range cells {
			if c >= len(headers) || headers[c] == "" {
				continue
			}
			v := strings.TrimSpace(raw)
			if v == "" {
				continue
			}
			if set, ok := leadColumns[normalizeHeader(headers[c])]; ok {
				set(&lead, v)
				continue
			}
			if n, err := strconv.Atoi(v); err == nil {
				lead.Requirement.Counts[headers[c]] = n
			}
		}

		if missing := mappers.MissingLeadFields(lead); len(missing) > 0 {
			verr := &mappers.ValidationError{Fields: missing}
			preview.Errors = append(preview.Errors, ImportRowError{Row: rowNum, Message: verr.Error(), Fields: missing})
			continue
		}
		preview.Leads = append(preview.Leads, lead)
	}
	return preview
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
