package filters

import (
	"sort"
	"strings"
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// LeadFilter holds the facets of the leads table. Zero values are inactive.
type LeadFilter struct {
	Status   string
	Search   string
	Location string
	Date     DateFilter
}

// Leads returns the leads matching every active facet, in their original order.
func Leads(leads []models.Lead, f LeadFilter, now time.Time) []models.Lead {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	location := strings.ToLower(strings.TrimSpace(f.Location))

	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Status != "" && l.Status.String() != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.ClientName), search) &&
			!strings.Contains(strings.ToLower(l.ContactPerson), search) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(l.Location), location) {
			continue
		}
		if !f.Date.Match(l.CreatedAt, now) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Sort fields for SortLeads.
const (
	SortCreatedAt  = "created_at"
	SortClientName = "client_name"
	SortStatus     = "status"
)

// SortLeads stable-sorts leads in place. Unknown fields fall back to created_at.
func SortLeads(leads []models.Lead, field string, desc bool) {
	less := func(a, b models.Lead) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch field {
	case SortClientName:
		less = func(a, b models.Lead) bool {
			return strings.ToLower(a.ClientName) < strings.ToLower(b.ClientName)
		}
	case SortStatus:
		less = func(a, b models.Lead) bool { return statusRank(a.Status) < statusRank(b.Status) }
	}

	sort.SliceStable(leads, func(i, j int) bool {
		if desc {
			return less(leads[j], leads[i])
		}
		return less(leads[i], leads[j])
	})
}

// statusRank orders known stages by pipeline position; custom labels sort last.
func statusRank(s models.LeadStatus) int {
	for i, k := range models.KnownLeadStatuses() {
		if k == s.String() {
			return i
		}
	}
	return len(models.KnownLeadStatuses())
}
