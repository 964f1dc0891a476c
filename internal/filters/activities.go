package filters

import (
	"strings"
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// ActivityFilter holds the facets of the activity log. ViewerID hides the
// activities that member dismissed.
type ActivityFilter struct {
	Type       string
	LeadID     string
	AssignedTo string
	Search     string
	ViewerID   string
	Date       DateFilter
}

// Activities returns the activities matching every active facet, in their original order.
func Activities(activities []models.Activity, f ActivityFilter, now time.Time) []models.Activity {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.LeadID != "" && a.LeadID != f.LeadID {
			continue
		}
		if f.AssignedTo != "" && a.AssignedTo != f.AssignedTo {
			continue
		}
		if a.IsHiddenFor(f.ViewerID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Notes), search) &&
			!strings.Contains(strings.ToLower(a.Outcome), search) {
			continue
		}
		when := a.CreatedAt
		if a.StartTime != nil {
			when = *a.StartTime
		}
		if !f.Date.Match(when, now) {
			continue
		}
		out = append(out, a)
	}
	return out
}
