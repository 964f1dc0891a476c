package mappers

import (
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// ActivityFromRow converts a stored activity row to the application shape.
func ActivityFromRow(row models.ActivityRow) models.Activity {
	a := models.Activity{
		ID:             row.ID,
		LeadID:         row.LeadID,
		Type:           row.Type,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		Outcome:        deref(row.Outcome),
		Notes:          deref(row.Notes),
		NextAction:     deref(row.NextAction),
		NextActionDate: row.NextActionDate,
		AssignedTo:     deref(row.AssignedTo),
		Location:       deref(row.Location),
		OldStatus:      deref(row.OldStatus),
		NewStatus:      deref(row.NewStatus),
		Update:         deref(row.Update),
		HiddenFor:      row.HiddenFor,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if a.HiddenFor == nil {
		a.HiddenFor = []string{}
	}
	if row.Type == models.ActivityCall {
		a.CallType = deref(row.CallType)
	}
	if row.Duration != nil && *row.Duration >= 0 {
		a.Duration = *row.Duration
	} else {
		a.Duration = DurationMinutes(row.StartTime, row.EndTime)
	}
	return a
}

// ActivitiesFromRows maps a slice of rows, preserving order.
func ActivitiesFromRows(rows []models.ActivityRow) []models.Activity {
	out := make([]models.Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, ActivityFromRow(r))
	}
	return out
}

// ActivityToRow converts an application activity to its stored shape.
// The call direction is kept only for calls and duration is recomputed from
// the start and end times when both are set.
func ActivityToRow(a models.Activity) models.ActivityRow {
	row := models.ActivityRow{
		ID:             a.ID,
		LeadID:         a.LeadID,
		Type:           a.Type,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Outcome:        ptr(a.Outcome),
		Notes:          ptr(a.Notes),
		NextAction:     ptr(a.NextAction),
		NextActionDate: a.NextActionDate,
		AssignedTo:     ptr(a.AssignedTo),
		Location:       ptr(a.Location),
		OldStatus:      ptr(a.OldStatus),
		NewStatus:      ptr(a.NewStatus),
		Update:         ptr(a.Update),
		HiddenFor:      a.HiddenFor,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.Type == models.ActivityCall {
		row.CallType = ptr(a.CallType)
	}

	duration := a.Duration
	if a.StartTime != nil && a.EndTime != nil {
		duration = DurationMinutes(a.StartTime, a.EndTime)
	}
	if duration > 0 {
		row.Duration = &duration
	}
	return row
}

// DurationMinutes returns whole minutes between start and end, or 0 when
// either is missing or end precedes start.
func DurationMinutes(start, end *time.Time) int {
	if start == nil || end == nil || end.Before(*start) {
		return 0
	}
	return int(end.Sub(*start) / time.Minute)
}
