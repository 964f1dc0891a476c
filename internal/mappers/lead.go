package mappers

import (
	"strings"
	"time"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// LeadFromRow converts a stored lead row to the application shape.
// It never fails: optional text becomes "", slices are non-nil and the
// requirement always carries a customRequirements entry.
func LeadFromRow(row models.LeadRow) models.Lead {
	return models.Lead{
		ID:                 row.ID,
		ClientName:         row.ClientName,
		Location:           row.Location,
		ContactPerson:      row.ContactPerson,
		Phone:              row.Phone,
		Email:              row.Email,
		Budget:             deref(row.Budget),
		LeadReference:      deref(row.LeadReference),
		LeadSource:         deref(row.LeadSource),
		Requirement:        models.RequirementFromMap(row.Requirement),
		Status:             models.ParseLeadStatus(row.Status),
		Remarks:            deref(row.Remarks),
		AssignedTo:         deref(row.AssignedTo),
		NextFollowUp:       row.NextFollowUp,
		FollowUpOutcome:    deref(row.FollowUpOutcome),
		NextAction:         deref(row.NextAction),
		ConvertedToOrder:   row.ConvertedToOrder,
		ConvertedToBooking: row.ConvertedToBooking,
		ConversionType:     deref(row.ConversionType),
		ConversionDate:     row.ConversionDate,
		Activities:         []models.Activity{},
		CreatedBy:          row.CreatedBy,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

// LeadsFromRows maps a slice of rows, preserving order.
func LeadsFromRows(rows []models.LeadRow) []models.Lead {
	out := make([]models.Lead, 0, len(rows))
	for _, r := range rows {
		out = append(out, LeadFromRow(r))
	}
	return out
}

// LeadToRow converts an application lead to its stored shape.
// Activities are not part of the row and are dropped.
func LeadToRow(lead models.Lead) (models.LeadRow, error) {
	if missing := MissingLeadFields(lead); len(missing) > 0 {
		return models.LeadRow{}, &ValidationError{Fields: missing}
	}

	status := lead.Status.String()
	if lead.Status.IsZero() {
		status = models.StatusSuspect
	}

	return models.LeadRow{
		ID:                 lead.ID,
		ClientName:         strings.TrimSpace(lead.ClientName),
		Location:           strings.TrimSpace(lead.Location),
		ContactPerson:      strings.TrimSpace(lead.ContactPerson),
		Phone:              strings.TrimSpace(lead.Phone),
		Email:              strings.TrimSpace(lead.Email),
		Budget:             ptr(lead.Budget),
		LeadReference:      ptr(lead.LeadReference),
		LeadSource:         ptr(lead.LeadSource),
		Requirement:        lead.Requirement.ToMap(),
		Status:             status,
		Remarks:            ptr(lead.Remarks),
		AssignedTo:         ptr(lead.AssignedTo),
		NextFollowUp:       lead.NextFollowUp,
		FollowUpOutcome:    ptr(lead.FollowUpOutcome),
		NextAction:         ptr(lead.NextAction),
		ConvertedToOrder:   lead.ConvertedToOrder,
		ConvertedToBooking: lead.ConvertedToBooking,
		ConversionType:     ptr(lead.ConversionType),
		ConversionDate:     lead.ConversionDate,
		CreatedBy:          lead.CreatedBy,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}, nil
}

// MissingLeadFields returns the names of empty required fields, in the order
// clientName, location, contactPerson, phone, email.
func MissingLeadFields(lead models.Lead) []string {
	required := []struct {
		name  string
		value string
	}{
		{"clientName", lead.ClientName},
		{"location", lead.Location},
		{"contactPerson", lead.ContactPerson},
		{"phone", lead.Phone},
		{"email", lead.Email},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ApplyLeadUpdate copies the non-nil fields of u onto lead.
func ApplyLeadUpdate(lead models.Lead, u models.LeadUpdate, now time.Time) models.Lead {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&lead.ClientName, u.ClientName)
	set(&lead.Location, u.Location)
	set(&lead.ContactPerson, u.ContactPerson)
	set(&lead.Phone, u.Phone)
	set(&lead.Email, u.Email)
	set(&lead.Budget, u.Budget)
	set(&lead.LeadReference, u.LeadReference)
	set(&lead.LeadSource, u.LeadSource)
	set(&lead.Remarks, u.Remarks)
	set(&lead.AssignedTo, u.AssignedTo)
	if u.Requirement != nil {
		lead.Requirement = *u.Requirement
	}
	if u.Status != nil {
		lead.Status = models.ParseLeadStatus(*u.Status)
	}
	lead.UpdatedAt = now
	return lead
}

// LeadUpdateFields returns the stored columns an inline edit touches, keyed
// by bson name and taken from row, the already-validated result of the edit.
// updated_at is always included.
func LeadUpdateFields(u models.LeadUpdate, row models.LeadRow) map[string]interface{} {
	set := map[string]interface{}{"updated_at": row.UpdatedAt}
	if u.ClientName != nil {
		set["client_name"] = row.ClientName
	}
	if u.Location != nil {
		set["location"] = row.Location
	}
	if u.ContactPerson != nil {
		set["contact_person"] = row.ContactPerson
	}
	if u.Phone != nil {
		set["phone"] = row.Phone
	}
	if u.Email != nil {
		set["email"] = row.Email
	}
	if u.Budget != nil {
		set["budget"] = row.Budget
	}
	if u.LeadReference != nil {
		set["lead_reference"] = row.LeadReference
	}
	if u.LeadSource != nil {
		set["lead_source"] = row.LeadSource
	}
	if u.Requirement != nil {
		set["requirement"] = row.Requirement
	}
	if u.Status != nil {
		set["status"] = row.Status
	}
	if u.Remarks != nil {
		set["remarks"] = row.Remarks
	}
	if u.AssignedTo != nil {
		set["assigned_to"] = row.AssignedTo
	}
	return set
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ptr returns nil for empty strings so optional columns stay null.
func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
