package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Known lead pipeline stages.
const (
	StatusSuspect      = "suspect"
	StatusProspect     = "prospect"
	StatusAnalysis     = "analysis"
	StatusNegotiation  = "negotiation"
	StatusConclusion   = "conclusion"
	StatusOngoingOrder = "ongoing_order"
)

// KnownLeadStatuses returns the fixed pipeline stages in display order.
func KnownLeadStatuses() []string {
	return []string{StatusSuspect, StatusProspect, StatusAnalysis, StatusNegotiation, StatusConclusion, StatusOngoingOrder}
}

// IsKnownLeadStatus reports whether s is one of the fixed pipeline stages.
func IsKnownLeadStatus(s string) bool {
	for _, k := range KnownLeadStatuses() {
		if k == s {
			return true
		}
	}
	return false
}

// StatusKind tags a LeadStatus as one of the fixed stages or a user-defined label.
type StatusKind int

const (
	StatusKindKnown StatusKind = iota
	StatusKindCustom
)

// LeadStatus is either a known pipeline stage or a custom label persisted in the
// lead_statuses collection. It serializes as a plain string.
type LeadStatus struct {
	Kind  StatusKind
	Value string
}

// KnownStatus builds a status for one of the fixed stages.
func KnownStatus(s string) LeadStatus {
	return LeadStatus{Kind: StatusKindKnown, Value: s}
}

// CustomStatus builds a status for a user-defined label.
func CustomStatus(label string) LeadStatus {
	return LeadStatus{Kind: StatusKindCustom, Value: label}
}

// ParseLeadStatus classifies a raw status string. Empty input maps to suspect.
func ParseLeadStatus(s string) LeadStatus {
	if s == "" {
		return KnownStatus(StatusSuspect)
	}
	if IsKnownLeadStatus(s) {
		return KnownStatus(s)
	}
	return CustomStatus(s)
}

func (s LeadStatus) String() string { return s.Value }

func (s LeadStatus) IsKnown() bool { return s.Kind == StatusKindKnown }

func (s LeadStatus) IsZero() bool { return s.Value == "" }

func (s LeadStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

func (s *LeadStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("lead status must be a string: %w", err)
	}
	*s = ParseLeadStatus(raw)
	return nil
}

// CustomRequirementsKey is the free-text entry of a requirement blob.
const CustomRequirementsKey = "customRequirements"

// Requirement maps requirement categories (hoardings, entryGates, ...) to counts,
// plus one free-text field. It serializes as a flat JSON object.
type Requirement struct {
	Counts             map[string]int
	CustomRequirements string
}

// NewRequirement returns an empty requirement with a non-nil count map.
func NewRequirement() Requirement {
	return Requirement{Counts: map[string]int{}}
}

// Categories returns the category names in sorted order.
func (r Requirement) Categories() []string {
	names := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Categories() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", r.Counts[name])
	}
	if len(r.Counts) > 0 {
		buf.WriteByte(',')
	}
	text, err := json.Marshal(r.CustomRequirements)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, "%q:%s}", CustomRequirementsKey, text)
	return buf.Bytes(), nil
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("requirement must be an object: %w", err)
	}
	*r = RequirementFromMap(raw)
	return nil
}

// RequirementFromMap reads the untyped requirement blob stored on a lead row.
// Numeric values of any Go numeric type become counts; other values are ignored.
func RequirementFromMap(m map[string]interface{}) Requirement {
	req := NewRequirement()
	for k, v := range m {
		if k == CustomRequirementsKey {
			if s, ok := v.(string); ok {
				req.CustomRequirements = s
			}
			continue
		}
		if n, ok := toInt(v); ok {
			req.Counts[k] = n
		}
	}
	return req
}

// ToMap renders the requirement as the untyped blob stored on a lead row.
func (r Requirement) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Counts)+1)
	for k, v := range r.Counts {
		m[k] = v
	}
	m[CustomRequirementsKey] = r.CustomRequirements
	return m
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	default:
		return 0, false
	}
}

// LeadRow is the stored shape of a lead (snake_case, nullable columns as pointers).
type LeadRow struct {
	ID                 string                 `bson:"_id" json:"id"`
	ClientName         string                 `bson:"client_name" json:"client_name"`
	Location           string                 `bson:"location" json:"location"`
	ContactPerson      string                 `bson:"contact_person" json:"contact_person"`
	Phone              string                 `bson:"phone" json:"phone"`
	Email              string                 `bson:"email" json:"email"`
	Budget             *string                `bson:"budget,omitempty" json:"budget"`
	LeadReference      *string                `bson:"lead_reference,omitempty" json:"lead_reference"`
	LeadSource         *string                `bson:"lead_source,omitempty" json:"lead_source"`
	Requirement        map[string]interface{} `bson:"requirement,omitempty" json:"requirement"`
	Status             string                 `bson:"status" json:"status"`
	Remarks            *string                `bson:"remarks,omitempty" json:"remarks"`
	AssignedTo         *string                `bson:"assigned_to,omitempty" json:"assigned_to"`
	NextFollowUp       *time.Time             `bson:"next_follow_up,omitempty" json:"next_follow_up"`
	FollowUpOutcome    *string                `bson:"follow_up_outcome,omitempty" json:"follow_up_outcome"`
	NextAction         *string                `bson:"next_action,omitempty" json:"next_action"`
	ConvertedToOrder   bool                   `bson:"converted_to_order" json:"converted_to_order"`
	ConvertedToBooking bool                   `bson:"converted_to_booking" json:"converted_to_booking"`
	ConversionType     *string                `bson:"conversion_type,omitempty" json:"conversion_type"`
	ConversionDate     *time.Time             `bson:"conversion_date,omitempty" json:"conversion_date"`
	CreatedBy          string                 `bson:"created_by,omitempty" json:"created_by"`
	CreatedAt          time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `bson:"updated_at" json:"updated_at"`
}

// RowID implements realtime.Identified.
func (r LeadRow) RowID() string { return r.ID }

// Lead is the application shape of a lead. Every optional text field is "" rather than absent.
type Lead struct {
	ID                 string      `json:"id"`
	ClientName         string      `json:"clientName"`
	Location           string      `json:"location"`
	ContactPerson      string      `json:"contactPerson"`
	Phone              string      `json:"phone"`
	Email              string      `json:"email"`
	Budget             string      `json:"budget"`
	LeadReference      string      `json:"leadReference"`
	LeadSource         string      `json:"leadSource"`
	Requirement        Requirement `json:"requirement" swaggertype:"object"`
	Status             LeadStatus  `json:"status" swaggertype:"string"`
	Remarks            string      `json:"remarks"`
	AssignedTo         string      `json:"assignedTo"`
	NextFollowUp       *time.Time  `json:"nextFollowUp"`
	FollowUpOutcome    string      `json:"followUpOutcome"`
	NextAction         string      `json:"nextAction"`
	ConvertedToOrder   bool        `json:"convertedToOrder"`
	ConvertedToBooking bool        `json:"convertedToBooking"`
	ConversionType     string      `json:"conversionType"`
	ConversionDate     *time.Time  `json:"conversionDate"`
	Activities         []Activity  `json:"activities"`
	CreatedBy          string      `json:"createdBy"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// RowID implements realtime.Identified.
func (l Lead) RowID() string { return l.ID }

// Conversion types recorded on a lead.
const (
	ConversionOrder   = "order"
	ConversionBooking = "booking"
)

// LeadUpdate carries inline-edit changes; nil fields are left untouched.
type LeadUpdate struct {
	ClientName    *string      `json:"clientName,omitempty"`
	Location      *string      `json:"location,omitempty"`
	ContactPerson *string      `json:"contactPerson,omitempty"`
	Phone         *string      `json:"phone,omitempty" validate:"omitempty,phone"`
	Email         *string      `json:"email,omitempty" validate:"omitempty,email"`
	Budget        *string      `json:"budget,omitempty"`
	LeadReference *string      `json:"leadReference,omitempty"`
	LeadSource    *string      `json:"leadSource,omitempty"`
	Requirement   *Requirement `json:"requirement,omitempty" swaggertype:"object"`
	Status        *string      `json:"status,omitempty"`
	Remarks       *string      `json:"remarks,omitempty"`
	AssignedTo    *string      `json:"assignedTo,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u LeadUpdate) IsEmpty() bool {
	return u.ClientName == nil && u.Location == nil && u.ContactPerson == nil && u.Phone == nil &&
		u.Email == nil && u.Budget == nil && u.LeadReference == nil && u.LeadSource == nil &&
		u.Requirement == nil && u.Status == nil && u.Remarks == nil && u.AssignedTo == nil
}

// LeadStatusDef is a user-defined status label stored in lead_statuses.
type LeadStatusDef struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Color     string    `bson:"color,omitempty" json:"color"`
	CreatedBy string    `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
