package models

import (
	"time"
)

// Activity types
const (
	ActivityCall         = "call"
	ActivityMeeting      = "meeting"
	ActivityEmail        = "email"
	ActivityNote         = "note"
	ActivityStatusChange = "status_change"
	ActivityFollowUp     = "follow_up"
)

// Call directions, only meaningful for ActivityCall.
const (
	CallIncoming = "incoming"
	CallOutgoing = "outgoing"
)

// IsActivityType reports whether t is a supported activity type.
func IsActivityType(t string) bool {
	switch t {
	case ActivityCall, ActivityMeeting, ActivityEmail, ActivityNote, ActivityStatusChange, ActivityFollowUp:
		return true
	}
	return false
}

// ActivityRow is the stored shape of a lead activity
type ActivityRow struct {
	ID             string     `bson:"_id" json:"id"`
	LeadID         string     `bson:"lead_id" json:"lead_id"`
	Type           string     `bson:"type" json:"type"`
	CallType       *string    `bson:"call_type,omitempty" json:"call_type"`
	StartTime      *time.Time `bson:"start_time,omitempty" json:"start_time"`
	EndTime        *time.Time `bson:"end_time,omitempty" json:"end_time"`
	Duration       *int       `bson:"duration,omitempty" json:"duration"`
	Outcome        *string    `bson:"outcome,omitempty" json:"outcome"`
	Notes          *string    `bson:"notes,omitempty" json:"notes"`
	NextAction     *string    `bson:"next_action,omitempty" json:"next_action"`
	NextActionDate *time.Time `bson:"next_action_date,omitempty" json:"next_action_date"`
	AssignedTo     *string    `bson:"assigned_to,omitempty" json:"assigned_to"`
	Location       *string    `bson:"location,omitempty" json:"location"`
	OldStatus      *string    `bson:"old_status,omitempty" json:"old_status"`
	NewStatus      *string    `bson:"new_status,omitempty" json:"new_status"`
	Update         *string    `bson:"update,omitempty" json:"update"`
	HiddenFor      []string   `bson:"hidden_for,omitempty" json:"hidden_for"`
	CreatedBy      string     `bson:"created_by,omitempty" json:"created_by"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

func (r ActivityRow) RowID() string { return r.ID }

// Activity is the application shape of an activity.
type Activity struct {
	ID             string     `json:"id"`
	LeadID         string     `json:"leadId"`
	Type           string     `json:"type"`
	CallType       string     `json:"callType,omitempty"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Duration       int        `json:"duration"` // minutes
	Outcome        string     `json:"outcome"`
	Notes          string     `json:"notes"`
	NextAction     string     `json:"nextAction"`
	NextActionDate *time.Time `json:"nextActionDate"`
	AssignedTo     string     `json:"assignedTo"`
	Location       string     `json:"location"`
	OldStatus      string     `json:"oldStatus,omitempty"`
	NewStatus      string     `json:"newStatus,omitempty"`
	Update         string     `json:"update"`
	HiddenFor      []string   `json:"hiddenFor"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (a Activity) RowID() string { return a.ID }

// IsHiddenFor reports whether the member dismissed this activity.
func (a Activity) IsHiddenFor(memberID string) bool {
	if memberID == "" {
		return false
	}
	for _, id := range a.HiddenFor {
		if id == memberID {
			return true
		}
	}
	return false
}
