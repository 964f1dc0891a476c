package models

import (
	"time"
)

// Profile stores per-member UI preferences.
// Collection: profiles (keyed by team member id)
type Profile struct {
	UserID    string              `bson:"_id" json:"userId"`
	Columns   map[string][]string `bson:"columns" json:"columns"` // view -> visible column names
	Timezone  string              `bson:"timezone,omitempty" json:"timezone"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// DefaultProfile returns default preferences for new members
func DefaultProfile(userID string) *Profile {
	return &Profile{
		UserID:    userID,
		Columns:   map[string][]string{},
		Timezone:  "Asia/Kolkata",
		UpdatedAt: time.Now(),
	}
}

// UpdateColumnsRequest is the body of PUT /preferences/columns
type UpdateColumnsRequest struct {
	View    string   `json:"view" validate:"required"`
	Visible []string `json:"visible"`
}
