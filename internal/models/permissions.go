package models

import (
	"strings"
	"time"
)

// FeaturePermission lists the features a role may use.
// Stored in 'feature_permissions' collection.
// Features use 2-part format: "resource:action", e.g. "leads:write", "orders:approve".
// Wildcards supported: "leads:*", "*".
type FeaturePermission struct {
	ID        string    `bson:"_id" json:"id"`
	Role      string    `bson:"role" json:"role"`
	Features  []string  `bson:"features" json:"features"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updatedBy"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Feature keys checked by the HTTP layer.
const (
	FeatureLeadsRead       = "leads:read"
	FeatureLeadsWrite      = "leads:write"
	FeatureLeadsImport     = "leads:import"
	FeatureActivitiesWrite = "activities:write"
	FeatureInventoryWrite  = "inventory:write"
	FeatureOrdersWrite     = "orders:write"
	FeatureOrdersApprove   = "orders:approve"
	FeatureBookingsWrite   = "bookings:write"
	FeatureProjections     = "projections:write"
	FeatureLookupsWrite    = "lookups:write"
)

// ParseFeature splits a feature key into resource and action.
// A single part ("admin") is treated as "admin:*".
func ParseFeature(feature string) (resource, action string) {
	parts := strings.SplitN(feature, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], "*"
}

// MatchFeature checks if a granted feature matches a required one.
//   - MatchFeature("leads:write", "leads:write") → true
//   - MatchFeature("leads:*", "leads:import") → true
//   - MatchFeature("*", "orders:approve") → true
//   - MatchFeature("leads:read", "leads:write") → false
func MatchFeature(granted, required string) bool {
	if granted == "*" {
		return true
	}
	gRes, gAct := ParseFeature(granted)
	rRes, rAct := ParseFeature(required)
	if gRes != "*" && gRes != rRes {
		return false
	}
	return gAct == "*" || gAct == rAct
}

// HasFeature checks if any granted feature matches the required one
func HasFeature(granted []string, required string) bool {
	for _, g := range granted {
		if MatchFeature(g, required) {
			return true
		}
	}
	return false
}

// DefaultFeatures is used when a role has no feature_permissions row.
func DefaultFeatures(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{"*"}
	case RoleManager:
		return []string{"leads:*", "activities:*", "inventory:*", "orders:*", "bookings:*", "projections:*", "lookups:*"}
	case RoleSalesRep:
		return []string{FeatureLeadsRead, FeatureLeadsWrite, FeatureLeadsImport, FeatureActivitiesWrite, FeatureOrdersWrite, FeatureBookingsWrite}
	case RoleOperation:
		return []string{FeatureLeadsRead, FeatureInventoryWrite, FeatureBookingsWrite}
	default:
		return []string{FeatureLeadsRead}
	}
}
