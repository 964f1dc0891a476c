package models

import (
	"encoding/json"
	"time"
)

// ChangeType is the kind of row change carried by a ChangeEvent.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"

	// ChangeResync tells a client that events were dropped and its data
	// must be fetched again. It carries no rows.
	ChangeResync ChangeType = "RESYNC"
)

// ChangeEvent is a row-level change notification: {event, schema, table, new, old}.
// New is empty for deletes and Old is empty for inserts.
type ChangeEvent struct {
	ID              string          `json:"id"`
	Event           ChangeType      `json:"event"`
	Schema          string          `json:"schema"`
	Table           string          `json:"table"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
	Origin          string          `json:"origin,omitempty"`
}

// Table names shared by repositories, change events and cache keys.
const (
	TableLeads             = "leads"
	TableLeadStatuses      = "lead_statuses"
	TableActivities        = "activities"
	TableOrders            = "orders"
	TableOrderItems        = "order_items"
	TableInventoryItems    = "inventory_items"
	TableBookings          = "bookings"
	TableNotes             = "notes"
	TableTodos             = "todos"
	TableProjectionTargets = "sales_projection_targets"
	TableProjectionEntries = "sales_projection_entries"
	TableTeamMembers       = "team_members"
	TableZones             = "zones"
	TableSectors           = "sectors"
	TableFeaturePerms      = "feature_permissions"
	TableProfiles          = "profiles"
	TableSessions          = "sessions"
)
