package models

import "time"

// Inventory item statuses
const (
	InventoryAvailable   = "available"
	InventoryBooked      = "booked"
	InventorySold        = "sold"
	InventoryMaintenance = "maintenance"
	InventoryReserved    = "reserved"
)

// IsInventoryStatus reports whether s is a supported inventory status.
func IsInventoryStatus(s string) bool {
	switch s {
	case InventoryAvailable, InventoryBooked, InventorySold, InventoryMaintenance, InventoryReserved:
		return true
	}
	return false
}

// InventoryItem is a sellable ad-space slot (hoarding, entry gate, ...).
// AvailableQuantity never exceeds Quantity.
type InventoryItem struct {
	ID                string    `bson:"_id" json:"id"`
	Name              string    `bson:"name" json:"name" validate:"required"`
	Code              string    `bson:"code,omitempty" json:"code"`
	Type              string    `bson:"type" json:"type" validate:"required"`
	Location          string    `bson:"location" json:"location"`
	Zone              string    `bson:"zone,omitempty" json:"zone"`
	Sector            string    `bson:"sector,omitempty" json:"sector"`
	Dimensions        string    `bson:"dimensions,omitempty" json:"dimensions"`
	Rate              float64   `bson:"rate" json:"rate" validate:"gte=0"`
	Quantity          int       `bson:"quantity" json:"quantity" validate:"gte=0"`
	AvailableQuantity int       `bson:"available_quantity" json:"availableQuantity" validate:"gte=0"`
	Status            string    `bson:"status" json:"status"`
	CreatedBy         string    `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

func (i InventoryItem) RowID() string { return i.ID }

// CreateInventoryRequest is the body of POST /inventory. A nil
// AvailableQuantity means fully available; an explicit 0 creates a sold-out item.
type CreateInventoryRequest struct {
	Name              string  `json:"name" validate:"required"`
	Code              string  `json:"code"`
	Type              string  `json:"type" validate:"required"`
	Location          string  `json:"location"`
	Zone              string  `json:"zone"`
	Sector            string  `json:"sector"`
	Dimensions        string  `json:"dimensions"`
	Rate              float64 `json:"rate" validate:"gte=0"`
	Quantity          int     `json:"quantity" validate:"gte=0"`
	AvailableQuantity *int    `json:"availableQuantity,omitempty" validate:"omitempty,gte=0"`
	Status            string  `json:"status"`
}

// InventoryUpdate carries direct edits to an item; nil fields are left untouched.
type InventoryUpdate struct {
	Name              *string  `json:"name,omitempty"`
	Location          *string  `json:"location,omitempty"`
	Zone              *string  `json:"zone,omitempty"`
	Sector            *string  `json:"sector,omitempty"`
	Dimensions        *string  `json:"dimensions,omitempty"`
	Rate              *float64 `json:"rate,omitempty" validate:"omitempty,gte=0"`
	Quantity          *int     `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	AvailableQuantity *int     `json:"availableQuantity,omitempty" validate:"omitempty,gte=0"`
	Status            *string  `json:"status,omitempty"`
}
