package models

import "time"

// Booking statuses
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking reserves inventory for a lead over a date range.
type Booking struct {
	ID              string    `bson:"_id" json:"id"`
	InventoryItemID string    `bson:"inventory_item_id" json:"inventoryItemId" validate:"required"`
	LeadID          string    `bson:"lead_id,omitempty" json:"leadId"`
	ClientName      string    `bson:"client_name" json:"clientName" validate:"required"`
	Quantity        int       `bson:"quantity" json:"quantity" validate:"required,gt=0"`
	StartDate       time.Time `bson:"start_date" json:"startDate" validate:"required"`
	EndDate         time.Time `bson:"end_date" json:"endDate" validate:"required,gtefield=StartDate"`
	Status          string    `bson:"status" json:"status"`
	CreatedBy       string    `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}

func (b Booking) RowID() string { return b.ID }
