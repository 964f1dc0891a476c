package models

import "time"

// Order statuses
const (
	OrderPending  = "pending"
	OrderApproved = "approved"
	OrderRejected = "rejected"
)

// Order is a sale of one or more inventory slots to a client.
type Order struct {
	ID         string      `bson:"_id" json:"id"`
	LeadID     string      `bson:"lead_id,omitempty" json:"leadId"`
	ClientName string      `bson:"client_name" json:"clientName"`
	Status     string      `bson:"status" json:"status"`
	Subtotal   float64     `bson:"subtotal" json:"subtotal"`
	GSTRate    float64     `bson:"gst_rate" json:"gstRate"`
	GSTAmount  float64     `bson:"gst_amount" json:"gstAmount"`
	Total      float64     `bson:"total" json:"total"`
	Notes      string      `bson:"notes,omitempty" json:"notes"`
	Items      []OrderItem `bson:"-" json:"items"`
	CreatedBy  string      `bson:"created_by,omitempty" json:"createdBy"`
	ApprovedBy string      `bson:"approved_by,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time  `bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	RejectedBy string      `bson:"rejected_by,omitempty" json:"rejectedBy,omitempty"`
	RejectedAt *time.Time  `bson:"rejected_at,omitempty" json:"rejectedAt,omitempty"`
	CreatedAt  time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `bson:"updated_at" json:"updatedAt"`
}

func (o Order) RowID() string { return o.ID }

// OrderItem is one line of an order, stored in order_items.
type OrderItem struct {
	ID              string  `bson:"_id" json:"id"`
	OrderID         string  `bson:"order_id" json:"orderId"`
	InventoryItemID string  `bson:"inventory_item_id" json:"inventoryItemId"`
	Quantity        int     `bson:"quantity" json:"quantity"`
	Rate            float64 `bson:"rate" json:"rate"`
	Amount          float64 `bson:"amount" json:"amount"`
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	LeadID     string                   `json:"leadId"`
	ClientName string                   `json:"clientName" validate:"required"`
	Notes      string                   `json:"notes"`
	Items      []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderItemRequest struct {
	InventoryItemID string   `json:"inventoryItemId" validate:"required"`
	Quantity        int      `json:"quantity" validate:"required,gt=0"`
	Rate            *float64 `json:"rate,omitempty" validate:"omitempty,gte=0"`
}
