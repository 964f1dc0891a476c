package models

import "time"

// Todo priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo is a task with soft delete (trash/restore).
type Todo struct {
	ID          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title" validate:"required"`
	Description string     `bson:"description,omitempty" json:"description"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"dueDate"`
	Priority    string     `bson:"priority" json:"priority" validate:"omitempty,oneof=low medium high"`
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	AssignedTo  string     `bson:"assigned_to,omitempty" json:"assignedTo"`
	CreatedBy   string     `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
}

func (t Todo) RowID() string { return t.ID }

type TodoUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	AssignedTo  *string    `json:"assignedTo,omitempty"`
}
