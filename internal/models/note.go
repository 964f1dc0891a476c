package models

import "time"

// Note is a freeform note with soft delete (trash/restore).
type Note struct {
	ID        string     `bson:"_id" json:"id"`
	Title     string     `bson:"title" json:"title" validate:"required"`
	Content   string     `bson:"content" json:"content"`
	Tags      []string   `bson:"tags" json:"tags"`
	Category  string     `bson:"category,omitempty" json:"category"`
	Pinned    bool       `bson:"pinned" json:"pinned"`
	CreatedBy string     `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
}

func (n Note) RowID() string { return n.ID }

type NoteUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Category *string   `json:"category,omitempty"`
	Pinned   *bool     `json:"pinned,omitempty"`
}
