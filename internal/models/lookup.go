package models

import "time"

// Zone groups inventory and targets geographically.
type Zone struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name" validate:"required"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Sector subdivides a zone.
type Sector struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name" validate:"required"`
	ZoneID    string    `bson:"zone_id,omitempty" json:"zoneId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Attachment is the metadata of a file stored in the attachments GridFS bucket.
type Attachment struct {
	ID          string    `bson:"_id" json:"id"`
	Entity      string    `bson:"entity" json:"entity"`
	EntityID    string    `bson:"entity_id" json:"entityId"`
	Path        string    `bson:"path" json:"path"`
	Filename    string    `bson:"filename" json:"filename"`
	ContentType string    `bson:"content_type" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	UploadedBy  string    `bson:"uploaded_by,omitempty" json:"uploadedBy"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploadedAt"`
}
