package models

import "time"

// ProjectionTarget is the sales target for a zone/sector in a month (YYYY-MM).
type ProjectionTarget struct {
	ID           string    `bson:"_id" json:"id"`
	Zone         string    `bson:"zone" json:"zone" validate:"required"`
	Sector       string    `bson:"sector,omitempty" json:"sector"`
	Month        string    `bson:"month" json:"month" validate:"required,month"`
	TargetAmount float64   `bson:"target_amount" json:"targetAmount" validate:"gte=0"`
	CreatedBy    string    `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// ProjectionEntry is a projected (and later achieved) amount for one client.
type ProjectionEntry struct {
	ID              string    `bson:"_id" json:"id"`
	Zone            string    `bson:"zone" json:"zone" validate:"required"`
	Sector          string    `bson:"sector,omitempty" json:"sector"`
	Month           string    `bson:"month" json:"month" validate:"required,month"`
	LeadID          string    `bson:"lead_id,omitempty" json:"leadId"`
	ClientName      string    `bson:"client_name" json:"clientName"`
	ProjectedAmount float64   `bson:"projected_amount" json:"projectedAmount" validate:"gte=0"`
	AchievedAmount  float64   `bson:"achieved_amount" json:"achievedAmount" validate:"gte=0"`
	CreatedBy       string    `bson:"created_by,omitempty" json:"createdBy"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
}

// ProjectionSummaryRow aggregates one zone for a month.
type ProjectionSummaryRow struct {
	Zone           string  `json:"zone"`
	Target         float64 `json:"target"`
	Projected      float64 `json:"projected"`
	Achieved       float64 `json:"achieved"`
	AchievementPct float64 `json:"achievementPct"`
}

type ProjectionSummary struct {
	Month  string                 `json:"month"`
	Zones  []ProjectionSummaryRow `json:"zones"`
	Totals ProjectionSummaryRow   `json:"totals"`
}
