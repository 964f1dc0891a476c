package models

import (
	"time"
)

// TeamMember is a user of the application.
// Collection: team_members
type TeamMember struct {
	ID           string     `bson:"_id" json:"id"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"` // Never expose in JSON
	Name         string     `bson:"name" json:"name"`
	Role         string     `bson:"role" json:"role"`
	Zone         string     `bson:"zone,omitempty" json:"zone,omitempty"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	IsActive     bool       `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updatedAt"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
}

const (
	RoleAdmin     = "admin"     // Full access to all features
	RoleManager   = "manager"   // Approves orders, manages inventory
	RoleSalesRep  = "sales_rep" // Leads and activities
	RoleOperation = "operations"
)

// IsValidRole checks if the role is one the application knows about
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleSalesRep, RoleOperation:
		return true
	}
	return false
}
