package models

import (
	"time"
)

// Session represents an authenticated user session
// Collection: sessions
type Session struct {
	ID               string     `bson:"_id" json:"id"`
	UserID           string     `bson:"user_id" json:"userId"`
	RefreshTokenHash string     `bson:"refresh_token_hash" json:"-"`
	IssuedAt         time.Time  `bson:"issued_at" json:"issuedAt"`
	ExpiresAt        time.Time  `bson:"expires_at" json:"expiresAt"`
	IPAddress        string     `bson:"ip_address" json:"ipAddress"`
	UserAgent        string     `bson:"user_agent" json:"userAgent"`
	IsRevoked        bool       `bson:"is_revoked" json:"isRevoked"`
	RevokedAt        *time.Time `bson:"revoked_at,omitempty" json:"revokedAt,omitempty"`
}

// IsValid checks if the session is still valid
func (s *Session) IsValid(now time.Time) bool {
	return !s.IsRevoked && now.Before(s.ExpiresAt)
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}

// Principal is the authenticated caller, passed explicitly from handlers into services.
type Principal struct {
	UserID    string   `json:"userId"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	SessionID string   `json:"sessionId"`
	Features  []string `json:"features"`
}
