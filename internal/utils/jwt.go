package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shreyas/kumbhmela-leads/config"
	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or type checks
var ErrInvalidToken = errors.New("invalid token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTService issues and validates HS256 tokens
type JWTService struct {
	secret []byte
	config config.JWTConfig
	now    func() time.Time
}

// AccessTokenClaims represents the claims in an access token
type AccessTokenClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims identify the session a refresh token belongs to
type RefreshTokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	if cfg.AccessTokenExpiry <= 0 {
		cfg.AccessTokenExpiry = 60
	}
	if cfg.RefreshTokenExpiry <= 0 {
		cfg.RefreshTokenExpiry = 7
	}
	return &JWTService{secret: []byte(cfg.Secret), config: cfg, now: time.Now}, nil
}

// AccessTTL is the lifetime of access tokens
func (s *JWTService) AccessTTL() time.Duration {
	return time.Duration(s.config.AccessTokenExpiry) * time.Minute
}

// RefreshTTL is the lifetime of refresh tokens and of the session behind them
func (s *JWTService) RefreshTTL() time.Duration {
	return time.Duration(s.config.RefreshTokenExpiry) * 24 * time.Hour
}

// GenerateAccessToken signs an access token for the member and session
func (s *JWTService) GenerateAccessToken(member *models.TeamMember, sessionID string) (string, error) {
	now := s.now()
	claims := AccessTokenClaims{
		Email:     member.Email,
		Name:      member.Name,
		Role:      member.Role,
		SessionID: sessionID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL())),
			Issuer:    s.config.Issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// GenerateRefreshToken signs a refresh token bound to the session
func (s *JWTService) GenerateRefreshToken(memberID, sessionID string) (string, error) {
	now := s.now()
	claims := RefreshTokenClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.RefreshTTL())),
			Issuer:    s.config.Issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateAccessToken validates an access token and returns the claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashToken returns the hex sha256 of a token. Sessions store only this hash.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
