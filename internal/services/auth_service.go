package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/internal/utils"
	"github.com/shreyas/kumbhmela-leads/pkg/uuid"
)

// AuthService signs team members in and out and resolves access tokens into principals
type AuthService struct {
	members  TeamMemberStore
	sessions SessionStore
	perms    *PermissionService
	jwt      *utils.JWTService
	changes  changes
	now      func() time.Time
	log      *zap.Logger
}

func NewAuthService(members TeamMemberStore, sessions SessionStore, perms *PermissionService, jwt *utils.JWTService, deps Deps) *AuthService {
	return &AuthService{
		members:  members,
		sessions: sessions,
		perms:    perms,
		jwt:      jwt,
		changes:  deps.changes(),
		now:      deps.clock(),
		log:      deps.logger(),
	}
}

// SignIn checks credentials and opens a session
func (s *AuthService) SignIn(ctx context.Context, email, password, ipAddress, userAgent string) (*models.TeamMember, *models.TokenPair, error) {
	member, err := s.members.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !member.IsActive {
		return nil, nil, ErrInactiveAccount
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.MustNewUUID(),
		UserID:    member.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.jwt.RefreshTTL()),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	refresh, err := s.jwt.GenerateRefreshToken(member.ID, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	access, err := s.jwt.GenerateAccessToken(member, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	session.RefreshTokenHash = utils.HashToken(refresh)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.members.UpdateLastLogin(ctx, member.ID, now); err != nil {
		s.log.Warn("failed to update last login", zap.String("user_id", member.ID), zap.Error(err))
	}
	s.log.Info("team member signed in", zap.String("user_id", member.ID), zap.String("session_id", session.ID))

	return member, s.tokenPair(access, refresh), nil
}

func (s *AuthService) tokenPair(access, refresh string) *models.TokenPair {
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwt.AccessTTL().Seconds()),
	}
}

// Refresh issues a new access token for a live session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	session, err := s.liveSession(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(session.RefreshTokenHash), []byte(utils.HashToken(refreshToken))) != 1 {
		return nil, ErrSessionInvalid
	}
	member, err := s.activeMember(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	access, err := s.jwt.GenerateAccessToken(member, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return s.tokenPair(access, refreshToken), nil
}

// SignOut revokes the caller's session
func (s *AuthService) SignOut(ctx context.Context, p models.Principal) error {
	if err := s.sessions.Revoke(ctx, p.SessionID, s.now()); err != nil {
		return err
	}
	s.log.Info("team member signed out", zap.String("user_id", p.UserID), zap.String("session_id", p.SessionID))
	return nil
}

// Authenticate turns a bearer token into the caller's principal. The session
// must still be live and the member active.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	claims, err := s.jwt.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if _, err := s.liveSession(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	member, err := s.activeMember(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	features, err := s.perms.FeaturesForRole(ctx, member.Role)
	if err != nil {
		return nil, err
	}
	return &models.Principal{
		UserID:    member.ID,
		Email:     member.Email,
		Name:      member.Name,
		Role:      member.Role,
		SessionID: claims.SessionID,
		Features:  features,
	}, nil
}

// Session returns the session row behind a principal
func (s *AuthService) Session(ctx context.Context, p models.Principal) (*models.Session, error) {
	return s.liveSession(ctx, p.SessionID)
}

func (s *AuthService) liveSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !session.IsValid(s.now()) {
		return nil, ErrSessionInvalid
	}
	return session, nil
}

func (s *AuthService) activeMember(ctx context.Context, id string) (*models.TeamMember, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrInactiveAccount
	}
	return member, nil
}

// CreateMemberRequest is the input of CreateMember
type CreateMemberRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required"`
	Zone     string `json:"zone"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

// CreateMember registers a team member with a bcrypt password hash
func (s *AuthService) CreateMember(ctx context.Context, req CreateMemberRequest) (*models.TeamMember, error) {
	if !models.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now()
	member := &models.TeamMember{
		ID:           uuid.MustNewUUID(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Zone:         req.Zone,
		Phone:        req.Phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrInvalidInput)
		}
		return nil, err
	}
	s.changes.inserted(ctx, models.TableTeamMembers, member)
	return member, nil
}

// EnsureAdmin creates the bootstrap admin when no member has that email yet
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.members.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !repositories.IsNotFound(err) {
		return err
	}
	_, err := s.CreateMember(ctx, CreateMemberRequest{Email: email, Password: password, Name: name, Role: models.RoleAdmin})
	if err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
