package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/services"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

type AuthService interface {
	SignIn(ctx context.Context, email, password, ipAddress, userAgent string) (*models.TeamMember, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	SignOut(ctx context.Context, p models.Principal) error
	Session(ctx context.Context, p models.Principal) (*models.Session, error)
	CreateMember(ctx context.Context, req services.CreateMemberRequest) (*models.TeamMember, error)
}

type PermissionService interface {
	List(ctx context.Context) ([]models.FeaturePermission, error)
	SetFeatures(ctx context.Context, p models.Principal, role string, features []string) (*models.FeaturePermission, error)
}

// AuthHandler handles sign-in, sessions, team member registration and
// role feature permissions
type AuthHandler struct {
	base
	auth  AuthService
	perms PermissionService
}

func NewAuthHandler(auth AuthService, perms PermissionService, v *validation.Validator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(v, log), auth: auth, perms: perms}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	Member *models.TeamMember `json:"member"`
	Tokens *models.TokenPair  `json:"tokens"`
}

// SignIn godoc
// @Summary Sign in
// @Description Exchanges email and password for an access/refresh token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body signInRequest true "Email and password"
// @Success 200 {object} signInResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	member, tokens, err := h.auth.SignIn(ctx, req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, signInResponse{Member: member, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh godoc
// @Summary Refresh tokens
// @Description Issues a new token pair for the session behind a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param token body refreshRequest true "Refresh token"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*models.TokenPair, error) {
		return h.auth.Refresh(ctx, req.RefreshToken)
	})
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the caller's session
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := h.auth.SignOut(ctx, p); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	Principal models.Principal `json:"principal"`
	Session   *models.Session  `json:"session"`
}

// GetSession godoc
// @Summary Get current session
// @Description Returns the caller and their session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} sessionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (sessionResponse, error) {
		session, err := h.auth.Session(ctx, p)
		return sessionResponse{Principal: p, Session: session}, err
	})
}

// CreateTeamMember godoc
// @Summary Register a team member
// @Description Registers a team member
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param member body services.CreateMemberRequest true "Team member"
// @Success 201 {object} models.TeamMember
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /team-members [post]
func (h *AuthHandler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMemberRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.TeamMember, error) {
		return h.auth.CreateMember(ctx, req)
	})
}

// ListFeaturePermissions godoc
// @Summary List role feature permissions
// @Description List role feature permissions
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FeaturePermission
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /feature-permissions [get]
func (h *AuthHandler) ListFeaturePermissions(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.perms.List)
}

type setFeaturesRequest struct {
	Features []string `json:"features" validate:"required,dive,required"`
}

// SetFeaturePermissions godoc
// @Summary Set role feature permissions
// @Description Replaces the features granted to the {role} path parameter
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param role path string true "Role name"
// @Param features body setFeaturesRequest true "Granted features"
// @Success 200 {object} models.FeaturePermission
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /feature-permissions/{role} [put]
func (h *AuthHandler) SetFeaturePermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req setFeaturesRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	role := mux.Vars(r)["role"]
	run(h.base, w, r, http.StatusOK, func(ctx context.Context) (*models.FeaturePermission, error) {
		return h.perms.SetFeatures(ctx, p, role, req.Features)
	})
}

// clientIP prefers the first X-Forwarded-For hop set by the proxy
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
