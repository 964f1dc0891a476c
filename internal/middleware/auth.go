package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, code, message string) {
	respondWithJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// Authenticator resolves an access token into the calling team member
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Principal, error)
}

// WithPrincipal stores the authenticated caller in ctx
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller stored by JWTAuth
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// JWTAuth validates the bearer access token and the session behind it.
// Browsers cannot set headers on websocket upgrades, so the realtime endpoint
// may pass the token as the access_token query parameter instead.
func JWTAuth(auth Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, code, message := bearerToken(r)
			if accessToken == "" {
				respondWithError(w, http.StatusUnauthorized, code, message)
				return
			}

			principal, err := auth.Authenticate(r.Context(), accessToken)
			if err != nil {
				log.Debug("access token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *principal)))
		})
	}
}

func bearerToken(r *http.Request) (token, code, message string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if t := r.URL.Query().Get("access_token"); t != "" && isUpgrade(r) {
			return t, "", ""
		}
		return "", "MISSING_TOKEN", "Authorization header is required"
	}

	// check for Bearer token format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "INVALID_TOKEN_FORMAT", "Authorization header must be in format: Bearer <token>"
	}
	return parts[1], "", ""
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
