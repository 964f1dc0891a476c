package middleware

import (
	"net/http"

	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// RequireFeature rejects callers whose role does not grant feature.
// Features were resolved from feature_permissions when the token was authenticated.
func RequireFeature(feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication required")
				return
			}

			if !models.HasFeature(principal.Features, feature) {
				respondWithError(w, http.StatusForbidden, "PERMISSION_DENIED", "You don't have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows only the listed roles through
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication required")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, http.StatusForbidden, "ROLE_REQUIRED", "Your role cannot perform this action")
		})
	}
}
