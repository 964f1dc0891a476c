package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/mappers"
	"github.com/shreyas/kumbhmela-leads/internal/middleware"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/internal/services"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

// RequestTimeout bounds every store round trip started by a handler
const RequestTimeout = 8 * time.Second

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes an error response
func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// base carries what every handler needs: request validation and a logger
type base struct {
	validate *validation.Validator
	log      *zap.Logger
}

func newBase(v *validation.Validator, log *zap.Logger) base {
	if v == nil {
		v = validation.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return base{validate: v, log: log}
}

// requestContext derives the per-request deadline from the client's context
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), RequestTimeout)
}

// principal returns the caller set by the auth middleware. Routes behind
// JWTAuth always have one; a missing principal is answered with 401.
func (b base) principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication required")
	}
	return p, ok
}

// decode reads a JSON body into dst and runs struct validation when validate is set
func (b base) decode(w http.ResponseWriter, r *http.Request, dst interface{}, validate bool) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body is required")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	if !validate {
		return true
	}
	if err := b.validate.Struct(dst); err != nil {
		b.fail(w, r, err)
		return false
	}
	return true
}

// fail maps a service or store error to its HTTP status
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *mappers.ValidationError
		fve validator.ValidationErrors
	)
	switch {
	case errors.As(err, &ve):
		fields := make(map[string]string, len(ve.Fields))
		for _, f := range ve.Fields {
			fields[f] = "required"
		}
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code: "VALIDATION_ERROR", Message: ve.Error(), Fields: fields,
		}})
	case errors.As(err, &fve):
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code: "VALIDATION_ERROR", Message: "Request validation failed", Fields: validation.Details(fve),
		}})
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrUnknownStatus):
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, services.ErrSessionInvalid):
		respondWithError(w, http.StatusUnauthorized, "SESSION_INVALID", "Session expired or revoked")
	case errors.Is(err, services.ErrInactiveAccount):
		respondWithError(w, http.StatusForbidden, "ACCOUNT_INACTIVE", "Account is inactive")
	case repositories.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repositories.ErrInsufficientStock):
		respondWithError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, services.ErrOrderNotPending), errors.Is(err, services.ErrOrderAlreadyRejected):
		respondWithError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case repositories.IsConflict(err), repositories.IsDuplicateKey(err):
		respondWithError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request timed out")
	default:
		b.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
