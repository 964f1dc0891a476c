package services

import "errors"

// Service-level errors. Handlers map these to HTTP status codes.
var (
	// ErrInvalidInput wraps request validation failures (400)
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownStatus is returned for a lead status that is neither a known
	// stage nor a stored custom label (400)
	ErrUnknownStatus = errors.New("unknown lead status")

	// ErrOrderNotPending is returned when approving an order that is not pending (409)
	ErrOrderNotPending = errors.New("order is not pending")

	// ErrOrderAlreadyRejected is returned when rejecting a rejected order (409)
	ErrOrderAlreadyRejected = errors.New("order is already rejected")

	// ErrInvalidCredentials is returned on a failed sign-in (401)
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount is returned when a deactivated member signs in (403)
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrSessionInvalid is returned for revoked or expired sessions (401)
	ErrSessionInvalid = errors.New("session is not valid")
)
