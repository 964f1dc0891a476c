package repositories

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Common repository errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = mongo.ErrNoDocuments

	// ErrDuplicateKey is returned when trying to insert a duplicate document
	ErrDuplicateKey = errors.New("duplicate key error")

	// ErrConflict is returned when a conditional update matched no document
	// because the row is not in the expected state
	ErrConflict = errors.New("state conflict")
)

// Domain-specific "not found" errors
// These errors wrap mongo.ErrNoDocuments to provide domain context
// Usage in repositories:
//
//	if err == mongo.ErrNoDocuments {
//	    return nil, WrapNotFound(err, ErrLeadNotFound)
//	}
var (
	ErrLeadNotFound          = errors.New("lead not found")
	ErrActivityNotFound      = errors.New("activity not found")
	ErrInventoryNotFound     = errors.New("inventory item not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrNoteNotFound          = errors.New("note not found")
	ErrTodoNotFound          = errors.New("todo not found")
	ErrTeamMemberNotFound    = errors.New("team member not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrFileNotFound          = errors.New("file not found")
	ErrFeaturePermsNotFound  = errors.New("feature permissions not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrStatusTransitionStale = fmt.Errorf("%w: status changed concurrently", ErrConflict)
)

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsDuplicateKeyError(err) || errors.Is(err, ErrDuplicateKey)
}

// IsConflict checks if an error is a conditional update conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// WrapNotFound wraps mongo.ErrNoDocuments with a domain-specific error
// This preserves the original MongoDB error while adding domain context
//
// This allows handlers to check:
//
//	if errors.Is(err, ErrLeadNotFound) { ... }  // domain-specific check
//	if IsNotFound(err) { ... }                  // generic not found check
func WrapNotFound(err error, domainErr error) error {
	if err == nil {
		return nil
	}
	// Only wrap if it's actually a "not found" error
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", domainErr, err)
	}
	// Return original error if it's not a "not found" error
	return err
}

// notFound builds a domain not-found error for updates that matched nothing
func notFound(domainErr error) error {
	return WrapNotFound(mongo.ErrNoDocuments, domainErr)
}
