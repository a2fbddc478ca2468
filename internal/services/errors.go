package services

import (
	"errors"
	"strings"
)

// Error taxonomy shared by all services. Handlers map these to HTTP status
// codes; anything not wrapping one of them is treated as internal.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("access denied")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

// isUniqueViolation detects a Postgres unique-constraint failure without
// binding the services to a specific driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
