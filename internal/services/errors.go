package services

import (
	"errors"

	"github.com/andescargo/tracking-gateway/internal/model"
)

var (
	// ErrUnauthorized means no authenticated actor was supplied.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the actor is authenticated but not allowed:
	// writes require the package creator or an administrator.
	ErrForbidden = errors.New("access denied")
	// ErrNotFound means the referenced package does not exist.
	ErrNotFound = errors.New("package not found")
)

// ValidationError carries the full per-field failure set for a request.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}
