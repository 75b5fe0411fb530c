package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling at the
// transport boundary without the boundary knowing every error type.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a document, element, token or slug was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (e.g. blank custom name)
	ValidationError struct {
		Message string
	}

	// ExpiredError indicates a share link past its expiry. Distinct from
	// NotFoundError so callers can render "this link has expired" rather
	// than a generic 404.
	ExpiredError struct {
		Message string
	}

	// PersistenceError indicates a backing-store I/O failure
	PersistenceError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string    { return e.Message }
func (e *ValidationError) Error() string  { return e.Message }
func (e *ExpiredError) Error() string     { return e.Message }
func (e *PersistenceError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int    { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int  { return http.StatusBadRequest }
func (e *ExpiredError) StatusCode() int     { return http.StatusForbidden }
func (e *PersistenceError) StatusCode() int { return http.StatusInternalServerError }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrValidation  = errors.New("validation failed")
	ErrExpired     = errors.New("share link expired")
	ErrPersistence = errors.New("persistence failure")
)

// Is implementations so typed errors match their sentinels via errors.Is()
func (e *NotFoundError) Is(target error) bool    { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool  { return target == ErrValidation }
func (e *ExpiredError) Is(target error) bool     { return target == ErrExpired }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// ConflictError represents a duplicate-id conflict with details about the
// existing resource. Implements HTTPError for extensible error handling.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, element)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
