package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// GraphErrorMessage describes Neo4j related failures.
	GraphErrorMessage = "graph catalog operation failed"
	// CatalogLoadMessage describes a catalog that could not be loaded at startup.
	CatalogLoadMessage = "catalog could not be loaded"
	// ReplyErrorMessage describes a failed reply generation call.
	ReplyErrorMessage = "reply generation failed"
)

// Error wraps an underlying error with an HTTP status and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapCatalog marks err as a fatal catalog load failure.
func WrapCatalog(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, CatalogLoadMessage)
}

// WrapReply marks err as a failed reply generation call.
func WrapReply(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, ReplyErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when err is not an *Error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
