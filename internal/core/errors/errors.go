package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Authentication & Authorization
	ErrForbidden     = errors.New("action forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrTokenRequired = errors.New("authentication token is required")

	// News validation
	ErrNewsNotFound     = errors.New("news not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrTitleTooLong     = errors.New("title exceeds maximum length of 100 characters")
	ErrContentRequired  = errors.New("content is required")
	ErrContentTooLong   = errors.New("content exceeds maximum length of 400 characters")
	ErrAuthorRequired   = errors.New("author ID is required")
	ErrInvalidNewsState = errors.New("invalid news status")

	// Notifications
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidEventType     = errors.New("invalid notification event type")
	ErrMessageRequired      = errors.New("notification message is required")
	ErrMessageTooLong       = errors.New("notification message exceeds maximum length")

	// Live transport
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSendBufferFull     = errors.New("connection send buffer is full")

	// Change feed
	ErrListenerRunning = errors.New("notification listener already running")
	ErrFeedClosed      = errors.New("notification feed closed")

	// Scheduler
	ErrSchedulerRunning = errors.New("publish scheduler already running")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Message:    message,
		Code:       "FORBIDDEN",
		StatusCode: 403,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
