package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindForbidden          Kind = "FORBIDDEN"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindValidation         Kind = "VALIDATION"
	KindInvalidRange       Kind = "INVALID_RANGE"
	KindConflict           Kind = "CONFLICT"
	KindDuplicateReview    Kind = "DUPLICATE_REVIEW"
	KindImageLimitExceeded Kind = "IMAGE_LIMIT_EXCEEDED"
	KindAlreadyStarted     Kind = "ALREADY_STARTED"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindInternal           Kind = "INTERNAL"
)

// AppError is an error surfaced to the caller with a stable kind
type AppError struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures
	Fields map[string]string
	Err    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind
func (e *AppError) Status() int {
	return StatusFor(e.Kind)
}

// StatusFor maps a kind to its HTTP status code
func StatusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindValidation, KindInvalidRange:
		return http.StatusBadRequest
	case KindForbidden, KindConflict, KindDuplicateReview, KindImageLimitExceeded, KindAlreadyStarted:
		return http.StatusForbidden
	case KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewUnauthenticatedError creates a new unauthenticated error
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

// NewValidationError creates a validation error carrying per-field messages
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// NewInvalidRangeError creates an error for a start date not before the end date
func NewInvalidRangeError() *AppError {
	return &AppError{
		Kind:    KindInvalidRange,
		Message: "Bad Request",
		Fields:  map[string]string{"end_date": "endDate cannot be on or before startDate"},
	}
}

// NewConflictError creates an error for overlapping bookings
func NewConflictError() *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: "Sorry, this spot is already booked for the specified dates",
		Fields: map[string]string{
			"start_date": "Start date conflicts with an existing booking",
			"end_date":   "End date conflicts with an existing booking",
		},
	}
}

// NewDuplicateReviewError creates an error for a second review of the same spot
func NewDuplicateReviewError() *AppError {
	return &AppError{Kind: KindDuplicateReview, Message: "User already has a review for this spot"}
}

// NewImageLimitError creates an error for a review at its image cap
func NewImageLimitError() *AppError {
	return &AppError{Kind: KindImageLimitExceeded, Message: "Maximum number of images for this resource was reached"}
}

// NewAlreadyStartedError creates an error for cancelling an in-progress booking
func NewAlreadyStartedError() *AppError {
	return &AppError{Kind: KindAlreadyStarted, Message: "Bookings that have been started can't be deleted"}
}

// NewAlreadyExistsError creates an error for a uniqueness violation on a field
func NewAlreadyExistsError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindAlreadyExists, Message: message, Fields: fields}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
