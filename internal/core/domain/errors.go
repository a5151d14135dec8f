// Package domain defines the core domain models for booklend.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a client-side domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "BL-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
// The cause's message becomes the details when none are set.
func (e *DomainError) Wrap(cause error) *DomainError {
	wrapped := e.WithCause(cause)
	if wrapped.Details == "" && cause != nil {
		wrapped.Details = cause.Error()
	}
	return wrapped
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorage indicates a read or write against the local store failed.
	// Reads that fail are treated as absent values by callers.
	ErrStorage = NewDomainError("BL-STOR-5001", "local storage error")

	// ErrUnknownKey indicates a key outside the registry was used.
	ErrUnknownKey = NewDomainError("BL-STOR-4000", "unknown storage key")
)

// ============================================================================
// Biometric Errors (BIO)
// ============================================================================

var (
	// ErrCapability indicates the device lacks biometric hardware or enrolment.
	ErrCapability = NewDomainError("BL-BIO-4001", "biometric authentication unavailable")

	// ErrChallengeFailed indicates the user cancelled or failed the prompt.
	// Recoverable: the user may retry.
	ErrChallengeFailed = NewDomainError("BL-BIO-4011", "biometric authentication failed")
)

// ============================================================================
// Network and Authentication Errors (NET, AUTH)
// ============================================================================

var (
	// ErrTransport indicates the catalog service could not be reached.
	// Retryable by re-issuing the action.
	ErrTransport = NewDomainError("BL-NET-5030", "catalog service unreachable")

	// ErrBadResponse indicates a successful status carried a body the
	// client could not read.
	ErrBadResponse = NewDomainError("BL-NET-5020", "unreadable response from catalog service")

	// ErrAuthRejected indicates the service rejected the session token.
	ErrAuthRejected = NewDomainError("BL-AUTH-4010", "session rejected by server, please sign in again")

	// ErrNotAuthenticated indicates a protected operation was attempted
	// outside the Authenticated state.
	ErrNotAuthenticated = NewDomainError("BL-AUTH-4011", "not authenticated")

	// ErrSignInFailed indicates the credentials were refused at sign-in.
	ErrSignInFailed = NewDomainError("BL-AUTH-4012", "sign-in failed")
)

// ============================================================================
// Catalog Errors (BOOK, ARG, OP)
// ============================================================================

var (
	// ErrValidation indicates client-side form constraints failed.
	ErrValidation = NewDomainError("BL-ARG-4001", "validation failed")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("BL-ARG-4002", "missing required argument")

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = NewDomainError("BL-BOOK-4040", "book not found")

	// ErrOperationPending indicates an operation is already in flight.
	ErrOperationPending = NewDomainError("BL-OP-4090", "operation already in progress")
)

// FieldError describes one failed form field.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError collects every failed field of a form submission.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a ValidationError from the given field errors.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return ErrValidation.WithDetails(strings.Join(parts, "; ")).Error()
}

// Is reports ErrValidation equivalence.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || IsDomainError(target, ErrValidation.Code)
}

// Has reports whether the named field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
