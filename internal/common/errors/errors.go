// Package errors provides the standardized error taxonomy for the
// application assistant: validation, authentication, registration and
// network failures each carry a stable code the callers branch on.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeRegistrationRequired ErrorCode = "REGISTRATION_REQUIRED"
	ErrCodePasswordTooShort     ErrorCode = "PASSWORD_TOO_SHORT"
	ErrCodeIdentityUnverified   ErrorCode = "IDENTITY_UNVERIFIED"
	ErrCodeChecklistIncomplete  ErrorCode = "CHECKLIST_INCOMPLETE"
	ErrCodeSubmitInFlight       ErrorCode = "SUBMIT_IN_FLIGHT"
	ErrCodeSnapshotFetchFailed  ErrorCode = "SNAPSHOT_FETCH_FAILED"
	ErrCodeRemoteCallFailed     ErrorCode = "REMOTE_CALL_FAILED"
	ErrCodeStorageFailed        ErrorCode = "STORAGE_FAILED"
	ErrCodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewValidationError reports missing or malformed input. It never reflects
// a credential mismatch; use NewAuthenticationError for that.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Required input missing or invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError reports a wrong credential where a canonical
// password is known. The details never say which part failed beyond
// "does not match".
func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistrationRequiredError signals that a branch has no password on
// record yet. This is a prompt, not a rejection.
func NewRegistrationRequiredError(branchName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistrationRequired,
		Message:   "Branch password not registered",
		Details:   fmt.Sprintf("branchName: %s", branchName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPasswordTooShortError rejects a registration attempt before it
// reaches the network.
func NewPasswordTooShortError(minLen int) *StandardError {
	return &StandardError{
		Code:      ErrCodePasswordTooShort,
		Message:   "Password too short",
		Details:   fmt.Sprintf("minimum length: %d", minLen),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityUnverifiedError blocks submission until verification ran.
func NewIdentityUnverifiedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityUnverified,
		Message:   "Salesperson identity has not been verified",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChecklistIncompleteError gates the submission step.
func NewChecklistIncompleteError() *StandardError {
	return &StandardError{
		Code:      ErrCodeChecklistIncomplete,
		Message:   "Document checklist is not complete",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmitInFlightError reports that a submission is already pending.
func NewSubmitInFlightError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitInFlight,
		Message:   "A submission is already in flight",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSnapshotFetchError wraps a failed reference-data pull. Callers keep
// the last-known snapshot; this is diagnostics only.
func NewSnapshotFetchError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSnapshotFetchFailed,
		Message:   "Remote snapshot fetch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteCallError wraps a failed fire-and-forget write.
func NewRemoteCallError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteCallFailed,
		Message:   fmt.Sprintf("Remote call '%s' failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError wraps a local persistence failure.
func NewStorageError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Local storage operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError reports an unknown wizard session id.
func NewSessionNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidationFailed)
}

// IsAuthentication reports whether err is an authentication rejection.
func IsAuthentication(err error) bool {
	return HasCode(err, ErrCodeAuthenticationFailed)
}

// IsRegistrationRequired reports whether err is the register-first prompt.
func IsRegistrationRequired(err error) bool {
	return HasCode(err, ErrCodeRegistrationRequired)
}
