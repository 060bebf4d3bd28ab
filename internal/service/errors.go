package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Handlers map these onto
// status codes; the texts are the user-visible messages.
var (
	ErrInvalidCredentials = errors.New("Invalid credentials.")
	ErrDeviceNotFound     = errors.New("Device not found.")
	ErrInvalidToken       = errors.New("invalid token")
	ErrDeviceExists       = errors.New("A device with the same identifier already exists.")
	ErrUserExists         = errors.New("User already exists.")
	ErrInvalidCode        = errors.New("Invalid verification code.")
	ErrCodeExpired        = errors.New("Verification code expired. Please log in again.")
)

// deviceConflictError carries an identifier-specific message while
// still matching ErrDeviceExists in errors.Is chains, so handlers map
// every uniqueness violation to Conflict.
type deviceConflictError struct{ msg string }

func (e deviceConflictError) Error() string { return e.msg }

func (e deviceConflictError) Is(target error) bool { return target == ErrDeviceExists }

// Identifier-specific conflict sentinels for device registration.
var (
	ErrIMEIExists  error = deviceConflictError{"A device with the same IMEI already exists."}
	ErrPhoneExists error = deviceConflictError{"A device with the same phone already exists."}
)

// ValidationError collects the human-readable messages for a rejected
// submission so callers can surface all of them at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// ExternalError wraps a failure of an outside service (the SMS gateway
// or its configuration). Never retried; always terminal for the request.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }
