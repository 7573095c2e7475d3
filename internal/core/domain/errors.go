// Package domain defines the value types shared by the mesh terminal.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format MT-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "MT-ARG-4001")
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
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("MT-ARG-4000", "missing required argument")

	// ErrInvalidMAC indicates a MAC address string could not be parsed.
	ErrInvalidMAC = NewDomainError("MT-ARG-4001", "invalid MAC address")

	// ErrInvalidTTL indicates a TTL string is not an integer.
	ErrInvalidTTL = NewDomainError("MT-ARG-4002", "invalid TTL")

	// ErrTTLOutOfRange indicates a TTL outside [TTLMin, TTLMax].
	ErrTTLOutOfRange = NewDomainError("MT-ARG-4003", "TTL out of range")

	// ErrUnknownRole indicates an unrecognized role token.
	ErrUnknownRole = NewDomainError("MT-ARG-4004", "unknown role")

	// ErrUnknownDebugMode indicates an unrecognized debug mode token.
	ErrUnknownDebugMode = NewDomainError("MT-ARG-4005", "unknown debug mode")
)

// ============================================================================
// Command Errors (CMD)
// ============================================================================

var (
	// ErrUnknownCommand indicates no built-in or custom command matched.
	ErrUnknownCommand = NewDomainError("MT-CMD-4040", "unknown command")
)

// ============================================================================
// Registry Errors (REG)
// ============================================================================

var (
	// ErrInvalidCommandName indicates an empty or malformed custom command name.
	ErrInvalidCommandName = NewDomainError("MT-REG-4000", "invalid command name")

	// ErrNilHandler indicates a custom command was registered without a handler.
	ErrNilHandler = NewDomainError("MT-REG-4001", "command handler is nil")

	// ErrShadowsBuiltin indicates a custom command name collides with a built-in.
	ErrShadowsBuiltin = NewDomainError("MT-REG-4090", "name collides with built-in command")

	// ErrDuplicateCommand indicates a custom command with the same name exists.
	ErrDuplicateCommand = NewDomainError("MT-REG-4091", "command already registered")
)

// ============================================================================
// Mesh Errors (MESH)
// ============================================================================

var (
	// ErrSendFailed indicates the mesh service could not send a message.
	ErrSendFailed = NewDomainError("MT-MESH-5001", "send failed")

	// ErrAckTimeout indicates a reliable send was not acknowledged in time.
	ErrAckTimeout = NewDomainError("MT-MESH-5040", "delivery not acknowledged")

	// ErrNoResponse indicates a ping received no replies.
	ErrNoResponse = NewDomainError("MT-MESH-5041", "no response")

	// ErrNoRoute indicates the destination is not reachable.
	ErrNoRoute = NewDomainError("MT-MESH-5042", "no route to destination")

	// ErrRateLimited indicates outbound traffic exceeded the configured rate.
	ErrRateLimited = NewDomainError("MT-MESH-4290", "send rate exceeded")
)
