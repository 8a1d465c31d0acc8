package apierrors

import (
	"encoding/json"
	"errors"
)

// Code represents a client-facing error category independent of transport
// details. These codes describe what went wrong in staff-workflow terms,
// not HTTP terms.
type Code string

const (
	// CodeBadCredentials means a login attempt was rejected. Recoverable:
	// the operator corrects the email/password and retries.
	CodeBadCredentials Code = "bad_credentials"
	// CodeSessionExpired means the refresh credential was rejected. Fatal to
	// the session: the caller must send the operator back to login.
	CodeSessionExpired Code = "session_expired"
	// CodeRequest means the backend answered with a non-success status and a
	// message. Recoverable: shown inline, the operator may retry the action.
	CodeRequest Code = "request_failed"
	// CodeScannerUnavailable means the QR scanner feed could not be acquired
	// or dropped. Recoverable: the operator falls back to manual entry.
	CodeScannerUnavailable Code = "scanner_unavailable"
	// CodeTimeout means a call exceeded the configured request timeout.
	CodeTimeout Code = "timeout"
	// CodeInternal covers everything that should not happen.
	CodeInternal Code = "internal_error"
)

// Error wraps request or session failures with a stable code and a message
// fit for display. It is transport-agnostic and used across the session
// manager, gateway, and domain services.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new error wrapping an existing one. If the wrapped error
// already carries a code, that code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// ExtractMessage pulls the user-facing message out of a backend error body.
// The backend has used both a `message` and an `error` field historically;
// when neither is present (or the body is not JSON) the fallback is used, so
// callers never surface raw HTTP status text.
func ExtractMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return fallback
}

// Message returns the display message for an error. Errors that never went
// through this package fall back to the generic text so raw transport
// failures are not shown to operators verbatim.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}
