// Package domainerrors provides coded errors for caller-facing failures.
//
// Every failure that crosses a service boundary carries a Code from the closed
// set below plus a human-readable message. Callers branch on codes via HasCode,
// never on message content. Low-level causes (store sentinels, ledger error
// codes) are translated into these codes exactly once, at the service or
// adapter that observes them.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a category of domain error.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodePreconditionFailed Code = "precondition_failed"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
	CodeUnavailable        Code = "unavailable"

	// Gateway sub-codes, mapped centrally from ledger error codes by the
	// notarization adapter.
	CodeInsufficientFunds  Code = "gateway_insufficient_funds"
	CodeAccountConflict    Code = "gateway_account_conflict"
	CodeUnauthorizedSigner Code = "gateway_unauthorized_signer"
	CodeGatewayUnavailable Code = "gateway_unavailable"
)

// Error is a coded domain error with optional key/value attributes.
type Error struct {
	Code    Code
	Message string
	attrs   map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a domain code and message. The
// cause stays reachable through errors.Unwrap for logging, but callers are
// expected to branch on the code only.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Add attaches a key/value attribute to a domain error and returns it. Used
// for machine-readable detail such as the field behind a conflict. Non-domain
// errors are returned unchanged.
func Add(err error, key, value string) error {
	var de *Error
	if !errors.As(err, &de) {
		return err
	}
	if de.attrs == nil {
		de.attrs = make(map[string]string, 1)
	}
	de.attrs[key] = value
	return err
}

// Attr reads an attribute previously attached with Add. Returns "" when the
// error is not a domain error or the key is absent.
func Attr(err error, key string) string {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.attrs[key]
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if !errors.As(err, &de) {
		return CodeInternal
	}
	return de.Code
}
