// Package errors defines the coded error values every service in the registry
// returns. Errors are plain values: a boundary operation returns either a
// success value or exactly one of these, never both. Codes are stable and map
// to a numeric wire code and an HTTP status for the transport layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeInternal             Code = "internal"
	CodeRemote               Code = "remote_error"
	CodeUnauthorized         Code = "unauthorized"
	CodePermissionDenied     Code = "permission_denied"
	CodeBadRequest           Code = "bad_request"
	CodeInvalidName          Code = "invalid_name"
	CodeRegistrationNotFound Code = "registration_not_found"
	CodeInsufficientQuota    Code = "insufficient_quota"
	CodeConflict             Code = "conflict"
	CodeNotFound             Code = "not_found"
)

// wireCodes assigns each code a stable numeric identifier for the JSON error
// envelope. Numbers never change meaning once assigned.
var wireCodes = map[Code]uint32{
	CodeInternal:             1,
	CodeRemote:               2,
	CodeUnauthorized:         3,
	CodePermissionDenied:     4,
	CodeBadRequest:           5,
	CodeInvalidName:          6,
	CodeRegistrationNotFound: 7,
	CodeInsufficientQuota:    8,
	CodeConflict:             9,
	CodeNotFound:             10,
}

// Error carries a code, a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As for diagnostics.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Remote wraps a failure surfaced by a collaborator call, preserving the
// remote code and message. The original error is never swallowed.
func Remote(remoteCode uint32, remoteMessage string) error {
	return &Error{
		Code:    CodeRemote,
		Message: fmt.Sprintf("remote error %d: %s", remoteCode, remoteMessage),
	}
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// MessageOf returns the message of err, or its Error() text for uncoded errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// WireCode returns the stable numeric identifier for a code. Unknown codes map
// to the internal code.
func WireCode(code Code) uint32 {
	if n, ok := wireCodes[code]; ok {
		return n
	}
	return wireCodes[CodeInternal]
}

// ToHTTPStatus maps a code to the HTTP status the transport layer responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeRegistrationNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidName, CodeBadRequest, CodeInsufficientQuota:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
