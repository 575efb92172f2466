// Package domainerrors carries typed, code-tagged errors across the core.
//
// Services raise these at the point an invariant or permission is violated and
// propagate them unchanged. Transport adapters map the Code to their own status
// space; nothing in this package knows about HTTP.
//
// Infrastructure facts (not found, conflict) come from pkg/platform/sentinel and
// are translated by services into a Code from this package.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, transport-agnostic error identifier.
type Code string

const (
	CodeNotFound                      Code = "not_found"
	CodeUnauthorized                  Code = "unauthorized"
	CodeMemberNotActive               Code = "member_not_active"
	CodeMemberBanned                  Code = "member_banned"
	CodeStatusTransitionForbidden     Code = "status_transition_forbidden"
	CodeArchivedModificationForbidden Code = "archived_modification_forbidden"
	CodeDeletedModificationForbidden  Code = "deleted_modification_forbidden"
	CodeVoteValueInvalid              Code = "vote_value_invalid"
	CodeVoteUnavailable               Code = "vote_unavailable"
	CodeMediaAssetsRequired           Code = "media_assets_required_for_publish"
	CodeValidation                    Code = "validation_error"
	CodeInvariantViolation            Code = "invariant_violation"
	CodeBadRequest                    Code = "bad_request"

	// Infrastructure codes.
	CodeConflict    Code = "conflict"
	CodeTimeout     Code = "timeout"
	CodeUnavailable Code = "unavailable"
	CodeRateLimited Code = "rate_limited"
	CodeInternal    Code = "internal"
)

// Error is a domain failure tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
// Returns nil when err is nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost domain error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the message of the outermost domain error, or a generic
// message for untyped errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// IsRetryable reports whether the failure is transient: an optimistic lock or
// unique-constraint conflict, a timeout, or an unavailable dependency. Domain
// failures are never retryable.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeConflict, CodeTimeout, CodeUnavailable, CodeRateLimited:
		return true
	default:
		return false
	}
}
