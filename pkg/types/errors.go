package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a navigation failure kind. The taxonomy is flat:
// every error surfaced by the engine carries exactly one code.
type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeRouterNotStarted
	ErrCodeAlreadyStarted
	ErrCodeNoStartPath
	ErrCodeRouteNotFound
	ErrCodeSameStates
	ErrCodeTransitionCancelled
	ErrCodeCannotActivate
	ErrCodeCannotDeactivate
	ErrCodeTransitionFailed
	ErrCodeInvalidHandler
	ErrCodeGuardCompileFailed
	ErrCodeSelfRegistration
	ErrCodeCapacityExceeded
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:             "UNKNOWN",
	ErrCodeRouterNotStarted:    "ROUTER_NOT_STARTED",
	ErrCodeAlreadyStarted:      "ALREADY_STARTED",
	ErrCodeNoStartPath:         "NO_START_PATH",
	ErrCodeRouteNotFound:       "ROUTE_NOT_FOUND",
	ErrCodeSameStates:          "SAME_STATES",
	ErrCodeTransitionCancelled: "TRANSITION_CANCELLED",
	ErrCodeCannotActivate:      "CANNOT_ACTIVATE",
	ErrCodeCannotDeactivate:    "CANNOT_DEACTIVATE",
	ErrCodeTransitionFailed:    "TRANSITION_FAILED",
	ErrCodeInvalidHandler:      "INVALID_HANDLER",
	ErrCodeGuardCompileFailed:  "GUARD_COMPILE_FAILED",
	ErrCodeSelfRegistration:    "SELF_REGISTRATION",
	ErrCodeCapacityExceeded:    "CAPACITY_EXCEEDED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the engine's error type. Code is always set; the remaining
// fields are populated where they apply.
type Error struct {
	Code    ErrorCode
	Message string
	Route   string // attempted route name or path, for lookup failures
	Segment string // blocking segment, for guard rejections
	// Attempted is the redirect target a guard tried to return. It is
	// reported for diagnostics and never honored.
	Attempted string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Route != "" {
		b.WriteString(fmt.Sprintf(" route=%q:", e.Route))
	}
	if e.Segment != "" {
		b.WriteString(fmt.Sprintf(" segment=%q:", e.Segment))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Attempted != "" {
		b.WriteString(fmt.Sprintf(" (attempted redirect to %q ignored)", e.Attempted))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithRoute(route string) *Error {
	e.Route = route
	return e
}

func (e *Error) WithSegment(segment string) *Error {
	e.Segment = segment
	return e
}

func (e *Error) WithAttempted(name string) *Error {
	e.Attempted = name
	return e
}

// NewError builds an *Error for a code with a plain message.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from err, or ErrCodeUnknown if err is not
// an engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeUnknown
}

func IsRouterNotStarted(err error) bool {
	return CodeOf(err) == ErrCodeRouterNotStarted
}

func IsAlreadyStarted(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyStarted
}

func IsNoStartPath(err error) bool {
	return CodeOf(err) == ErrCodeNoStartPath
}

func IsRouteNotFound(err error) bool {
	return CodeOf(err) == ErrCodeRouteNotFound
}

func IsSameStates(err error) bool {
	return CodeOf(err) == ErrCodeSameStates
}

func IsTransitionCancelled(err error) bool {
	return CodeOf(err) == ErrCodeTransitionCancelled
}

func IsCannotActivate(err error) bool {
	return CodeOf(err) == ErrCodeCannotActivate
}

func IsCannotDeactivate(err error) bool {
	return CodeOf(err) == ErrCodeCannotDeactivate
}

func IsCapacityExceeded(err error) bool {
	return CodeOf(err) == ErrCodeCapacityExceeded
}

// Blocked reports whether err is a guard rejection, in either direction.
func Blocked(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeCannotActivate || code == ErrCodeCannotDeactivate
}

// Redirect is returned (or wrapped) by a guard that wants to send the
// transition somewhere else. Guards cannot redirect; the attempt is
// recorded on the resulting CannotActivate/CannotDeactivate error and
// the transition is blocked. Only middleware may replace the target
// state.
type Redirect struct {
	Name   string
	Params map[string]string
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("redirect to %q requested", r.Name)
}
