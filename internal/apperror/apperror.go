// Package apperror defines the failure taxonomy surfaced to HTTP callers.
//
// Every failure that reaches a client is rendered as {"error": <message>}.
// The Kind decides the default status; Status overrides it when a handler
// knows better (for example an upstream 404).
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure
type Kind string

const (
	KindUnauthenticated       Kind = "unauthenticated"
	KindForbidden             Kind = "forbidden"
	KindInternalConfiguration Kind = "internal_configuration"
	KindUpstream              Kind = "upstream"
	KindBadRequest            Kind = "bad_request"
	KindNotImplemented        Kind = "not_implemented"
	KindRateLimited           Kind = "rate_limited"
	KindNotFound              Kind = "not_found"
	KindConflict              Kind = "conflict"
)

var defaultStatus = map[Kind]int{
	KindUnauthenticated:       http.StatusUnauthorized,
	KindForbidden:             http.StatusForbidden,
	KindInternalConfiguration: http.StatusInternalServerError,
	KindUpstream:              http.StatusInternalServerError,
	KindBadRequest:            http.StatusBadRequest,
	KindNotImplemented:        http.StatusNotImplemented,
	KindRateLimited:           http.StatusTooManyRequests,
	KindNotFound:              http.StatusNotFound,
	KindConflict:              http.StatusConflict,
}

// StatusCoder is implemented by failures that carry an HTTP status
type StatusCoder interface {
	StatusCode() int
}

// Error is an HTTP-facing failure.
// Message is shown to the caller; Err is logged only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns Status when set, else the default for Kind
func (e *Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := defaultStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithStatus returns a copy of e with an explicit status
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unauthenticated reports a missing, malformed, expired or forged credential
func Unauthenticated(message string, err error) *Error {
	return newError(KindUnauthenticated, message, err)
}

// Forbidden reports a valid identity without a sufficient role
func Forbidden(message string) *Error {
	return newError(KindForbidden, message, nil)
}

// InternalConfiguration reports a route wired without its required upstream middleware
func InternalConfiguration(message string) *Error {
	return newError(KindInternalConfiguration, message, nil)
}

// Upstream wraps a failure from a business handler or a downstream dependency
func Upstream(message string, err error) *Error {
	return newError(KindUpstream, message, err)
}

// BadRequest reports a malformed request
func BadRequest(message string, err error) *Error {
	return newError(KindBadRequest, message, err)
}

// NotImplemented reports a route whose controller is not linked into this binary
func NotImplemented(message string) *Error {
	return newError(KindNotImplemented, message, nil)
}

// RateLimited reports a caller that exceeded its request budget
func RateLimited(message string) *Error {
	return newError(KindRateLimited, message, nil)
}

// NotFound reports a missing resource
func NotFound(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// Conflict reports a write that collides with existing state
func Conflict(message string, err error) *Error {
	return newError(KindConflict, message, err)
}

// Status returns the HTTP status carried by err, or 500
func Status(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 400 && s <= 599 {
			return s
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to show a caller.
// Failures that carry no status are opaque and map to a generic message.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return err.Error()
	}
	return http.StatusText(http.StatusInternalServerError)
}
