package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamingUnsupported is returned when a streaming or event-stream
// response is sent over a connection whose ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("loom: response writer does not support streaming")

// HTTPError is a failure with an HTTP identity: a status code plus the
// structured pieces error pages and fragments render. It travels the
// error pipeline like any other error; dispatch resolves it to its
// status instead of a blanket 500.
type HTTPError struct {
	// Err is the underlying cause, logged but never shown to users.
	Err error

	// Message is the user-facing error message.
	Message string

	// Title optionally overrides the heading derived from Code.
	Title string

	// Detail is an optional extended description.
	Detail string

	// ErrorCode is an application-specific code for i18n and client
	// handling.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// Allow lists the permitted methods for 405 responses; written as
	// the Allow header and embedded in the message body.
	Allow []string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// WithTitle overrides the heading derived from the status code.
func WithTitle(title string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Title = title
	}
}

// WithDetail attaches an extended description.
func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

// WithErrorCode attaches an application-specific error code.
func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

// WithRequestID attaches the request tracking ID.
func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

// WithError attaches the underlying cause.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func statusError(code int, message string, opts []HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Constructors for the common statuses.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusBadRequest, message, opts)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusUnauthorized, message, opts)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusForbidden, message, opts)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusNotFound, message, opts)
}

// ErrMethodNotAllowed builds a 405 carrying the set of permitted
// methods for the attempted path.
func ErrMethodNotAllowed(message string, allow []string, opts ...HTTPErrorOption) *HTTPError {
	e := statusError(http.StatusMethodNotAllowed, message, opts)
	e.Allow = allow
	return e
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusConflict, message, opts)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusUnprocessableEntity, message, opts)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusInternalServerError, message, opts)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return statusError(http.StatusServiceUnavailable, message, opts)
}

// IsHTTPError reports whether err is or wraps an *HTTPError.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// AsHTTPError extracts an *HTTPError from err, nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// PanicError wraps a recovered handler panic so it can travel the error
// pipeline like any other failure. The captured stack is logged and, in
// debug mode, shown on the diagnostic page.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsPanicError reports whether err is or wraps a *PanicError.
func IsPanicError(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}

// AsPanicError extracts a *PanicError from err, nil if there is none.
func AsPanicError(err error) *PanicError {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// NegotiationError reports a handler return value that matches none of
// the recognized shapes. This is a programmer error, not a request
// error: it is always logged with full detail, rendered as a
// diagnostic page in debug mode, and as a generic 500 in production.
type NegotiationError struct {
	Value any
}

func (e *NegotiationError) Error() string {
	if e.Value == nil {
		return "handler returned nil with no error; return a value or a Response"
	}
	return fmt.Sprintf(
		"cannot negotiate handler return value of type %T; return a Response, a directive (Page, Fragment, Stream, Events, Redirect, ...), a string, []byte, or a JSON-able map, slice, or struct",
		e.Value,
	)
}
