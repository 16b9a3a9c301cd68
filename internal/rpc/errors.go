package rpc

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrHTTPStatus      = errors.New("unexpected HTTP status")
	ErrNotObject       = errors.New("response body is not a JSON object")
	ErrMissingResult   = errors.New("response has neither result nor error")
	ErrEmptyBody       = errors.New("empty response body")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// maxBodyInError bounds how much of a body Error() prints. The full body is
// always kept in the error value.
const maxBodyInError = 512

// TransportError reports a response that could not be interpreted as a
// JSON-RPC reply at all: a non-2xx status, a body that is not an object, or
// an object with neither "result" nor "error". It keeps the raw status and
// body verbatim.
type TransportError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	body := e.Body
	suffix := ""
	if len(body) > maxBodyInError {
		body, suffix = body[:maxBodyInError], "..."
	}
	return fmt.Sprintf("%v (HTTP %d): %s%s", e.Err, e.StatusCode, body, suffix)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Error is a structured JSON-RPC error returned by the node.
type Error struct {
	Code              int64
	Message           string
	RetryAfterSeconds *int64
	Custom            CustomError
	// Data is the raw "data" member, nil when absent.
	Data []byte
}

func (e *Error) Error() string {
	msg := "rpc error " + strconv.FormatInt(e.Code, 10) + ": " + e.Message
	if e.RetryAfterSeconds != nil {
		msg += fmt.Sprintf(" (retry after %ds)", *e.RetryAfterSeconds)
	}
	return msg
}

// Unwrap exposes the custom error, so errors.Is(err, rpc.BlockCleanedUp)
// works on a returned *Error.
func (e *Error) Unwrap() error {
	if e.Custom == nil {
		return nil
	}
	return e.Custom
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsError returns the structured RPC error wrapped by err, if any.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by a transport error, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
