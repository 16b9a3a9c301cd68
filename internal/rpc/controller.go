package rpc

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/solrpc/internal/stream"
)

// DecodeFunc decodes a domain value. The cursor is positioned at the
// "result" value, or at the start of the document for controllers built
// with WholeDocument. Decoding problems are reported through the cursor.
type DecodeFunc[T any] func(resp *RawResponse, it *stream.Iter) T

// Result adapts a plain reader to a DecodeFunc.
func Result[T any](read func(it *stream.Iter) T) DecodeFunc[T] {
	return func(_ *RawResponse, it *stream.Iter) T { return read(it) }
}

// Predicate gates domain decoding of a response that passed the envelope
// checks. Returning false makes the controller yield an absent result.
type Predicate func(resp *RawResponse, body []byte) bool

// Outcome classifies how a response was handled.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeIntercepted Outcome = "intercepted"
	OutcomeTransport   Outcome = "transport"
	OutcomeRPCError    Outcome = "rpc_error"
	OutcomeDecodeError Outcome = "decode_error"
)

// Observer receives one event per decoded response.
type Observer interface {
	ObserveDecode(method string, outcome Outcome, bodySize int, elapsed time.Duration)
	ObserveCustomError(code int64)
}

type controllerOptions struct {
	intercept Predicate
	whole     bool
	log       zerolog.Logger
	observer  Observer
}

type ControllerOption func(*controllerOptions)

// WithPredicate installs an interception predicate.
func WithPredicate(p Predicate) ControllerOption {
	return func(o *controllerOptions) { o.intercept = p }
}

// WholeDocument hands the decode function the entire envelope instead of
// the "result" value.
func WholeDocument() ControllerOption {
	return func(o *controllerOptions) { o.whole = true }
}

func WithLogger(log zerolog.Logger) ControllerOption {
	return func(o *controllerOptions) { o.log = log }
}

func WithObserver(obs Observer) ControllerOption {
	return func(o *controllerOptions) { o.observer = obs }
}

// Controller turns raw responses into domain values of type T. It holds no
// per-response state and may be shared between goroutines.
type Controller[T any] struct {
	decode DecodeFunc[T]
	opts   controllerOptions
}

func NewController[T any](decode DecodeFunc[T], opts ...ControllerOption) *Controller[T] {
	c := &Controller[T]{
		decode: decode,
		opts:   controllerOptions{log: zerolog.Nop()},
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Decode runs the envelope checks, the interception predicate and the
// domain decoder. A null result and an intercepted response both yield the
// zero value of T and a nil error; use DecodeOptional to tell them apart
// from a decoded value.
func (c *Controller[T]) Decode(resp *RawResponse) (T, error) {
	v, _, err := c.DecodeOptional(resp)
	return v, err
}

// DecodeOptional is Decode that also reports whether a value was decoded.
func (c *Controller[T]) DecodeOptional(resp *RawResponse) (T, bool, error) {
	var (
		zero        T
		v           T
		present     bool
		intercepted bool
		decodeErr   error
	)
	start := time.Now()

	it := stream.New(resp.Body)
	err := checkEnvelope(resp, it, func(it *stream.Iter) {
		if c.opts.intercept != nil && !c.opts.intercept(resp, resp.Body) {
			intercepted = true
			it.Skip()
			return
		}
		if c.opts.whole {
			it.Skip()
			return
		}
		if it.ReadNull() {
			return
		}
		present = true
		v, decodeErr = c.run(resp, it)
	})

	switch {
	case decodeErr != nil:
		c.observe(resp, OutcomeDecodeError, start)
		return zero, false, decodeErr
	case err != nil:
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			c.observe(resp, OutcomeRPCError, start)
			if c.opts.observer != nil && rpcErr.Custom != nil {
				if _, unknown := rpcErr.Custom.(UnknownCustomError); !unknown {
					c.opts.observer.ObserveCustomError(rpcErr.Code)
				}
			}
		} else {
			c.observe(resp, OutcomeTransport, start)
		}
		return zero, false, err
	case intercepted:
		c.observe(resp, OutcomeIntercepted, start)
		return zero, false, nil
	}

	if c.opts.whole {
		it.Reset(resp.Body)
		if v, err = c.run(resp, it); err != nil {
			c.observe(resp, OutcomeDecodeError, start)
			return zero, false, err
		}
		present = true
	}
	c.observe(resp, OutcomeOK, start)
	return v, present, nil
}

// run invokes the decode function. Failures and panics are logged with the
// status and raw body, then passed on unchanged.
func (c *Controller[T]) run(resp *RawResponse, it *stream.Iter) (T, error) {
	defer func() {
		if r := recover(); r != nil {
			c.opts.log.Error().
				Str("method", resp.Method).
				Int("status", resp.StatusCode).
				Bytes("body", resp.Body).
				Interface("panic", r).
				Msg("response decoder panicked")
			panic(r)
		}
	}()

	v := c.decode(resp, it)
	if err := it.Err(); err != nil {
		c.opts.log.Error().
			Err(err).
			Str("method", resp.Method).
			Int("status", resp.StatusCode).
			Bytes("body", resp.Body).
			Msg("failed to decode response")
		var zero T
		return zero, err
	}
	return v, nil
}

func (c *Controller[T]) observe(resp *RawResponse, outcome Outcome, start time.Time) {
	if c.opts.observer != nil {
		c.opts.observer.ObserveDecode(resp.Method, outcome, len(resp.Body), time.Since(start))
	}
}
