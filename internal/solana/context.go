package solana

import "github.com/dmagro/solrpc/internal/stream"

// Context is the node state a contextual response was produced at.
type Context struct {
	Slot       uint64
	APIVersion string
}

// ContextValue pairs a result value with the context it was read at.
type ContextValue[T any] struct {
	Context Context
	Value   T
}

func visitContext(field string, c *Context, it *stream.Iter) bool {
	switch field {
	case "slot":
		c.Slot = it.ReadUint64()
	case "apiVersion":
		c.APIVersion = it.ReadString()
	default:
		it.Skip()
	}
	return true
}

// ReadContext consumes a {"slot", "apiVersion"} object.
func ReadContext(it *stream.Iter) Context {
	var c Context
	stream.VisitObject(it, &c, visitContext)
	return c
}

// ContextualReader decodes the "value" of a contextual response. It is given
// the context decoded from the same object.
type ContextualReader[T any] func(it *stream.Iter, ctx Context) T

// ReadContextValue consumes {"context": ..., "value": ...}. The value reader
// always sees the decoded context: when "value" precedes "context" in the
// document its text is kept and replayed once the context is known.
func ReadContextValue[T any](it *stream.Iter, read ContextualReader[T]) ContextValue[T] {
	var (
		out       ContextValue[T]
		haveCtx   bool
		haveValue bool
		deferred  []byte
	)
	it.ReadObject(func(field string, it *stream.Iter) bool {
		switch field {
		case "context":
			out.Context = ReadContext(it)
			haveCtx = true
		case "value":
			haveValue = true
			if haveCtx {
				out.Value = read(it, out.Context)
				return true
			}
			deferred = it.SkipAndReturnBytes()
		default:
			it.Skip()
		}
		return true
	})
	if deferred != nil {
		it.Replay(deferred, func(it *stream.Iter) {
			out.Value = read(it, out.Context)
		})
	}
	if !haveValue && it.Err() == nil {
		it.Failf("contextual response has no value")
	}
	return out
}

// Plain adapts a context-free reader for ReadContextValue.
func Plain[T any](fn func(it *stream.Iter) T) ContextualReader[T] {
	return func(it *stream.Iter, _ Context) T { return fn(it) }
}
