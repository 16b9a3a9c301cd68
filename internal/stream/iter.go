// Package stream is the cursor record decoders pull JSON values from.
//
// It wraps a jsoniter Iterator over a fully buffered document. Callers read
// exactly the values they need (strings, numbers, nested arrays and objects)
// and skip everything else; no intermediate tree is built.
//
// Errors are sticky: the first malformed token, or the first semantic
// problem a caller reports with Failf, records a *SyntaxError carrying the
// byte offset. The cursor then behaves as if it were at the end of the
// document, so every later read returns a zero value and every loop stops.
// Decoders check Err once when they are done.
package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Kind identifies the type of the next JSON value.
type Kind uint8

const (
	Invalid Kind = iota
	String
	Number
	Null
	Bool
	Array
	Object
)

var kindNames = [...]string{
	Invalid: "invalid",
	String:  "string",
	Number:  "number",
	Null:    "null",
	Bool:    "bool",
	Array:   "array",
	Object:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

var kinds = map[jsoniter.ValueType]Kind{
	jsoniter.StringValue: String,
	jsoniter.NumberValue: Number,
	jsoniter.NilValue:    Null,
	jsoniter.BoolValue:   Bool,
	jsoniter.ArrayValue:  Array,
	jsoniter.ObjectValue: Object,
}

// SyntaxError describes malformed input or a value of an unexpected type.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("stream: offset %d: %s", e.Offset, e.Msg)
}

// Iter is a cursor over one JSON document. It is not safe for concurrent use.
type Iter struct {
	iter *jsoniter.Iterator
	err  error
}

// New returns a cursor positioned at the start of b. The buffer must not be
// modified while the cursor, or any slice it returned, is in use.
func New(b []byte) *Iter {
	return &Iter{iter: jsoniter.ParseBytes(jsoniter.ConfigDefault, b)}
}

// Reset repositions the cursor at the start of b and clears any error.
func (it *Iter) Reset(b []byte) {
	it.iter.ResetBytes(b)
	it.iter.Error = nil
	it.err = nil
}

// Err returns the first error encountered, if any.
func (it *Iter) Err() error { return it.err }

// Failf records a decoding error found by a caller, for example a value that
// is well formed JSON but semantically invalid. The first error wins.
func (it *Iter) Failf(format string, args ...any) {
	if it.err == nil {
		it.stop(fmt.Sprintf(format, args...))
	}
}

// ok folds a parser error into the sticky error and reports whether the
// cursor is still usable. Running into the end of the buffer after a
// complete value is not an error; truncated values are reported by the
// parser itself.
func (it *Iter) ok() bool {
	if it.err != nil {
		return false
	}
	if e := it.iter.Error; e != nil && e != io.EOF {
		msg, _, _ := strings.Cut(e.Error(), ", error found in")
		it.stop(msg)
		return false
	}
	return true
}

func (it *Iter) stop(msg string) {
	it.err = &SyntaxError{Offset: position(it.iter), Msg: msg}
	// An empty buffer and a set error make every further parser call a
	// no-op returning zero values.
	it.iter.ResetBytes(nil)
	it.iter.Error = it.err
}

// position reads the parser offset out of its debug description, which is
// the only place the iterator exposes it.
func position(iter *jsoniter.Iterator) int {
	s := strings.TrimPrefix(iter.CurrentBuffer(), "parsing #")
	n, _, _ := strings.Cut(s, " ")
	off, _ := strconv.Atoi(n)
	return off
}

// WhatIsNext reports the kind of the next value without consuming it.
func (it *Iter) WhatIsNext() Kind {
	if it.err != nil {
		return Invalid
	}
	return kinds[it.iter.WhatIsNext()]
}

// AtEnd reports whether only whitespace remains.
func (it *Iter) AtEnd() bool {
	if it.err != nil {
		return true
	}
	return it.iter.WhatIsNext() == jsoniter.InvalidValue && it.iter.Error == io.EOF
}

// Replay decodes raw, a value captured earlier with SkipAndReturnBytes, with
// fn on a cursor of its own. An error raised while replaying becomes the
// error of it; its offset is relative to raw.
func (it *Iter) Replay(raw []byte, fn func(it *Iter)) {
	if it.err != nil {
		return
	}
	sub := New(raw)
	fn(sub)
	if sub.err != nil {
		it.err = sub.err
		it.iter.ResetBytes(nil)
		it.iter.Error = it.err
	}
}
