package stream

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// ReadArray calls fn once per element with the cursor at the element. fn must
// consume the element; returning false stops the walk and skips the rest. A
// null value is treated as an empty array.
func (it *Iter) ReadArray(fn func(it *Iter) bool) {
	if it.ReadNull() || it.err != nil {
		return
	}
	stopped := false
	it.iter.ReadArrayCB(func(*jsoniter.Iterator) bool {
		if stopped {
			it.iter.Skip()
		} else if !fn(it) {
			stopped = true
		}
		return it.ok()
	})
	it.ok()
}

// ReadTuple consumes a positional array, calling fns[i] for element i.
// Elements beyond len(fns) are skipped and missing trailing elements leave
// their fns uncalled. It returns the number of elements present.
func (it *Iter) ReadTuple(fns ...func(it *Iter)) int {
	n := 0
	it.ReadArray(func(it *Iter) bool {
		if n < len(fns) {
			fns[n](it)
		} else {
			it.Skip()
		}
		n++
		return true
	})
	return n
}

// ReadObject calls fn once per field with the cursor at the field value. fn
// must consume the value; returning false stops the walk and skips the rest of
// the object. It reports whether an object was present: null yields false.
func (it *Iter) ReadObject(fn func(field string, it *Iter) bool) bool {
	if it.ReadNull() || it.err != nil {
		return false
	}
	stopped := false
	it.iter.ReadObjectCB(func(_ *jsoniter.Iterator, field string) bool {
		if !it.ok() {
			return false
		}
		if stopped {
			it.iter.Skip()
		} else if !fn(field, it) {
			stopped = true
		}
		return it.ok()
	})
	return it.ok()
}

// Skip discards the next value whatever its kind.
func (it *Iter) Skip() {
	if it.err != nil {
		return
	}
	it.iter.Skip()
	it.ok()
}

// SkipAndReturnBytes discards the next value and returns a copy of its raw
// text without surrounding whitespace.
func (it *Iter) SkipAndReturnBytes() []byte {
	if it.err != nil {
		return nil
	}
	b := it.iter.SkipAndReturnBytes()
	if !it.ok() {
		return nil
	}
	return bytes.TrimLeft(b, " \t\n\r")
}
