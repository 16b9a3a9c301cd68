package stream

import (
	"bytes"
	"io"
	"math/big"

	jsoniter "github.com/json-iterator/go"
)

// ReadNull consumes a null literal and reports true, or leaves the cursor
// untouched and reports false when the next value is not null.
func (it *Iter) ReadNull() bool {
	if it.err != nil {
		return false
	}
	null := it.iter.ReadNil()
	return it.ok() && null
}

// ReadBool consumes a boolean.
func (it *Iter) ReadBool() bool {
	if it.err != nil {
		return false
	}
	v := it.iter.ReadBool()
	return it.ok() && v
}

// ReadString consumes a string. A null value yields the empty string.
func (it *Iter) ReadString() string {
	if it.err != nil {
		return ""
	}
	s := it.iter.ReadString()
	if !it.ok() {
		return ""
	}
	return s
}

// ReadStringBytes consumes a string and returns its decoded bytes in a
// buffer of their own. A null value yields nil.
func (it *Iter) ReadStringBytes() []byte {
	if it.ReadNull() || it.err != nil {
		return nil
	}
	if k := it.WhatIsNext(); k != String {
		it.Failf("expected string, found %s", k)
		return nil
	}
	quoted := it.SkipAndReturnBytes()
	if len(quoted) < 2 {
		return nil
	}
	if bytes.IndexByte(quoted, '\\') < 0 {
		return quoted[1 : len(quoted)-1]
	}
	esc := jsoniter.ParseBytes(jsoniter.ConfigDefault, quoted)
	s := esc.ReadString()
	if esc.Error != nil && esc.Error != io.EOF {
		it.Failf("invalid string %s", quoted)
		return nil
	}
	return []byte(s)
}

// ReadNumber consumes a number and returns its literal text.
func (it *Iter) ReadNumber() string {
	if k := it.WhatIsNext(); k != Number {
		if it.err == nil {
			it.Failf("expected number, found %s", k)
		}
		return ""
	}
	n := it.iter.ReadNumber()
	if !it.ok() {
		return ""
	}
	return string(n)
}

// ReadUint64 consumes a non-negative integer.
func (it *Iter) ReadUint64() uint64 {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadUint64()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadInt64 consumes a signed integer.
func (it *Iter) ReadInt64() int64 {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadInt64()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadInt consumes a signed integer that fits the platform int.
func (it *Iter) ReadInt() int {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadInt()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadUint32 consumes an unsigned integer that fits in 32 bits.
func (it *Iter) ReadUint32() uint32 {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadUint32()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadUint8 consumes an unsigned integer that fits in 8 bits.
func (it *Iter) ReadUint8() uint8 {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadUint8()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadFloat64 consumes any JSON number as a float.
func (it *Iter) ReadFloat64() float64 {
	if it.err != nil {
		return 0
	}
	v := it.iter.ReadFloat64()
	if !it.ok() {
		return 0
	}
	return v
}

// ReadBigInt consumes an integer of arbitrary size.
func (it *Iter) ReadBigInt() *big.Int {
	if k := it.WhatIsNext(); k != Number {
		if it.err == nil {
			it.Failf("expected number, found %s", k)
		}
		return nil
	}
	v := it.iter.ReadBigInt()
	if !it.ok() {
		return nil
	}
	return v
}
