package txerr

import (
	"github.com/dmagro/solrpc/internal/ixerr"
	"github.com/dmagro/solrpc/internal/stream"
)

// Parse decodes a transaction error. Bare strings map to Kind values,
// single-key objects to the payload variants. Names this client does not
// know decode to Unknown after their value is skipped.
func Parse(it *stream.Iter) Error {
	switch it.WhatIsNext() {
	case stream.String:
		name := it.ReadStringBytes()
		if k, ok := Lookup(name); ok {
			return k
		}
		return Unknown{Name: string(name)}
	case stream.Object:
		var out Error
		it.ReadObject(func(field string, it *stream.Iter) bool {
			switch field {
			case "InstructionError":
				out = parseInstructionError(it)
			case "DuplicateInstruction":
				out = DuplicateInstruction{Index: it.ReadUint8()}
			case "InsufficientFundsForRent":
				out = InsufficientFundsForRent{AccountIndex: readAccountIndex(it)}
			case "ProgramExecutionTemporarilyRestricted":
				out = ProgramExecutionTemporarilyRestricted{AccountIndex: readAccountIndex(it)}
			default:
				out = Unknown{Name: field}
				it.Skip()
			}
			return false
		})
		if out == nil {
			it.Failf("empty transaction error object")
		}
		return out
	default:
		it.Failf("transaction error must be a string or an object, found %s", it.WhatIsNext())
		return nil
	}
}

// ParseOptional decodes a nullable error field. Null yields nil.
func ParseOptional(it *stream.Iter) Error {
	if it.ReadNull() {
		return nil
	}
	return Parse(it)
}

// parseInstructionError reads the [index, instructionError] pair.
func parseInstructionError(it *stream.Iter) Error {
	var e InstructionError
	n := it.ReadTuple(
		func(it *stream.Iter) { e.Index = it.ReadUint8() },
		func(it *stream.Iter) { e.Err = ixerr.Parse(it) },
	)
	if n < 2 {
		it.Failf("InstructionError needs an index and an error")
		return nil
	}
	return e
}

// readAccountIndex reads {"account_index": n}, skipping any other field.
func readAccountIndex(it *stream.Iter) uint8 {
	var idx uint8
	it.ReadObject(func(field string, it *stream.Iter) bool {
		if field == "account_index" {
			idx = it.ReadUint8()
		} else {
			it.Skip()
		}
		return true
	})
	return idx
}
