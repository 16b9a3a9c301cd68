package ixerr

import "github.com/dmagro/solrpc/internal/stream"

// Parse decodes an instruction error from either of its wire forms: a bare
// string for payload-free variants, or a single-key object for variants that
// carry a payload. It never fails on an unrecognized variant; only malformed
// JSON is reported, through the cursor error.
func Parse(it *stream.Iter) Error {
	switch it.WhatIsNext() {
	case stream.String:
		return fromName(it.ReadStringBytes())
	case stream.Object:
		var out Error
		it.ReadObject(func(field string, it *stream.Iter) bool {
			switch field {
			case "Custom":
				out = Custom{Code: it.ReadUint32()}
			case "BorshIoError":
				out = BorshIoError{Message: it.ReadString()}
			default:
				out = Unknown{Name: field}
				it.Skip()
			}
			return false
		})
		if out == nil {
			it.Failf("empty instruction error object")
		}
		return out
	default:
		it.Failf("instruction error must be a string or an object, found %s", it.WhatIsNext())
		return nil
	}
}

func fromName(name []byte) Error {
	if k, ok := Lookup(name); ok {
		return k
	}
	return Unknown{Name: string(name)}
}
