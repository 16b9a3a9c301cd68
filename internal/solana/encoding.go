package solana

import (
	"encoding/base64"

	"github.com/mr-tron/base58"

	"github.com/dmagro/solrpc/internal/stream"
)

// Encoding names a binary encoding accepted by the API.
type Encoding string

const (
	EncodingBase58     Encoding = "base58"
	EncodingBase64     Encoding = "base64"
	EncodingBase64Zstd Encoding = "base64+zstd"
	EncodingJSONParsed Encoding = "jsonParsed"
	EncodingJSON       Encoding = "json"
)

// ReadEncodedBytes consumes binary data in either of its wire forms: a
// ["data", "encoding"] pair or a bare base58 string. Compressed encodings
// are rejected.
func ReadEncodedBytes(it *stream.Iter) []byte {
	switch it.WhatIsNext() {
	case stream.String:
		return decodeBytes(it, it.ReadStringBytes(), EncodingBase58)
	case stream.Array:
		var data []byte
		enc := EncodingBase64
		n := it.ReadTuple(
			func(it *stream.Iter) { data = it.ReadStringBytes() },
			func(it *stream.Iter) { enc = Encoding(it.ReadString()) },
		)
		if n == 0 && it.Err() == nil {
			it.Failf("encoded data array is empty")
			return nil
		}
		return decodeBytes(it, data, enc)
	default:
		it.Failf("encoded data must be a string or an array, found %s", it.WhatIsNext())
		return nil
	}
}

// readDataOrJSON is ReadEncodedBytes that also accepts the jsonParsed form,
// returning a copy of the object text.
func readDataOrJSON(it *stream.Iter) []byte {
	if it.WhatIsNext() == stream.Object {
		return it.SkipAndReturnBytes()
	}
	return ReadEncodedBytes(it)
}

func decodeBytes(it *stream.Iter, data []byte, enc Encoding) []byte {
	if it.Err() != nil {
		return nil
	}
	if len(data) == 0 && (enc == EncodingBase58 || enc == EncodingBase64) {
		return []byte{}
	}
	var (
		out []byte
		err error
	)
	switch enc {
	case EncodingBase64:
		out = make([]byte, base64.StdEncoding.DecodedLen(len(data)))
		var n int
		n, err = base64.StdEncoding.Decode(out, data)
		out = out[:n]
	case EncodingBase58:
		out, err = base58.Decode(string(data))
	default:
		it.Failf("unsupported data encoding %q", enc)
		return nil
	}
	if err != nil {
		it.Failf("invalid %s data: %v", enc, err)
		return nil
	}
	return out
}
