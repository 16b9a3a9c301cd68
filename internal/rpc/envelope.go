package rpc

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmagro/solrpc/internal/stream"
)

// RawResponse is an HTTP reply whose body has been fully read.
type RawResponse struct {
	Method     string
	ID         uint64
	StatusCode int
	Header     http.Header
	Body       []byte
}

// checkEnvelope validates the HTTP status and the JSON-RPC envelope. When
// the object has a "result" member, result is called with the cursor at its
// value and must consume it. "result" wins over "error" whatever their order,
// and a null "error" counts as absent. An "error" member is decoded into an
// *Error only when there is no result; every other failure is a
// *TransportError carrying the status and body verbatim.
func checkEnvelope(resp *RawResponse, it *stream.Iter, result func(it *stream.Iter)) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transportError(resp, fmt.Errorf("%w %d", ErrHTTPStatus, resp.StatusCode))
	}
	if it.WhatIsNext() != stream.Object {
		if len(resp.Body) == 0 {
			return transportError(resp, ErrEmptyBody)
		}
		return transportError(resp, ErrNotObject)
	}
	var (
		found  bool
		rawErr []byte
	)
	it.ReadObject(func(field string, it *stream.Iter) bool {
		switch field {
		case "result":
			if found {
				it.Skip()
				break
			}
			found = true
			result(it)
		case "error":
			if !it.ReadNull() {
				rawErr = it.SkipAndReturnBytes()
			}
		default:
			it.Skip()
		}
		return true
	})
	if err := it.Err(); err != nil {
		return transportError(resp, err)
	}
	if found {
		return nil
	}
	if rawErr == nil {
		return transportError(resp, ErrMissingResult)
	}
	errIt := stream.New(rawErr)
	rpcErr := readError(errIt, resp.Header, time.Now())
	if err := errIt.Err(); err != nil {
		return transportError(resp, err)
	}
	return rpcErr
}

func transportError(resp *RawResponse, err error) *TransportError {
	return &TransportError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
}

// readError decodes the {"code", "message", "data"} error object. The data
// member is captured as raw text while walking and decoded once the code is
// known, whatever the member order.
func readError(it *stream.Iter, header http.Header, now time.Time) *Error {
	var (
		e       Error
		rawData []byte
	)
	it.ReadObject(func(field string, it *stream.Iter) bool {
		switch field {
		case "code":
			e.Code = parseCode(it.ReadNumber())
		case "message":
			e.Message = it.ReadString()
		case "data":
			if it.ReadNull() {
				return true
			}
			rawData = it.SkipAndReturnBytes()
		default:
			it.Skip()
		}
		return true
	})
	if rawData != nil {
		e.Data = rawData
		// A malformed payload leaves the variant partially filled; the
		// error itself is still reported.
		e.Custom = ParseCustomError(e.Code, stream.New(e.Data))
	} else {
		e.Custom = ParseCustomError(e.Code, nil)
	}
	e.RetryAfterSeconds = retryAfter(header, now)
	return &e
}

// parseCode reads an error code, saturating values outside the int64 range
// so that decoding never fails on an odd code.
func parseCode(n string) int64 {
	if v, err := strconv.ParseInt(n, 10, 64); err == nil {
		return v
	}
	f, _ := strconv.ParseFloat(n, 64)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// retryAfter reads the Retry-After header, given either in seconds or as an
// HTTP date.
func retryAfter(header http.Header, now time.Time) *int64 {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
		return &n
	}
	if t, err := http.ParseTime(v); err == nil {
		secs := int64(math.Ceil(t.Sub(now).Seconds()))
		if secs < 0 {
			secs = 0
		}
		return &secs
	}
	return nil
}
