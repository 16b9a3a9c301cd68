// Package capture provides interception predicates for rpc controllers:
// writing response bodies to disk and restricting decoding to some methods.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/solrpc/internal/rpc"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FileName returns the name Dir gives the capture of resp.
func FileName(resp *rpc.RawResponse, at time.Time) string {
	method := unsafeName.ReplaceAllString(resp.Method, "_")
	if method == "" {
		method = "response"
	}
	return fmt.Sprintf("%s-%s-%d.json", method, at.UTC().Format("20060102T150405.000000000"), resp.ID)
}

// Dir writes every response body to dir and lets decoding continue. Write
// failures are logged and do not block decoding.
func Dir(dir string, log zerolog.Logger) rpc.Predicate {
	return func(resp *rpc.RawResponse, body []byte) bool {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cannot create capture directory")
			return true
		}
		path := filepath.Join(dir, FileName(resp, time.Now()))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cannot write capture")
			return true
		}
		log.Debug().Str("method", resp.Method).Str("path", path).Msg("captured response")
		return true
	}
}

// Methods allows decoding only for the named methods.
func Methods(names ...string) rpc.Predicate {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return func(resp *rpc.RawResponse, _ []byte) bool {
		_, ok := allowed[resp.Method]
		return ok
	}
}

// Only applies p to the named methods and lets every other response through.
func Only(p rpc.Predicate, names ...string) rpc.Predicate {
	match := Methods(names...)
	return func(resp *rpc.RawResponse, body []byte) bool {
		if !match(resp, body) {
			return true
		}
		return p(resp, body)
	}
}

// All combines predicates in order and stops at the first one returning
// false. Each predicate runs at most once per response.
func All(preds ...rpc.Predicate) rpc.Predicate {
	return func(resp *rpc.RawResponse, body []byte) bool {
		for _, p := range preds {
			if p != nil && !p(resp, body) {
				return false
			}
		}
		return true
	}
}
