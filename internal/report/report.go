// Package report provides the JSON report model shared across commands and
// functions for writing it to stdout or to timestamped files.
//
// Commands populate only the fields they output; unused fields are omitted.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
)

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Millis returns d as a *MillisDuration for optional report fields.
func Millis(d time.Duration) *MillisDuration {
	m := MillisDuration(d)
	return &m
}

// Entry is one endpoint's row in a report.
type Entry struct {
	Endpoint  string          `json:"endpoint"`
	LatencyMS *MillisDuration `json:"latency_ms,omitempty"`
	Error     *ErrorInfo      `json:"error,omitempty"`
	Result    any             `json:"result,omitempty"`
}

// Report is the JSON-serializable output of a command.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Results   []Entry   `json:"results"`

	// compare
	ReferenceSlot *uint64             `json:"reference_slot,omitempty"`
	SlotDrift     *uint64             `json:"slot_drift,omitempty"`
	HashGroups    map[string][]string `json:"hash_groups,omitempty"`
	Consistent    *bool               `json:"consistent,omitempty"`
	Issues        []string            `json:"issues,omitempty"`

	// health
	Samples *int    `json:"samples,omitempty"`
	Best    *string `json:"best,omitempty"`
}

// ErrorInfo is the JSON form of a call error.
type ErrorInfo struct {
	Kind              string `json:"kind"` // transport, rpc, decode or other
	Message           string `json:"message"`
	StatusCode        int    `json:"status_code,omitempty"`
	Code              *int64 `json:"code,omitempty"`
	Custom            string `json:"custom,omitempty"`
	RetryAfterSeconds *int64 `json:"retry_after_seconds,omitempty"`
	Data              any    `json:"data,omitempty"`
}

// NewErrorInfo classifies err. It returns nil for a nil error.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Kind: "other", Message: err.Error()}

	var (
		te        *rpc.TransportError
		syntaxErr *stream.SyntaxError
	)
	if rpcErr, ok := rpc.AsError(err); ok {
		info.Kind = "rpc"
		info.Message = rpcErr.Message
		info.Code = &rpcErr.Code
		info.RetryAfterSeconds = rpcErr.RetryAfterSeconds
		if rpcErr.Custom != nil {
			info.Custom = rpcErr.Custom.Error()
		}
		if len(rpcErr.Data) > 0 {
			info.Data = json.RawMessage(rpcErr.Data)
		}
		return info
	}
	switch {
	case errors.As(err, &te):
		info.Kind = "transport"
		info.StatusCode = te.StatusCode
	case errors.As(err, &syntaxErr):
		info.Kind = "decode"
	}
	return info
}

// Key formats a public key for reports.
func Key(pk solana.PublicKey) string { return pk.ToBase58() }

// Keys formats public keys for reports.
func Keys(pks []solana.PublicKey) []string {
	out := make([]string, len(pks))
	for i, pk := range pks {
		out[i] = pk.ToBase58()
	}
	return out
}

// Write encodes data as indented JSON to w.
func Write(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteFile writes data into a timestamped file {prefix}-{YYYYMMDD-HHMMSS}.json
// under dir and returns its path.
func WriteFile(dir, prefix string, data any) (string, error) {
	if prefix == "" {
		prefix = "report"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, ts))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	if err := Write(file, data); err != nil {
		return "", err
	}
	return path, nil
}
