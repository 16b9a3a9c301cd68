package ixerr

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dmagro/solrpc/internal/stream"
)

func parse(t *testing.T, doc string) Error {
	t.Helper()
	v, err := stream.ParseBytes([]byte(doc), Parse)
	require.NoError(t, err)
	return v
}

func TestKindsAreUnique(t *testing.T) {
	seen := make(map[Kind]bool, len(Kinds))
	for _, k := range Kinds {
		require.False(t, seen[k], "duplicate literal %s", k)
		seen[k] = true
	}
	assert.Len(t, kindsByName, len(Kinds))
}

func TestEveryLiteralDecodesToItsKind(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			got := parse(t, strconv.Quote(string(k)))
			assert.Equal(t, Error(k), got)
		})
	}
}

func TestParseObjectForms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Error
	}{
		{"custom", `{"Custom": 6001}`, Custom{Code: 6001}},
		{"custom max", `{"Custom": 4294967295}`, Custom{Code: 4294967295}},
		{"borsh", `{"BorshIoError": "unexpected eof"}`, BorshIoError{Message: "unexpected eof"}},
		{"unknown key", `{"FutureError": {"a": [1, 2]}}`, Unknown{Name: "FutureError"}},
		{"unknown string", `"NotYetInvented"`, Unknown{Name: "NotYetInvented"}},
		{"case matters", `"insufficientFunds"`, Unknown{Name: "insufficientFunds"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(t, tt.in))
		})
	}
}

func TestParseLeavesCursorAfterValue(t *testing.T) {
	it := stream.New([]byte(`[{"Custom": 1, "extra": true}, "Immutable"]`))
	var got []Error
	n := it.ReadTuple(
		func(it *stream.Iter) { got = append(got, Parse(it)) },
		func(it *stream.Iter) { got = append(got, Parse(it)) },
	)
	require.NoError(t, it.Err())
	assert.Equal(t, 2, n)
	assert.Equal(t, []Error{Custom{Code: 1}, Immutable}, got)
	assert.True(t, it.AtEnd())
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{}`, `12`, `{"Custom": -1}`, `{"Custom": 4294967296}`} {
		t.Run(in, func(t *testing.T) {
			_, err := stream.ParseBytes([]byte(in), Parse)
			assert.Error(t, err)
		})
	}
}

func TestUnknownNamesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9]{0,40}`).Draw(t, "name")
		if _, ok := kindsByName[name]; ok {
			t.Skip("known literal")
		}
		got, err := stream.ParseBytes([]byte(strconv.Quote(name)), Parse)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if got != (Unknown{Name: name}) {
			t.Fatalf("parse %q = %#v", name, got)
		}
	})
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "InsufficientFunds", InsufficientFunds.Error())
	assert.Equal(t, "custom program error: 0x1771", Custom{Code: 6001}.Error())
	assert.Contains(t, Unknown{Name: "X"}.Error(), "X")
}
