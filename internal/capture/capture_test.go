package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/stream"
)

func response(method string, id uint64, body string) *rpc.RawResponse {
	return &rpc.RawResponse{Method: method, ID: id, StatusCode: 200, Body: []byte(body)}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 5, time.UTC)
	assert.Equal(t, "getBlock-20240301T123000.000000005-7.json", FileName(response("getBlock", 7, ""), at))
	assert.Equal(t, "a_b-20240301T123000.000000005-1.json", FileName(response("a/b", 1, ""), at))
	assert.Equal(t, "response-20240301T123000.000000005-1.json", FileName(response("", 1, ""), at))
}

func TestDirWritesBody(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	body := `{"jsonrpc":"2.0","id":3,"result":12}`

	ctrl := rpc.NewController(rpc.Result(func(it *stream.Iter) uint64 { return it.ReadUint64() }),
		rpc.WithPredicate(Dir(dir, zerolog.Nop())))
	v, ok, err := ctrl.DecodeOptional(response("getSlot", 3, body))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(12), v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^getSlot-\d{8}T\d{6}\.\d{9}-3\.json$`, entries[0].Name())

	saved, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, body, string(saved))
}

func TestDirNotCalledForRPCErrors(t *testing.T) {
	dir := t.TempDir()
	ctrl := rpc.NewController(rpc.Result(func(it *stream.Iter) uint64 { return it.ReadUint64() }),
		rpc.WithPredicate(Dir(dir, zerolog.Nop())))
	_, err := ctrl.Decode(response("getSlot", 1, `{"error":{"code":-32004,"message":"gone"}}`))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMethods(t *testing.T) {
	p := Methods("getSlot", "getBlock")
	assert.True(t, p(response("getSlot", 1, ""), nil))
	assert.False(t, p(response("getBalance", 1, ""), nil))
	assert.False(t, Methods()(response("getSlot", 1, ""), nil))
}

func TestOnly(t *testing.T) {
	var calls []string
	record := func(resp *rpc.RawResponse, _ []byte) bool {
		calls = append(calls, resp.Method)
		return false
	}
	p := Only(record, "getBlock")

	assert.True(t, p(response("getSlot", 1, ""), nil))
	assert.False(t, p(response("getBlock", 2, ""), nil))
	assert.Equal(t, []string{"getBlock"}, calls)
}

func TestAllStopsAtFirstRejection(t *testing.T) {
	count := map[string]int{}
	pred := func(name string, result bool) rpc.Predicate {
		return func(*rpc.RawResponse, []byte) bool {
			count[name]++
			return result
		}
	}

	ok := All(pred("a", true), nil, pred("b", false), pred("c", true))(response("getSlot", 1, ""), nil)
	assert.False(t, ok)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, count)
	assert.True(t, All()(response("getSlot", 1, ""), nil))
}
