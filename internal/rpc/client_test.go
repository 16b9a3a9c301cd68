package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/solrpc/internal/ixerr"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/txerr"
)

type recordedRequest struct {
	Header http.Header
	Body   Request
	Raw    []byte
}

// fakeNode answers every request with the reply registered for its method.
type fakeNode struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	replies  map[string]func(w http.ResponseWriter)
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	n := &fakeNode{t: t, replies: make(map[string]func(w http.ResponseWriter))}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	require.NoError(n.t, err)
	var req Request
	require.NoError(n.t, json.Unmarshal(raw, &req))

	n.mu.Lock()
	n.requests = append(n.requests, recordedRequest{Header: r.Header.Clone(), Body: req, Raw: raw})
	reply, ok := n.replies[req.Method]
	n.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	reply(w)
}

func (n *fakeNode) reply(method string, fn func(w http.ResponseWriter)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies[method] = fn
}

func (n *fakeNode) result(method, result string) {
	n.reply(method, func(w http.ResponseWriter) {
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","result":`+result+`,"id":1}`)
	})
}

func (n *fakeNode) last() recordedRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(n.t, n.requests)
	return n.requests[len(n.requests)-1]
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient("test", url, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8899", "ftp://host", "http://"} {
		_, err := NewClient("x", u)
		assert.ErrorIs(t, err, ErrInvalidEndpoint, "url %q", u)
	}
}

func TestSendEnvelope(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getSlot", "1")
	c := newTestClient(t, srv.URL,
		WithHeaders(map[string]string{"x-api-key": "secret"}),
		WithCommitment(solana.CommitmentFinalized))

	before := uint64(time.Now().UnixMilli())
	_, err := c.GetSlot(context.Background())
	require.NoError(t, err)
	_, err = c.GetSlot(context.Background())
	require.NoError(t, err)

	node.mu.Lock()
	require.Len(t, node.requests, 2)
	first, second := node.requests[0], node.requests[1]
	node.mu.Unlock()
	assert.Equal(t, "2.0", first.Body.JSONRPC)
	assert.Equal(t, "getSlot", first.Body.Method)
	assert.GreaterOrEqual(t, first.Body.ID, before)
	assert.Equal(t, first.Body.ID+1, second.Body.ID)
	assert.Equal(t, "secret", first.Header.Get("x-api-key"))
	assert.Equal(t, "application/json", first.Header.Get("Content-Type"))
	assert.JSONEq(t, `[{"commitment":"finalized"}]`, paramsJSON(t, first))
}

func paramsJSON(t *testing.T, r recordedRequest) string {
	t.Helper()
	var env struct {
		Params json.RawMessage `json:"params"`
	}
	require.NoError(t, json.Unmarshal(r.Raw, &env))
	return string(env.Params)
}

func TestSendReturnsRawResponse(t *testing.T) {
	_, srv := newFakeNode(t)
	c := newTestClient(t, srv.URL)

	resp, err := c.Send(context.Background(), "getNothing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "getNothing", resp.Method)
	assert.Empty(t, resp.Body)
}

func TestCallTransportError(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("getSlot", func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "upstream overloaded")
	})
	c := newTestClient(t, srv.URL)

	_, err := c.GetSlot(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, "upstream overloaded", string(te.Body))
}

func TestCallCancelled(t *testing.T) {
	_, srv := newFakeNode(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetSlot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransport(err))
}

func TestSendTransactionPreflight(t *testing.T) {
	node, srv := newFakeNode(t)
	node.reply("sendTransaction", func(w http.ResponseWriter) {
		w.Header().Set("Retry-After", "5")
		_, _ = io.WriteString(w, preflightBody)
	})
	var logs bytes.Buffer
	c := newTestClient(t, srv.URL, WithClientLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))

	tx := []byte{1, 2, 3, 4}
	_, err := c.SendTransaction(context.Background(), tx)

	rpcErr := mustError(t, err)
	assert.Equal(t, int64(-32002), rpcErr.Code)
	require.NotNil(t, rpcErr.RetryAfterSeconds)
	assert.Equal(t, int64(5), *rpcErr.RetryAfterSeconds)

	var preflight SendTransactionPreflightFailure
	require.ErrorAs(t, err, &preflight)
	assert.Equal(t, txerr.InstructionError{Index: 2, Err: ixerr.InsufficientFunds}, preflight.Simulation.Err)
	assert.Contains(t, logs.String(), `"code":-32002`)

	assert.JSONEq(t, `["`+base64.StdEncoding.EncodeToString(tx)+`",{"encoding":"base64"}]`, paramsJSON(t, node.last()))
}

func TestGetBalance(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getBalance", `{"context":{"slot":42,"apiVersion":"1.18.22"},"value":123}`)
	c := newTestClient(t, srv.URL)

	owner, err := solana.ParsePublicKey("11111111111111111111111111111111")
	require.NoError(t, err)
	got, err := c.GetBalance(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Context.Slot)
	assert.Equal(t, "1.18.22", got.Context.APIVersion)
	assert.Equal(t, uint64(123), got.Value)
	assert.JSONEq(t, `["11111111111111111111111111111111",{}]`, paramsJSON(t, node.last()))
}

func TestGetAccountInfo(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getAccountInfo", `{"context":{"slot":1},"value":{"data":["AQID","base64"],"executable":false,"lamports":5,"owner":"11111111111111111111111111111111","rentEpoch":18446744073709551615,"space":3}}`)
	c := newTestClient(t, srv.URL)

	addr, err := solana.ParsePublicKey("SysvarC1ock11111111111111111111111111111111")
	require.NoError(t, err)
	got, err := GetAccountInfo(context.Background(), c, addr, solana.RawData)
	require.NoError(t, err)
	require.NotNil(t, got.Value)
	assert.Equal(t, addr, got.Value.Address)
	assert.Equal(t, []byte{1, 2, 3}, got.Value.Data)
	assert.Equal(t, uint64(5), got.Value.Lamports)

	node.result("getAccountInfo", `{"context":{"slot":1},"value":null}`)
	got, err = GetAccountInfo(context.Background(), c, addr, solana.RawData)
	require.NoError(t, err)
	assert.Nil(t, got.Value)
}

func TestGetSignatureStatuses(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getSignatureStatuses", `{"context":{"slot":82},"value":[
		{"slot":72,"confirmations":10,"err":null,"status":{"Ok":null},"confirmationStatus":"confirmed","novel":1},
		null
	]}`)
	var logs bytes.Buffer
	c := newTestClient(t, srv.URL, WithClientLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))

	var a, b solana.Signature
	b[0] = 1
	got, err := c.GetSignatureStatuses(context.Background(), []solana.Signature{a, b}, true)
	require.NoError(t, err)
	require.Len(t, got.Value, 2)
	require.NotNil(t, got.Value[0])
	assert.Equal(t, uint64(72), got.Value[0].Slot)
	assert.Nil(t, got.Value[1])
	assert.Contains(t, logs.String(), "novel")
}

func TestInterceptorAppliesToCalls(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getSlot", "7")
	seen := 0
	c := newTestClient(t, srv.URL, WithInterceptor(func(resp *RawResponse, body []byte) bool {
		seen++
		return resp.Method != "getSlot"
	}))

	slot, err := c.GetSlot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, slot)
	assert.Equal(t, 1, seen)
}

func TestClientObserver(t *testing.T) {
	node, srv := newFakeNode(t)
	node.result("getSlot", "7")
	obs := &recordingObserver{}
	c := newTestClient(t, srv.URL, WithClientObserver(obs))

	_, err := c.GetSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeOK}, obs.outcomes)
}

func TestClientPool(t *testing.T) {
	pool := NewClientPool(WithTimeout(time.Second))

	a, err := pool.GetOrCreate("a", "http://127.0.0.1:1")
	require.NoError(t, err)
	again, err := pool.GetOrCreate("a", "http://127.0.0.1:2")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, "http://127.0.0.1:1", again.URL())

	_, err = pool.GetOrCreate("bad", "nope")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
	assert.Nil(t, pool.Get("bad"))
	assert.Equal(t, 1, pool.Len())

	var wg sync.WaitGroup
	clients := make([]*Client, 8)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], _ = pool.GetOrCreate("shared", "http://127.0.0.1:3")
		}(i)
	}
	wg.Wait()
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}

	pool.Clear()
	assert.Nil(t, pool.Get("a"))
}
