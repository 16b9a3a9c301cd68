package rpc

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/solrpc/internal/ixerr"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
	"github.com/dmagro/solrpc/internal/txerr"
)

func readSlot(it *stream.Iter) uint64 { return it.ReadUint64() }

func raw(status int, body string) *RawResponse {
	return &RawResponse{Method: "getSlot", ID: 1, StatusCode: status, Header: http.Header{}, Body: []byte(body)}
}

type recordingObserver struct {
	outcomes []Outcome
	codes    []int64
}

func (r *recordingObserver) ObserveDecode(_ string, o Outcome, _ int, _ time.Duration) {
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingObserver) ObserveCustomError(code int64) { r.codes = append(r.codes, code) }

func TestDecodeResult(t *testing.T) {
	v, err := NewController(Result(readSlot)).Decode(raw(200, `{"jsonrpc":"2.0","result":42,"id":1}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestDecodeContextValue(t *testing.T) {
	ctrl := NewController(Result(func(it *stream.Iter) solana.ContextValue[uint64] {
		return solana.ReadContextValue(it, solana.Plain(readSlot))
	}))
	v, err := ctrl.Decode(raw(200, `{"jsonrpc":"2.0","result":{"context":{"slot":42},"value":123},"id":1}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v.Context.Slot)
	assert.Equal(t, uint64(123), v.Value)
}

func TestDecodeHTTPStatus(t *testing.T) {
	body := `<html>Service Unavailable</html>`
	_, err := NewController(Result(readSlot)).Decode(raw(503, body))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 503, te.StatusCode)
	assert.Equal(t, []byte(body), te.Body)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.True(t, IsTransport(err))
	assert.Equal(t, 503, StatusCode(err))
	assert.Contains(t, err.Error(), body)
}

func TestDecodeStatusRange(t *testing.T) {
	for _, status := range []int{199, 300, 404, 429, 500} {
		_, err := NewController(Result(readSlot)).Decode(raw(status, `{"result":1}`))
		assert.ErrorIs(t, err, ErrHTTPStatus, "status %d", status)
	}
	for _, status := range []int{200, 204, 299} {
		_, err := NewController(Result(readSlot)).Decode(raw(status, `{"result":1}`))
		assert.NoError(t, err, "status %d", status)
	}
}

func TestDecodeEnvelopeShape(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty body", ``, ErrEmptyBody},
		{"array body", `[{"result":1}]`, ErrNotObject},
		{"string body", `"ok"`, ErrNotObject},
		{"no result", `{"jsonrpc":"2.0","id":1}`, ErrMissingResult},
		{"empty object", `{}`, ErrMissingResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewController(Result(readSlot)).Decode(raw(200, tt.body))
			require.ErrorIs(t, err, tt.want)
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.body, string(te.Body))
		})
	}
}

func TestDecodeMalformedEnvelope(t *testing.T) {
	_, err := NewController(Result(readSlot)).Decode(raw(200, `{"jsonrpc":"2.0","id":`))
	var syntaxErr *stream.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
	assert.True(t, IsTransport(err))
}

const preflightBody = `{
	"jsonrpc": "2.0",
	"error": {
		"code": -32002,
		"message": "Transaction simulation failed: Error processing Instruction 2: insufficient funds",
		"data": {
			"accounts": null,
			"err": {"InstructionError": [2, "InsufficientFunds"]},
			"logs": ["Program 11111111111111111111111111111111 invoke [1]"],
			"unitsConsumed": 150
		}
	},
	"id": 9
}`

func TestDecodePreflightFailure(t *testing.T) {
	resp := raw(200, preflightBody)
	resp.Header.Set("Retry-After", "5")

	_, err := NewController(Result(readSlot)).Decode(resp)

	rpcErr, ok := AsError(err)
	require.True(t, ok)
	assert.False(t, IsTransport(err))
	assert.Equal(t, int64(-32002), rpcErr.Code)
	assert.True(t, strings.HasPrefix(rpcErr.Message, "Transaction simulation failed"))
	require.NotNil(t, rpcErr.RetryAfterSeconds)
	assert.Equal(t, int64(5), *rpcErr.RetryAfterSeconds)

	var preflight SendTransactionPreflightFailure
	require.ErrorAs(t, err, &preflight)
	assert.Equal(t, txerr.InstructionError{Index: 2, Err: ixerr.InsufficientFunds}, preflight.Simulation.Err)
	assert.Len(t, preflight.Simulation.Logs, 1)
	require.NotNil(t, preflight.Simulation.UnitsConsumed)
	assert.Equal(t, uint64(150), *preflight.Simulation.UnitsConsumed)
	assert.True(t, errors.Is(err, ixerr.InsufficientFunds))
}

func TestDecodeErrorDataBeforeCode(t *testing.T) {
	body := `{"error":{"data":{"contextSlot":77},"message":"Minimum context slot has not been reached","code":-32016}}`
	_, err := NewController(Result(readSlot)).Decode(raw(200, body))

	var e MinContextSlotNotReached
	require.ErrorAs(t, err, &e)
	assert.Equal(t, uint64(77), e.ContextSlot)
}

func TestDecodeErrorWithoutData(t *testing.T) {
	_, err := NewController(Result(readSlot)).Decode(raw(200, `{"error":{"code":-32001,"message":"Block cleaned up"}}`))
	assert.ErrorIs(t, err, BlockCleanedUp)

	rpcErr, _ := AsError(err)
	assert.Nil(t, rpcErr.Data)
	assert.Nil(t, rpcErr.RetryAfterSeconds)
	assert.Equal(t, "rpc error -32001: Block cleaned up", rpcErr.Error())
}

func TestDecodeResultBeatsError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null error", `{"jsonrpc":"2.0","error":null,"result":42,"id":1}`},
		{"null error after result", `{"jsonrpc":"2.0","result":42,"error":null,"id":1}`},
		{"error before result", `{"error":{"code":-32601,"message":"Method not found"},"result":42}`},
		{"error after result", `{"result":42,"error":{"code":-32601,"message":"Method not found"}}`},
		{"duplicate result", `{"result":42,"result":"ignored"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			v, err := NewController(Result(readSlot), WithObserver(obs)).Decode(raw(200, tt.body))
			require.NoError(t, err)
			assert.Equal(t, uint64(42), v)
			assert.Equal(t, []Outcome{OutcomeOK}, obs.outcomes)
			assert.Empty(t, obs.codes)
		})
	}
}

func TestDecodeNullErrorWithoutResult(t *testing.T) {
	_, err := NewController(Result(readSlot)).Decode(raw(200, `{"jsonrpc":"2.0","error":null,"id":1}`))
	assert.ErrorIs(t, err, ErrMissingResult)
	assert.True(t, IsTransport(err))
}

func TestDecodeNullResult(t *testing.T) {
	obs := &recordingObserver{}
	v, err := NewController(Result(readSlot), WithObserver(obs)).Decode(raw(200, `{"jsonrpc":"2.0","result":null,"id":1}`))
	require.NoError(t, err)
	assert.Zero(t, v)

	tx, err := NewController(Result(solana.ReadTransaction)).Decode(raw(200, `{"result":null}`))
	require.NoError(t, err)
	assert.Zero(t, tx)

	v, ok, err := NewController(Result(readSlot), WithObserver(obs)).DecodeOptional(raw(200, `{"result":null}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)

	tx, ok, err = NewController(Result(solana.ReadTransaction)).DecodeOptional(raw(200, `{"result":null,"id":3}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, tx)

	assert.Equal(t, []Outcome{OutcomeOK, OutcomeOK}, obs.outcomes)
}

func TestDecodeOptionalPresent(t *testing.T) {
	v, ok, err := NewController(Result(readSlot)).DecodeOptional(raw(200, `{"result":0}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestDecodeNullResultWholeDocument(t *testing.T) {
	calls := 0
	ctrl := NewController(func(resp *RawResponse, it *stream.Iter) uint64 {
		calls++
		it.Skip()
		return 7
	}, WholeDocument())

	v, ok, err := ctrl.DecodeOptional(raw(200, `{"result":null}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), v)
	assert.Equal(t, 1, calls)
}

func TestDecodeMalformedSkippedMember(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unbalanced array", `{"junk":[1,2},"result":7}`},
		{"bare minus", `{"x":-,"result":7}`},
		{"both", `{"junk":[1,2},"x":-,"result":7}`},
		{"malformed after result", `{"result":7,"junk":{"a" 1}}`},
		{"trailing garbage in error", `{"error":{"code":-32601,"message":"x",}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewController(Result(readSlot)).Decode(raw(200, tt.body))
			var syntaxErr *stream.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.True(t, IsTransport(err))
		})
	}
}

func TestDecodeErrorWithMalformedData(t *testing.T) {
	body := `{"error":{"code":-32005,"message":"Node is unhealthy","data":{"numSlotsBehind":"many"}}}`
	_, err := NewController(Result(readSlot)).Decode(raw(200, body))

	var unhealthy NodeUnhealthy
	require.ErrorAs(t, err, &unhealthy)
	assert.Nil(t, unhealthy.NumSlotsBehind)
	assert.Equal(t, `{"numSlotsBehind":"many"}`, string(mustError(t, err).Data))
}

func mustError(t *testing.T, err error) *Error {
	t.Helper()
	rpcErr, ok := AsError(err)
	require.True(t, ok, "want *Error, got %v", err)
	return rpcErr
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	header := func(v string) http.Header {
		h := http.Header{}
		h.Set("Retry-After", v)
		return h
	}

	assert.Nil(t, retryAfter(http.Header{}, now))
	assert.Nil(t, retryAfter(header("soon"), now))
	assert.Nil(t, retryAfter(header("-3"), now))
	assert.Equal(t, int64(0), *retryAfter(header("0"), now))
	assert.Equal(t, int64(120), *retryAfter(header(" 120 "), now))
	assert.Equal(t, int64(30), *retryAfter(header(now.Add(30*time.Second).Format(http.TimeFormat)), now))
	assert.Equal(t, int64(0), *retryAfter(header(now.Add(-time.Hour).Format(http.TimeFormat)), now))
}

func TestParseCode(t *testing.T) {
	assert.Equal(t, int64(-32002), parseCode("-32002"))
	assert.Equal(t, int64(math.MaxInt64), parseCode("1e30"))
	assert.Equal(t, int64(math.MinInt64), parseCode("-99999999999999999999"))
	assert.Equal(t, int64(-32000), parseCode("-32000.0"))
}

func TestPredicateRunsOncePerResponse(t *testing.T) {
	calls := 0
	obs := &recordingObserver{}
	ctrl := NewController(Result(readSlot), WithObserver(obs), WithPredicate(func(resp *RawResponse, body []byte) bool {
		calls++
		assert.Equal(t, "getSlot", resp.Method)
		assert.Equal(t, `{"result":5}`, string(body))
		return false
	}))

	v, ok, err := ctrl.DecodeOptional(raw(200, `{"result":5}`))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []Outcome{OutcomeIntercepted}, obs.outcomes)

	v, err = ctrl.Decode(raw(200, `{"result":5}`))
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Equal(t, 2, calls)
}

func TestPredicateSkippedForErrors(t *testing.T) {
	called := false
	ctrl := NewController(Result(readSlot), WithPredicate(func(*RawResponse, []byte) bool {
		called = true
		return true
	}))
	_, err := ctrl.Decode(raw(500, `oops`))
	require.Error(t, err)
	_, err = ctrl.Decode(raw(200, `{"error":{"code":-32004,"message":"x"}}`))
	require.Error(t, err)
	assert.False(t, called)
}

func TestWholeDocument(t *testing.T) {
	ctrl := NewController(func(resp *RawResponse, it *stream.Iter) uint64 {
		var id uint64
		it.ReadObject(func(field string, it *stream.Iter) bool {
			if field == "id" {
				id = it.ReadUint64()
			} else {
				it.Skip()
			}
			return true
		})
		return id
	}, WholeDocument())

	v, err := ctrl.Decode(raw(200, `{"result":1,"id":99}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v)
}

func TestDecodeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	ctrl := NewController(Result(readSlot), WithLogger(zerolog.New(&buf)), WithObserver(obs))

	body := `{"result":"not a number"}`
	_, err := ctrl.Decode(raw(200, body))

	var syntaxErr *stream.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.False(t, IsTransport(err))
	assert.Contains(t, buf.String(), "failed to decode response")
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"method":"getSlot"`)
	assert.Contains(t, buf.String(), `not a number`)
	assert.Equal(t, []Outcome{OutcomeDecodeError}, obs.outcomes)
}

func TestDecoderPanicIsLoggedAndRethrown(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	ctrl := NewController(Result(func(it *stream.Iter) uint64 { panic(boom) }), WithLogger(zerolog.New(&buf)))

	assert.PanicsWithValue(t, boom, func() {
		_, _ = ctrl.Decode(raw(200, `{"result":1}`))
	})
	assert.Contains(t, buf.String(), "response decoder panicked")
	assert.Contains(t, buf.String(), `{\"result\":1}`)
}

func TestObserverOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	ctrl := NewController(Result(readSlot), WithObserver(obs))

	_, _ = ctrl.Decode(raw(200, `{"result":1}`))
	_, _ = ctrl.Decode(raw(502, ``))
	_, _ = ctrl.Decode(raw(200, `{"error":{"code":-32007,"message":"skipped"}}`))
	_, _ = ctrl.Decode(raw(200, `{"error":{"code":-32602,"message":"invalid params"}}`))

	assert.Equal(t, []Outcome{OutcomeOK, OutcomeTransport, OutcomeRPCError, OutcomeRPCError}, obs.outcomes)
	assert.Equal(t, []int64{-32007}, obs.codes)
}

func TestControllerIsReusable(t *testing.T) {
	ctrl := NewController(Result(readSlot))
	for i := uint64(0); i < 3; i++ {
		body := `{"result":` + strings.Repeat("1", int(i+1)) + `}`
		v, err := ctrl.Decode(raw(200, body))
		require.NoError(t, err)
		assert.NotZero(t, v)
	}
}
