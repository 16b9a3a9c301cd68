package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/stream"
)

func decode(t *testing.T, obs rpc.Observer, status int, body string) error {
	t.Helper()
	ctrl := rpc.NewController(rpc.Result(func(it *stream.Iter) uint64 { return it.ReadUint64() }), rpc.WithObserver(obs))
	_, err := ctrl.Decode(&rpc.RawResponse{Method: "getSlot", StatusCode: status, Body: []byte(body)})
	return err
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	require.NoError(t, decode(t, p, 200, `{"jsonrpc":"2.0","id":1,"result":7}`))
	require.Error(t, decode(t, p, 503, `busy`))
	require.Error(t, decode(t, p, 200, `{"error":{"code":-32005,"message":"unhealthy","data":{"numSlotsBehind":9}}}`))
	require.Error(t, decode(t, p, 200, `{"error":{"code":-32601,"message":"method not found"}}`))
	require.Error(t, decode(t, p, 200, `{"result":"seven"}`))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.decodes.WithLabelValues("getSlot", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.decodes.WithLabelValues("getSlot", "transport")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.decodes.WithLabelValues("getSlot", "rpc_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.decodes.WithLabelValues("getSlot", "decode_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.customErrors.WithLabelValues("-32005")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.customErrors), "unknown codes are not counted")
	assert.Equal(t, 1, testutil.CollectAndCount(p.bodyBytes))
}

func TestNewPrometheusRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)
	p.ObserveCustomError(-32004)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `solrpc_rpc_custom_errors_total{code="-32004"} 1`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassTimeout},
		{"rate limit", &rpc.TransportError{StatusCode: 429, Err: rpc.ErrHTTPStatus}, ClassRateLimit},
		{"server error", &rpc.TransportError{StatusCode: 502, Err: rpc.ErrHTTPStatus}, ClassServerError},
		{"unhealthy", &rpc.Error{Code: -32005, Custom: rpc.NodeUnhealthy{}}, ClassUnhealthy},
		{"rpc error", &rpc.Error{Code: -32004, Custom: rpc.BlockNotAvailable}, ClassRPCError},
		{"decode", &stream.SyntaxError{Msg: "expected number"}, ClassDecodeError},
		{"other", io.ErrUnexpectedEOF, ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 9; i++ {
		c.Add(Sample{Endpoint: "fast", Latency: time.Duration(i+1) * time.Millisecond, Slot: uint64(100 + i)})
	}
	c.Add(Sample{Endpoint: "fast", Err: &rpc.TransportError{StatusCode: 429, Err: rpc.ErrHTTPStatus}})
	c.Add(Sample{Endpoint: "down", Err: context.DeadlineExceeded})
	c.Add(Sample{Endpoint: "down", Latency: time.Second, Slot: 50})
	c.Add(Sample{Endpoint: "down", Err: &rpc.Error{Custom: rpc.NodeUnhealthy{}}})

	got := c.Calculate()
	require.Len(t, got, 2)

	fast := got[0]
	assert.Equal(t, "fast", fast.Name)
	assert.Equal(t, 10, fast.TotalCalls)
	assert.Equal(t, 1, fast.RateLimits)
	assert.InDelta(t, 90.0, fast.SuccessRate, 1e-9)
	assert.Equal(t, StatusUp, fast.Status)
	assert.Equal(t, uint64(108), fast.LatestSlot)
	assert.Equal(t, 9*time.Millisecond, fast.Latency.Max)
	assert.Equal(t, 5*time.Millisecond, fast.LatencyAvg)

	down := got[1]
	assert.Equal(t, StatusDown, down.Status)
	assert.Equal(t, 1, down.Timeouts)
	assert.Equal(t, 1, down.Unhealthy)
}

func TestDetermineStatus(t *testing.T) {
	assert.Equal(t, StatusDown, determineStatus(40, 0))
	assert.Equal(t, StatusDegraded, determineStatus(85, 0))
	assert.Equal(t, StatusSlow, determineStatus(100, time.Second))
	assert.Equal(t, StatusUp, determineStatus(100, 100*time.Millisecond))
}
