package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/solrpc/internal/config"
	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/rpc"
)

// slotServer answers every request with slot, or with a 503 when slot is 0.
func slotServer(t *testing.T, slot string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot == "0" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","result":`+slot+`,"id":1}`)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testClients(t *testing.T, urls ...string) []*rpc.Client {
	t.Helper()
	cfg := &config.Config{Defaults: config.Defaults{Timeout: time.Second, Commitment: "confirmed"}}
	endpoints := make([]config.Endpoint, len(urls))
	for i, u := range urls {
		endpoints[i] = config.Endpoint{Name: string(rune('a' + i)), URL: u, Timeout: time.Second}
	}
	clients, err := Clients(cfg, endpoints, rpc.NewClientPool())
	require.NoError(t, err)
	return clients
}

func TestClientsRejectsBadEndpoint(t *testing.T) {
	cfg := &config.Config{}
	_, err := Clients(cfg, []config.Endpoint{{Name: "x", URL: "nope"}}, rpc.NewClientPool())
	assert.ErrorIs(t, err, rpc.ErrInvalidEndpoint)
}

func TestExecuteAllKeepsOrderAndErrors(t *testing.T) {
	clients := testClients(t, slotServer(t, "100"), slotServer(t, "0"), slotServer(t, "102"))

	results := ExecuteAll(context.Background(), clients, func(ctx context.Context, c *rpc.Client) (uint64, error) {
		return c.GetSlot(ctx)
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, clients[i].Name(), r.Endpoint)
	}
	assert.Equal(t, uint64(100), results[0].Value)
	assert.True(t, rpc.IsTransport(results[1].Err))
	assert.Equal(t, uint64(102), results[2].Value)
}

func TestExecuteAllDoesNotFailFast(t *testing.T) {
	clients := testClients(t, slotServer(t, "1"), slotServer(t, "2"), slotServer(t, "3"))
	var calls atomic.Int32
	boom := errors.New("boom")

	results := ExecuteAll(context.Background(), clients, func(ctx context.Context, c *rpc.Client) (int, error) {
		calls.Add(1)
		if c.Name() == "a" {
			return 0, boom
		}
		return 1, nil
	})
	assert.Equal(t, int32(3), calls.Load())
	assert.ErrorIs(t, results[0].Err, boom)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestExecuteAllRecordsLatency(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","result":7,"id":1}`)
	}))
	t.Cleanup(slow.Close)
	clients := testClients(t, slow.URL)

	results := ExecuteAll(context.Background(), clients, func(ctx context.Context, c *rpc.Client) (uint64, error) {
		return c.GetSlot(ctx)
	})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, uint64(7), results[0].Value)
	assert.GreaterOrEqual(t, results[0].Latency, 30*time.Millisecond)
}

func TestRepeat(t *testing.T) {
	clients := testClients(t, slotServer(t, "5"), slotServer(t, "0"))

	var calls atomic.Int32
	runs := Repeat(context.Background(), clients, 3, time.Millisecond, func(ctx context.Context, c *rpc.Client) (uint64, error) {
		calls.Add(1)
		return c.GetSlot(ctx)
	})
	require.Len(t, runs, 2)
	assert.Equal(t, int32(6), calls.Load())
	for i, rs := range runs {
		require.Len(t, rs, 3)
		for _, r := range rs {
			assert.Equal(t, i, r.Index)
			assert.Equal(t, clients[i].Name(), r.Endpoint)
		}
	}
	assert.Equal(t, uint64(5), runs[0][2].Value)
	assert.True(t, rpc.IsTransport(runs[1][0].Err))
}

func TestRepeatStopsWhenCancelled(t *testing.T) {
	clients := testClients(t, slotServer(t, "5"))
	ctx, cancel := context.WithCancel(context.Background())

	runs := Repeat(ctx, clients, 10, time.Hour, func(ctx context.Context, c *rpc.Client) (int, error) {
		cancel()
		return 1, nil
	})
	require.Len(t, runs, 1)
	assert.Len(t, runs[0], 1)
}

func TestSampleAndRank(t *testing.T) {
	clients := testClients(t, slotServer(t, "1000"), slotServer(t, "0"), slotServer(t, "900"))

	collector := Sample(context.Background(), clients, 3, time.Millisecond)
	ranked, err := Rank(collector)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "a", ranked[0].Name)
	assert.False(t, ranked[0].Excluded)
	assert.Equal(t, metrics.StatusUp, ranked[0].Status)

	byName := map[string]EndpointHealth{}
	for _, h := range ranked {
		byName[h.Name] = h
	}
	assert.True(t, byName["b"].Excluded)
	assert.Equal(t, "no successful calls", byName["b"].ExcludeReason)
	assert.Equal(t, 3, byName["b"].ServerErrors)
	assert.True(t, byName["c"].Excluded)
	assert.Equal(t, uint64(100), byName["c"].SlotDelta)

	best, err := ranked.Best()
	require.NoError(t, err)
	assert.Equal(t, "a", best.Name)
}

func TestBestWithoutHealthyEndpoints(t *testing.T) {
	_, err := RankedEndpoints{}.Best()
	assert.Error(t, err)

	ranked := RankedEndpoints{{EndpointMetrics: &metrics.EndpointMetrics{Name: "x"}, Excluded: true}}
	got, err := ranked.Best()
	assert.Error(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestRankEmpty(t *testing.T) {
	_, err := Rank(metrics.NewCollector())
	assert.Error(t, err)
}
