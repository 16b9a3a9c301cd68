// Package provider fans RPC calls out across endpoints and ranks endpoints by
// the slot samples it collects. A failing endpoint never stops the others.
package provider

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmagro/solrpc/internal/config"
	"github.com/dmagro/solrpc/internal/rpc"
)

// Result is the outcome of one call on one endpoint.
type Result[T any] struct {
	Endpoint string
	Index    int
	Value    T
	Err      error
	Latency  time.Duration
}

// Clients returns a pooled client per endpoint, configured with the
// endpoint's timeout and headers and the default commitment.
func Clients(cfg *config.Config, endpoints []config.Endpoint, pool *rpc.ClientPool) ([]*rpc.Client, error) {
	clients := make([]*rpc.Client, 0, len(endpoints))
	for _, e := range endpoints {
		c, err := pool.GetOrCreate(e.Name, e.URL,
			rpc.WithTimeout(e.Timeout),
			rpc.WithHeaders(e.Headers),
			rpc.WithCommitment(cfg.Commitment()),
		)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, nil
}

// ExecuteAll calls fn once on every client concurrently. Results are in
// client order, and an endpoint that fails does not cancel the others.
func ExecuteAll[T any](
	ctx context.Context,
	clients []*rpc.Client,
	fn func(ctx context.Context, c *rpc.Client) (T, error),
) []Result[T] {
	results := make([]Result[T], len(clients))
	for i, rs := range Repeat(ctx, clients, 1, 0, fn) {
		results[i] = rs[0]
	}
	return results
}

// Repeat calls fn times times on every client, interval apart. Clients run
// concurrently and the calls to one client run in sequence. Once ctx is done
// the remaining calls are dropped, so a client may have fewer results; the
// first call is always made.
func Repeat[T any](
	ctx context.Context,
	clients []*rpc.Client,
	times int,
	interval time.Duration,
	fn func(ctx context.Context, c *rpc.Client) (T, error),
) [][]Result[T] {
	runs := make([][]Result[T], len(clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			rs := make([]Result[T], 0, max(times, 1))
			for n := 0; n < max(times, 1); n++ {
				if n > 0 && !wait(gctx, interval) {
					break
				}
				start := time.Now()
				val, err := fn(gctx, c)
				rs = append(rs, Result[T]{
					Endpoint: c.Name(),
					Index:    i,
					Value:    val,
					Err:      err,
					Latency:  time.Since(start),
				})
			}
			// Each goroutine owns its slot.
			runs[i] = rs
			return nil
		})
	}

	_ = g.Wait()
	return runs
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
