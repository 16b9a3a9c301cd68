package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/rpc"
)

// EndpointHealth holds health check results for an endpoint.
type EndpointHealth struct {
	*metrics.EndpointMetrics
	SlotDelta     uint64
	Score         float64
	Excluded      bool
	ExcludeReason string
}

// RankedEndpoints is a list of endpoints sorted by score, best first.
type RankedEndpoints []EndpointHealth

// Sample calls getSlot samples times on every client, interval apart, and
// returns the collected samples.
func Sample(ctx context.Context, clients []*rpc.Client, samples int, interval time.Duration) *metrics.Collector {
	if samples <= 0 {
		samples = 5
	}

	runs := Repeat(ctx, clients, samples, interval, func(ctx context.Context, c *rpc.Client) (uint64, error) {
		return c.GetSlot(ctx)
	})

	collector := metrics.NewCollector()
	for _, rs := range runs {
		for _, r := range rs {
			collector.Add(metrics.Sample{Endpoint: r.Endpoint, Latency: r.Latency, Slot: r.Value, Err: r.Err})
		}
	}
	return collector
}

// Rank scores every endpoint in the collector and sorts them best first.
func Rank(collector *metrics.Collector) (RankedEndpoints, error) {
	all := collector.Calculate()
	if len(all) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	var maxSlot uint64
	for _, m := range all {
		if m.LatestSlot > maxSlot {
			maxSlot = m.LatestSlot
		}
	}

	ranked := make(RankedEndpoints, 0, len(all))
	for _, m := range all {
		h := EndpointHealth{EndpointMetrics: m}
		if m.TotalCalls == m.Failures {
			h.Excluded = true
			h.ExcludeReason = "no successful calls"
			ranked = append(ranked, h)
			continue
		}
		h.SlotDelta = maxSlot - m.LatestSlot

		h.Score = calculateScore(h)
		if m.SuccessRate < 80 {
			h.Excluded = true
			h.ExcludeReason = fmt.Sprintf("success rate %.1f%% below threshold", m.SuccessRate)
		} else if h.SlotDelta > maxSlotDelta {
			h.Excluded = true
			h.ExcludeReason = fmt.Sprintf("%d slots behind", h.SlotDelta)
		}
		ranked = append(ranked, h)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, nil
}

// maxSlotDelta is how far behind the best endpoint a node may be before it
// is excluded (~20s of slots).
const maxSlotDelta = 50

// Best returns the best non-excluded endpoint.
func (r RankedEndpoints) Best() (EndpointHealth, error) {
	for _, e := range r {
		if !e.Excluded {
			return e, nil
		}
	}
	if len(r) > 0 {
		return r[0], fmt.Errorf("all endpoints degraded, using least-bad: %s", r[0].Name)
	}
	return EndpointHealth{}, fmt.Errorf("no endpoints available")
}

func calculateScore(h EndpointHealth) float64 {
	successScore := h.SuccessRate / 100.0

	latencyMs := float64(h.Latency.P95.Milliseconds())
	latencyScore := 1.0 - (latencyMs / 1000.0)
	if latencyScore < 0 {
		latencyScore = 0
	}

	freshnessScore := 1.0 - (float64(h.SlotDelta) / (2 * maxSlotDelta))
	if freshnessScore < 0 {
		freshnessScore = 0
	}

	return (successScore * 0.5) + (latencyScore * 0.3) + (freshnessScore * 0.2)
}
