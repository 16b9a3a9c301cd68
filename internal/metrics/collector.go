package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/stats"
	"github.com/dmagro/solrpc/internal/stream"
)

// EndpointStatus represents the health state of an endpoint.
type EndpointStatus string

const (
	StatusUp       EndpointStatus = "UP"
	StatusSlow     EndpointStatus = "SLOW"
	StatusDegraded EndpointStatus = "DEGRADED"
	StatusDown     EndpointStatus = "DOWN"
)

// Sample is the outcome of one call to an endpoint.
type Sample struct {
	Endpoint string
	Latency  time.Duration
	Slot     uint64
	Err      error
}

// EndpointMetrics holds calculated metrics for a single endpoint.
type EndpointMetrics struct {
	Name        string
	Status      EndpointStatus
	LatencyAvg  time.Duration
	Latency     stats.TailLatency
	SuccessRate float64
	TotalCalls  int
	Failures    int

	// Error breakdown
	Timeouts     int
	RateLimits   int
	ServerErrors int
	Unhealthy    int
	RPCErrors    int
	DecodeErrors int
	OtherErrors  int

	LatestSlot uint64
}

// ErrorClass buckets a call error for reporting.
type ErrorClass string

const (
	ClassTimeout     ErrorClass = "timeout"
	ClassRateLimit   ErrorClass = "rate_limit"
	ClassServerError ErrorClass = "server_error"
	ClassUnhealthy   ErrorClass = "unhealthy"
	ClassRPCError    ErrorClass = "rpc_error"
	ClassDecodeError ErrorClass = "decode_error"
	ClassOther       ErrorClass = "other"
)

// Classify buckets err using the rpc error types.
func Classify(err error) ErrorClass {
	var syntaxErr *stream.SyntaxError
	var unhealthy rpc.NodeUnhealthy
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.As(err, &unhealthy):
		return ClassUnhealthy
	case errors.As(err, &syntaxErr):
		return ClassDecodeError
	}
	if _, ok := rpc.AsError(err); ok {
		return ClassRPCError
	}
	switch status := rpc.StatusCode(err); {
	case status == http.StatusTooManyRequests:
		return ClassRateLimit
	case status >= 500:
		return ClassServerError
	}
	return ClassOther
}

// Collector aggregates samples per endpoint. It is not safe for concurrent
// use.
type Collector struct {
	samples map[string][]Sample
	order   []string
}

func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]Sample)}
}

// Add records a sample.
func (c *Collector) Add(s Sample) {
	if _, ok := c.samples[s.Endpoint]; !ok {
		c.order = append(c.order, s.Endpoint)
	}
	c.samples[s.Endpoint] = append(c.samples[s.Endpoint], s)
}

// Calculate computes metrics for every endpoint, in the order endpoints were
// first seen.
func (c *Collector) Calculate() []*EndpointMetrics {
	out := make([]*EndpointMetrics, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, calculateEndpointMetrics(name, c.samples[name]))
	}
	return out
}

func calculateEndpointMetrics(name string, samples []Sample) *EndpointMetrics {
	m := &EndpointMetrics{Name: name}
	if len(samples) == 0 {
		m.Status = StatusDown
		return m
	}

	var latencies []time.Duration
	for _, s := range samples {
		m.TotalCalls++
		if s.Err == nil {
			latencies = append(latencies, s.Latency)
			if s.Slot > m.LatestSlot {
				m.LatestSlot = s.Slot
			}
			continue
		}

		m.Failures++
		switch Classify(s.Err) {
		case ClassTimeout:
			m.Timeouts++
		case ClassRateLimit:
			m.RateLimits++
		case ClassServerError:
			m.ServerErrors++
		case ClassUnhealthy:
			m.Unhealthy++
		case ClassRPCError:
			m.RPCErrors++
		case ClassDecodeError:
			m.DecodeErrors++
		default:
			m.OtherErrors++
		}
	}

	m.SuccessRate = float64(len(latencies)) / float64(m.TotalCalls) * 100
	m.Latency = stats.CalculateTailLatency(latencies)
	m.LatencyAvg = avgDuration(latencies)
	m.Status = determineStatus(m.SuccessRate, m.Latency.P95)
	return m
}

// determineStatus categorizes endpoint health based on metrics.
func determineStatus(successRate float64, p95Latency time.Duration) EndpointStatus {
	const (
		downThreshold     = 50.0
		degradedThreshold = 90.0
		slowLatency       = 500 * time.Millisecond
	)

	if successRate < downThreshold {
		return StatusDown
	}
	if successRate < degradedThreshold {
		return StatusDegraded
	}
	if p95Latency > slowLatency {
		return StatusSlow
	}
	return StatusUp
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}
