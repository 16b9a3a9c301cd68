package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmagro/solrpc/internal/rpc"
)

// Prometheus records controller outcomes. It implements rpc.Observer.
type Prometheus struct {
	decodes      *prometheus.CounterVec
	customErrors *prometheus.CounterVec
	bodyBytes    prometheus.Histogram
	decodeTime   *prometheus.HistogramVec
}

var _ rpc.Observer = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		decodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solrpc",
				Name:      "decode_total",
				Help:      "Responses handled by a controller, by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		customErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "solrpc",
				Name:      "rpc_custom_errors_total",
				Help:      "Solana specific JSON-RPC errors, by code",
			},
			[]string{"code"},
		),
		bodyBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "solrpc",
				Name:      "response_bytes",
				Help:      "Size of response bodies",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
			},
		),
		decodeTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "solrpc",
				Name:      "decode_seconds",
				Help:      "Time spent decoding a response body",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{p.decodes, p.customErrors, p.bodyBytes, p.decodeTime} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveDecode(method string, outcome rpc.Outcome, bodySize int, elapsed time.Duration) {
	p.decodes.WithLabelValues(method, string(outcome)).Inc()
	p.bodyBytes.Observe(float64(bodySize))
	p.decodeTime.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (p *Prometheus) ObserveCustomError(code int64) {
	p.customErrors.WithLabelValues(strconv.FormatInt(code, 10)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
