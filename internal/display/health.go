package display

import (
	"fmt"
	"io"

	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/provider"
)

// HealthFormatter formats the health command output: performance, error
// breakdown and the selected endpoint.
type HealthFormatter struct {
	Samples int
	Ranked  provider.RankedEndpoints
	// Checks holds each endpoint's getHealth answer, nil meaning healthy.
	Checks map[string]error
}

func (f *HealthFormatter) Format(w io.Writer) error {
	fmt.Fprintf(w, "%s (%d samples per endpoint)\n", Bold("Endpoint Performance"), f.Samples)

	tbl := newTable(w, "Endpoint", "Status", "p50", "p95", "p99", "Max", "Success", "Slot", "Lag")
	for _, h := range f.Ranked {
		tbl.AddRow(
			h.Name,
			ColorStatus(h.Status),
			ColorLatency(h.Latency.P50),
			ColorLatency(h.Latency.P95),
			ColorLatency(h.Latency.P99),
			ColorLatency(h.Latency.Max),
			ColorSuccessRate(h.SuccessRate),
			h.LatestSlot,
			ColorSlotLag(h.SlotDelta),
		)
	}
	tbl.Print()
	fmt.Fprintln(w)

	hasErrors := false
	for _, h := range f.Ranked {
		if h.Failures > 0 {
			hasErrors = true
			break
		}
	}
	if hasErrors {
		fmt.Fprintln(w, Bold("Error Breakdown"))
		tbl := newTable(w, "Endpoint", "Timeout", "429", "5xx", "Unhealthy", "RPC", "Decode", "Other")
		for _, h := range f.Ranked {
			if h.Failures == 0 {
				continue
			}
			tbl.AddRow(h.Name, h.Timeouts, h.RateLimits, h.ServerErrors, h.Unhealthy, h.RPCErrors, h.DecodeErrors, h.OtherErrors)
		}
		tbl.Print()
		fmt.Fprintln(w)
	}

	if len(f.Checks) > 0 {
		fmt.Fprintln(w, Bold("Node Health"))
		for _, h := range f.Ranked {
			err, ok := f.Checks[h.Name]
			switch {
			case !ok:
			case err == nil:
				fmt.Fprintf(w, "  %s %s\n", Green("✓"), h.Name)
			default:
				fmt.Fprintf(w, "  %s %s: %v\n", Red("✗"), h.Name, err)
			}
		}
		fmt.Fprintln(w)
	}

	for _, h := range f.Ranked {
		if h.Excluded {
			fmt.Fprintf(w, "%s %s excluded: %s\n", Yellow("⚠"), h.Name, h.ExcludeReason)
		}
	}
	best, err := f.Ranked.Best()
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", Red("✗"), err)
		return nil
	}
	fmt.Fprintf(w, "%s Best endpoint: %s\n", Green("✓"), Bold(best.Name))
	return nil
}

// ColorStatus colors an endpoint status.
func ColorStatus(s metrics.EndpointStatus) string {
	switch s {
	case metrics.StatusUp:
		return Green(string(s))
	case metrics.StatusSlow, metrics.StatusDegraded:
		return Yellow(string(s))
	default:
		return Red(string(s))
	}
}
