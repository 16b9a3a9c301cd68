package display

import (
	"fmt"
	"io"
	"time"

	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/solana"
)

// CompareResult is the terminal-facing result for a single endpoint.
type CompareResult struct {
	Endpoint  string
	Slot      uint64
	Blockhash solana.Hash
	Latency   time.Duration
	Err       error
}

// CompareFormatter formats compare output: one row per endpoint followed by
// the consistency verdict.
type CompareFormatter struct {
	Results []CompareResult
	Report  *metrics.ConsistencyReport
}

func (f *CompareFormatter) Format(w io.Writer) error {
	tbl := newTable(w, "Endpoint", "Latency", "Slot", "Blockhash @ ref")
	ok := 0
	for _, r := range f.Results {
		if r.Err != nil {
			tbl.AddRow(r.Endpoint, "-", "-", Red("ERROR: "+r.Err.Error()))
			continue
		}
		ok++
		hash := Dim("-")
		if !r.Blockhash.IsZero() {
			hash = r.Blockhash.String()
		}
		tbl.AddRow(r.Endpoint, ColorLatency(r.Latency), r.Slot, hash)
	}
	tbl.Print()
	fmt.Fprintln(w)

	if ok == 0 || f.Report == nil {
		fmt.Fprintf(w, "%s No endpoints responded successfully\n", Red("✗"))
		return nil
	}

	fmt.Fprintf(w, "Reference slot %d, drift: %s\n", f.Report.ReferenceSlot, metrics.FormatSlotDrift(f.Report.SlotDrift))
	if f.Report.Consistent {
		fmt.Fprintf(w, "%s All endpoints agree\n", Green("✓"))
		return nil
	}
	for _, issue := range f.Report.Issues {
		fmt.Fprintf(w, "%s %s\n", Yellow("⚠"), issue)
	}
	return nil
}
