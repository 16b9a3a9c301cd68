package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/provider"
	"github.com/dmagro/solrpc/internal/report"
	"github.com/dmagro/solrpc/internal/rpc"
)

func healthCmd(a *app) *cobra.Command {
	var (
		samples   int
		interval  time.Duration
		reportDir string
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Sample every endpoint, rank them and ask each node for its health",
		Long: `Call getSlot on every configured endpoint several times, then rank the
endpoints by success rate, tail latency and slot freshness. Each node's own
getHealth answer is shown alongside; an unhealthy node reports how many slots
it is behind when it knows.

Examples:
  solrpc health
  solrpc health --samples 10 --interval 500ms
  solrpc health --json --report-dir reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			clients, err := a.clients()
			if err != nil {
				return err
			}

			ranked, err := provider.Rank(provider.Sample(ctx, clients, samples, interval))
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			checks := make(map[string]error, len(clients))
			for _, r := range provider.ExecuteAll(ctx, clients, func(ctx context.Context, c *rpc.Client) (struct{}, error) {
				return struct{}{}, c.GetHealth(ctx)
			}) {
				checks[r.Endpoint] = r.Err
			}

			if a.jsonOut {
				return a.writeReport(cmd, reportDir, healthReport(a.report(cmd), samples, ranked, checks))
			}
			f := &display.HealthFormatter{Samples: samples, Ranked: ranked, Checks: checks}
			return f.Format(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 5, "Number of getSlot samples per endpoint")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "Pause between samples")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "With --json, write the report into this directory")
	return cmd
}

type healthView struct {
	Status        string  `json:"status"`
	SuccessRate   float64 `json:"success_rate"`
	P50MS         int64   `json:"p50_ms"`
	P95MS         int64   `json:"p95_ms"`
	P99MS         int64   `json:"p99_ms"`
	MaxMS         int64   `json:"max_ms"`
	LatestSlot    uint64  `json:"latest_slot"`
	SlotDelta     uint64  `json:"slot_delta"`
	Score         float64 `json:"score"`
	Excluded      bool    `json:"excluded,omitempty"`
	ExcludeReason string  `json:"exclude_reason,omitempty"`
	Healthy       bool    `json:"healthy"`
}

func healthReport(r report.Report, samples int, ranked provider.RankedEndpoints, checks map[string]error) report.Report {
	r.Samples = &samples
	for _, h := range ranked {
		checkErr := checks[h.Name]
		r.Results = append(r.Results, report.Entry{
			Endpoint:  h.Name,
			LatencyMS: report.Millis(h.LatencyAvg),
			Error:     report.NewErrorInfo(checkErr),
			Result: healthView{
				Status:        string(h.Status),
				SuccessRate:   h.SuccessRate,
				P50MS:         h.Latency.P50.Milliseconds(),
				P95MS:         h.Latency.P95.Milliseconds(),
				P99MS:         h.Latency.P99.Milliseconds(),
				MaxMS:         h.Latency.Max.Milliseconds(),
				LatestSlot:    h.LatestSlot,
				SlotDelta:     h.SlotDelta,
				Score:         h.Score,
				Excluded:      h.Excluded,
				ExcludeReason: h.ExcludeReason,
				Healthy:       checkErr == nil,
			},
		})
	}
	if best, err := ranked.Best(); err == nil {
		r.Best = &best.Name
	}
	return r
}
