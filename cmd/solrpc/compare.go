package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/provider"
	"github.com/dmagro/solrpc/internal/report"
	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
)

func compareCmd(a *app) *cobra.Command {
	var reportDir string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare slots and blockhashes across endpoints",
		Long: `Ask every endpoint for its current slot, then fetch the block at the lowest
reported slot from each of them and compare the blockhashes. Endpoints that
disagree are on a different fork or serving stale data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			clients, err := a.clients()
			if err != nil {
				return err
			}

			readings := provider.ExecuteAll(ctx, clients, func(ctx context.Context, c *rpc.Client) (uint64, error) {
				return c.GetSlot(ctx)
			})

			slots := make(map[string]uint64)
			var (
				live  []*rpc.Client
				ref   uint64
				first = true
			)
			for _, r := range readings {
				if r.Err != nil {
					continue
				}
				slots[r.Endpoint] = r.Value
				live = append(live, clients[r.Index])
				if first || r.Value < ref {
					ref = r.Value
					first = false
				}
			}

			hashes := make(map[string]solana.Hash)
			var consistency *metrics.ConsistencyReport
			if len(live) > 0 {
				for _, b := range provider.ExecuteAll(ctx, live, func(ctx context.Context, c *rpc.Client) (*solana.Block, error) {
					return c.GetBlock(ctx, ref)
				}) {
					switch {
					case b.Err != nil:
						a.log.Debug().Err(b.Err).Str("endpoint", b.Endpoint).Uint64("slot", ref).Msg("getBlock failed")
					case b.Value != nil:
						hashes[b.Endpoint] = b.Value.Blockhash
					}
				}
				consistency = metrics.NewConsistencyChecker().Check(slots, hashes, ref)
			}

			results := make([]display.CompareResult, len(readings))
			for i, r := range readings {
				results[i] = display.CompareResult{
					Endpoint:  r.Endpoint,
					Slot:      r.Value,
					Blockhash: hashes[r.Endpoint],
					Latency:   r.Latency,
					Err:       r.Err,
				}
			}

			if a.jsonOut {
				return a.writeReport(cmd, reportDir, compareReport(a.report(cmd), results, consistency))
			}
			f := &display.CompareFormatter{Results: results, Report: consistency}
			return f.Format(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "With --json, write the report into this directory")
	return cmd
}

type compareView struct {
	Slot      uint64       `json:"slot"`
	Blockhash *solana.Hash `json:"blockhash,omitempty"`
}

func compareReport(r report.Report, results []display.CompareResult, c *metrics.ConsistencyReport) report.Report {
	for _, res := range results {
		e := report.Entry{Endpoint: res.Endpoint, Error: report.NewErrorInfo(res.Err)}
		if res.Err == nil {
			e.LatencyMS = report.Millis(res.Latency)
			v := compareView{Slot: res.Slot}
			if !res.Blockhash.IsZero() {
				h := res.Blockhash
				v.Blockhash = &h
			}
			e.Result = v
		}
		r.Results = append(r.Results, e)
	}
	if c == nil {
		consistent := false
		r.Consistent = &consistent
		r.Issues = []string{"No endpoints responded successfully"}
		return r
	}
	r.ReferenceSlot = &c.ReferenceSlot
	r.SlotDrift = &c.SlotDrift
	r.Consistent = &c.Consistent
	r.Issues = c.Issues
	if len(c.HashGroups) > 0 {
		r.HashGroups = make(map[string][]string, len(c.HashGroups))
		for _, g := range c.HashGroups {
			r.HashGroups[g.Hash.String()] = g.Endpoints
		}
	}
	return r
}
