package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/report"
	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
)

// decoder decodes a captured response with a controller built from opts.
type decoder func(resp *rpc.RawResponse, opts []rpc.ControllerOption) (any, display.Formatter, error)

func decodeWith[T any](decode rpc.DecodeFunc[T], view func(T) any, format func(T) display.Formatter) decoder {
	return func(resp *rpc.RawResponse, opts []rpc.ControllerOption) (any, display.Formatter, error) {
		v, err := rpc.NewController(decode, opts...).Decode(resp)
		if err != nil {
			return nil, nil, err
		}
		var out any = v
		if view != nil {
			out = view(v)
		}
		return out, format(v), nil
	}
}

func readUint64(it *stream.Iter) uint64 { return it.ReadUint64() }

func valueFormatter[T any](name string) func(T) display.Formatter {
	return func(v T) display.Formatter { return display.Value(name, v) }
}

// decoders lists the methods decode understands. Values the response does
// not carry, such as the requested address or slot, are left zero.
func decoders(a *app, slot uint64) map[string]decoder {
	return map[string]decoder{
		"getSlot":        decodeWith(rpc.Result(readUint64), nil, valueFormatter[uint64]("Slot")),
		"getBlockHeight": decodeWith(rpc.Result(readUint64), nil, valueFormatter[uint64]("Block height")),
		"getMinimumBalanceForRentExemption": decodeWith(rpc.Result(readUint64), nil, func(l uint64) display.Formatter {
			return display.Value("Minimum balance", display.Lamports(l))
		}),
		"getBalance": decodeWith(rpc.Contextual(readUint64), newBalanceView, display.Balance),
		"getAccountInfo": decodeWith(rpc.Result(func(it *stream.Iter) solana.ContextValue[*solana.AccountInfo[[]byte]] {
			return solana.ReadContextValue(it, func(it *stream.Iter, _ solana.Context) *solana.AccountInfo[[]byte] {
				return solana.ReadAccountInfo(it, solana.PublicKey{}, solana.RawData)
			})
		}), newAccountView, display.Account),
		"getEpochInfo": decodeWith(rpc.Result(solana.ReadEpochInfo), func(info solana.EpochInfo) any {
			return newEpochView(epochResult{info: info})
		}, func(info solana.EpochInfo) display.Formatter {
			return display.EpochInfo(info, nil)
		}),
		"getLatestBlockhash": decodeWith(rpc.Contextual(solana.ReadLatestBlockhash), newBlockhashView, display.Blockhash),
		"getVersion": decodeWith(rpc.Result(solana.ReadVersion), func(v solana.Version) any {
			return versionView{SolanaCore: v.SolanaCore, FeatureSet: v.FeatureSet}
		}, func(v solana.Version) display.Formatter {
			return display.Value("solana-core", fmt.Sprintf("%s (feature set %d)", v.SolanaCore, v.FeatureSet))
		}),
		"getIdentity": decodeWith(rpc.Result(solana.ReadIdentity), func(pk solana.PublicKey) any {
			return report.Key(pk)
		}, func(pk solana.PublicKey) display.Formatter {
			return display.Value("Identity", pk)
		}),
		"getHealth": decodeWith(rpc.Result(func(it *stream.Iter) string { return it.ReadString() }), nil,
			valueFormatter[string]("Health")),
		"getVoteAccounts": decodeWith(rpc.Result(solana.ReadVoteAccounts), votesViewer(0), func(v solana.VoteAccounts) display.Formatter {
			return display.VoteAccounts(v, 0)
		}),
		"getSignatureStatuses": decodeWith(rpc.Contextual(func(it *stream.Iter) []*solana.TxStatus {
			return stream.ReadList(it, solana.TxStatusReader(a.log))
		}), statusesViewer(nil), func(v solana.ContextValue[[]*solana.TxStatus]) display.Formatter {
			return display.SignatureStatuses(nil, v)
		}),
		"getTransaction": decodeWith(rpc.Result(solana.ReadTransaction), newTxView, display.Transaction),
		"getBlock": decodeWith(rpc.Result(solana.ReadBlock), blockViewer(slot), func(b *solana.Block) display.Formatter {
			return display.Block(slot, b)
		}),
		"simulateTransaction": decodeWith(rpc.Contextual(solana.ReadTxSimulation), newSimulationView, display.Simulation),
		"sendTransaction":     decodeWith(rpc.Result(solana.ReadSignature), nil, valueFormatter[solana.Signature]("Signature")),
		"requestAirdrop":      decodeWith(rpc.Result(solana.ReadSignature), nil, valueFormatter[solana.Signature]("Signature")),
	}
}

func decodeCmd(a *app) *cobra.Command {
	var (
		status int
		slot   uint64
	)
	cmd := &cobra.Command{
		Use:   "decode <method> <file>",
		Short: "Decode a captured response body offline",
		Long: `Decode a response body saved with --capture-dir (or any file holding a
JSON-RPC response) through the same decoders the live commands use. Decoding
errors report the byte offset of the problem.

Example:
  solrpc decode getBlock captures/getBlock-20260101T000000.000000000-1.json --slot 250000000`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			method, path := args[0], args[1]
			table := decoders(a, slot)
			dec, ok := table[method]
			if !ok {
				names := make([]string, 0, len(table))
				for name := range table {
					names = append(names, name)
				}
				sort.Strings(names)
				return fmt.Errorf("cannot decode %q, supported methods: %s", method, strings.Join(names, ", "))
			}

			body, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			resp := &rpc.RawResponse{Method: method, StatusCode: status, Body: body}

			start := time.Now()
			result, f, err := dec(resp, []rpc.ControllerOption{rpc.WithLogger(a.log), rpc.WithObserver(a.metrics)})
			elapsed := time.Since(start)

			w := cmd.OutOrStdout()
			if a.jsonOut {
				entry := report.Entry{Endpoint: path, LatencyMS: report.Millis(elapsed), Result: result, Error: report.NewErrorInfo(err)}
				if werr := report.Write(w, a.report(cmd, entry)); werr != nil {
					return werr
				}
				if err != nil {
					return &reportedError{err}
				}
				return nil
			}

			if err != nil {
				if werr := display.Error(err).Format(cmd.ErrOrStderr()); werr != nil {
					return werr
				}
				return &reportedError{err}
			}
			fmt.Fprintf(w, "%s %s\n\n", display.Bold(method), display.Dim(fmt.Sprintf("(%s, %d bytes)", path, len(body))))
			return f.Format(w)
		},
	}
	cmd.Flags().IntVar(&status, "status", 200, "HTTP status the response was received with")
	cmd.Flags().Uint64Var(&slot, "slot", 0, "Slot a captured getBlock response was requested for")
	return cmd
}
