package display

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
)

// Value renders a single named value.
func Value(name string, v any) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		field(w, name, v)
		return nil
	})
}

func EpochInfo(info solana.EpochInfo, sched *solana.EpochSchedule) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		field(w, "Epoch", info.Epoch)
		field(w, "Slot", info.AbsoluteSlot)
		field(w, "Block height", info.BlockHeight)
		field(w, "Epoch progress", fmt.Sprintf("%.2f%% (%d/%d)", info.Progress()*100, info.SlotIndex, info.SlotsInEpoch))
		field(w, "Slots remaining", info.SlotsRemaining())
		if info.TransactionCount != nil {
			field(w, "Transaction count", *info.TransactionCount)
		}
		if sched != nil {
			field(w, "Slots per epoch", sched.SlotsPerEpoch)
			field(w, "Warmup", sched.Warmup)
		}
		return nil
	})
}

func Balance(v solana.ContextValue[uint64]) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		field(w, "Balance", Lamports(v.Value))
		field(w, "Context slot", v.Context.Slot)
		return nil
	})
}

// Account renders an account, with its SPL token layout when owned by the
// token program.
func Account(v solana.ContextValue[*solana.AccountInfo[[]byte]]) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		acc := v.Value
		if acc == nil {
			fmt.Fprintf(w, "%s account not found (slot %d)\n", Yellow("⚠"), v.Context.Slot)
			return nil
		}
		field(w, "Address", acc.Address)
		field(w, "Owner", acc.Owner)
		field(w, "Balance", Lamports(acc.Lamports))
		field(w, "Executable", acc.Executable)
		field(w, "Space", acc.Space)
		field(w, "Rent epoch", acc.RentEpoch)
		field(w, "Data", shorten(fmt.Sprintf("%x", acc.Data), 64))
		if solana.IsTokenProgram(acc.Owner) {
			if tok := solana.TokenAccountData(acc.Address, acc.Data); tok != nil {
				field(w, "Token mint", tok.Mint)
				field(w, "Token owner", tok.Owner)
				field(w, "Token amount", tok.Amount)
				field(w, "Token state", tok.State)
			}
		}
		return nil
	})
}

func Blockhash(v solana.ContextValue[solana.LatestBlockhash]) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		field(w, "Blockhash", v.Value.Blockhash)
		field(w, "Last valid height", v.Value.LastValidBlockHeight)
		field(w, "Context slot", v.Context.Slot)
		return nil
	})
}

func Version(v solana.Version, identity solana.PublicKey) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		field(w, "solana-core", v.SolanaCore)
		field(w, "feature-set", v.FeatureSet)
		field(w, "Identity", identity)
		return nil
	})
}

// VoteAccounts renders the largest vote accounts, delinquent ones included.
func VoteAccounts(v solana.VoteAccounts, limit int) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		current, delinquent := v.TotalStake()
		field(w, "Current validators", len(v.Current))
		field(w, "Delinquent validators", len(v.Delinquent))
		field(w, "Active stake", Lamports(current))
		field(w, "Delinquent stake", Lamports(delinquent))
		fmt.Fprintln(w)

		tbl := newTable(w, "Vote account", "Node", "Stake", "Comm.", "Last vote", "Credits", "")
		shown := 0
		add := func(accounts []solana.VoteAccount, status string) {
			for _, a := range accounts {
				if limit > 0 && shown >= limit {
					return
				}
				var earned uint64
				if n := len(a.EpochCredits); n > 0 {
					earned = a.EpochCredits[n-1].Earned()
				}
				tbl.AddRow(shorten(a.VotePubkey.ToBase58(), 12), shorten(a.NodePubkey.ToBase58(), 12),
					Lamports(a.ActivatedStake), fmt.Sprintf("%d%%", a.Commission), a.LastVote, earned, status)
				shown++
			}
		}
		add(v.Current, "")
		add(v.Delinquent, Red("delinquent"))
		tbl.Print()
		return nil
	})
}

func SignatureStatuses(sigs []solana.Signature, v solana.ContextValue[[]*solana.TxStatus]) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		tbl := newTable(w, "Signature", "Slot", "Confirmations", "Status", "Result")
		for i, st := range v.Value {
			sig := ""
			if i < len(sigs) {
				sig = shorten(sigs[i].String(), 20)
			}
			if st == nil {
				tbl.AddRow(sig, "-", "-", Dim("unknown"), "-")
				continue
			}
			confirmations := "rooted"
			if st.Confirmations != nil {
				confirmations = fmt.Sprint(*st.Confirmations)
			}
			tbl.AddRow(sig, st.Slot, confirmations, st.ConfirmationStatus, txResult(st.Err))
		}
		tbl.Print()
		return nil
	})
}

func txResult(err error) string {
	if err == nil {
		return Green("ok")
	}
	return Red(err.Error())
}

func Transaction(tx *solana.Transaction) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		if tx == nil {
			fmt.Fprintf(w, "%s transaction not found\n", Yellow("⚠"))
			return nil
		}
		field(w, "Slot", tx.Slot)
		if tx.BlockTime != nil {
			field(w, "Block time", time.Unix(*tx.BlockTime, 0).UTC().Format(time.RFC3339))
		}
		version := "legacy"
		if tx.Version != solana.LegacyVersion {
			version = fmt.Sprint(tx.Version)
		}
		field(w, "Version", version)
		field(w, "Size", fmt.Sprintf("%d bytes", len(tx.Transaction)))
		if m := tx.Meta; m != nil {
			field(w, "Result", txResult(m.Err))
			field(w, "Fee", Lamports(m.Fee))
			if m.ComputeUnitsConsumed != nil {
				field(w, "Compute units", *m.ComputeUnitsConsumed)
			}
			writeLogs(w, m.LogMessages)
		}
		return nil
	})
}

func Block(slot uint64, b *solana.Block) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		if b == nil {
			fmt.Fprintf(w, "%s slot %d has no block\n", Yellow("⚠"), slot)
			return nil
		}
		field(w, "Slot", slot)
		field(w, "Parent slot", b.ParentSlot)
		field(w, "Blockhash", b.Blockhash)
		field(w, "Previous blockhash", b.PreviousBlockhash)
		if b.BlockHeight != nil {
			field(w, "Block height", *b.BlockHeight)
		}
		if b.BlockTime != nil {
			field(w, "Block time", time.Unix(*b.BlockTime, 0).UTC().Format(time.RFC3339))
		}
		field(w, "Transactions", fmt.Sprintf("%d (%d failed)", b.TransactionCount(), b.Failed()))
		var fees uint64
		for _, tx := range b.Transactions {
			if tx.Meta != nil {
				fees += tx.Meta.Fee
			}
		}
		field(w, "Fees", Lamports(fees))
		field(w, "Rewards", len(b.Rewards))
		return nil
	})
}

func Simulation(v solana.ContextValue[solana.TxSimulation]) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		s := v.Value
		field(w, "Context slot", v.Context.Slot)
		field(w, "Result", txResult(s.Err))
		if s.UnitsConsumed != nil {
			field(w, "Compute units", *s.UnitsConsumed)
		}
		if s.ReplacementBlockhash != nil {
			field(w, "Replacement blockhash", s.ReplacementBlockhash.Blockhash)
		}
		if s.ReturnData != nil {
			field(w, "Return data", fmt.Sprintf("%s %x", s.ReturnData.ProgramID, s.ReturnData.Data))
		}
		writeLogs(w, s.Logs)
		return nil
	})
}

func writeLogs(w io.Writer, logs []string) {
	if len(logs) == 0 {
		return
	}
	fmt.Fprintln(w, Bold("Logs"))
	for _, l := range logs {
		fmt.Fprintf(w, "  %s\n", Dim(l))
	}
}

// Error describes a failed call, including the Solana specific meaning of
// RPC error codes and preflight simulation logs.
func Error(err error) Formatter {
	return FormatterFunc(func(w io.Writer) error {
		var (
			te        *rpc.TransportError
			syntaxErr *stream.SyntaxError
			preflight rpc.SendTransactionPreflightFailure
		)
		rpcErr, isRPC := rpc.AsError(err)
		switch {
		case isRPC:
			fmt.Fprintf(w, "%s RPC error %d: %s\n", Red("✗"), rpcErr.Code, rpcErr.Message)
			if _, unknown := rpcErr.Custom.(rpc.UnknownCustomError); rpcErr.Custom != nil && !unknown {
				field(w, "Meaning", rpcErr.Custom)
			}
			if rpcErr.RetryAfterSeconds != nil {
				field(w, "Retry after", time.Duration(*rpcErr.RetryAfterSeconds)*time.Second)
			}
			if errors.As(err, &preflight) {
				writeLogs(w, preflight.Simulation.Logs)
			}
		case errors.As(err, &te):
			fmt.Fprintf(w, "%s transport error (HTTP %d): %v\n", Red("✗"), te.StatusCode, te.Err)
			if len(te.Body) > 0 {
				field(w, "Body", shorten(string(te.Body), 200))
			}
		case errors.As(err, &syntaxErr):
			fmt.Fprintf(w, "%s malformed response at offset %d: %s\n", Red("✗"), syntaxErr.Offset, syntaxErr.Msg)
		default:
			fmt.Fprintf(w, "%s %v\n", Red("✗"), err)
		}
		return nil
	})
}
