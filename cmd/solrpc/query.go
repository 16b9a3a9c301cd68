package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/util"
)

func slotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "slot",
		Short: "Show the current slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (uint64, error) {
				return c.GetSlot(ctx)
			}, nil, func(slot uint64) display.Formatter {
				return display.Value("Slot", slot)
			})
		},
	}
}

func epochCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "epoch",
		Short: "Show epoch progress and the epoch schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (epochResult, error) {
				info, err := c.GetEpochInfo(ctx)
				if err != nil {
					return epochResult{}, err
				}
				r := epochResult{info: info}
				sched, err := c.GetEpochSchedule(ctx)
				if err != nil {
					a.log.Warn().Err(err).Str("endpoint", c.Name()).Msg("getEpochSchedule failed")
				} else {
					r.sched = &sched
				}
				return r, nil
			}, newEpochView, func(r epochResult) display.Formatter {
				return display.EpochInfo(r.info, r.sched)
			})
		},
	}
}

func balanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <pubkey>",
		Short: "Show the lamport balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.ContextValue[uint64], error) {
				return c.GetBalance(ctx, address)
			}, newBalanceView, display.Balance)
		},
	}
}

func accountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "account <pubkey>",
		Short: "Show an account, decoding SPL token accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.ContextValue[*solana.AccountInfo[[]byte]], error) {
				return rpc.GetAccountInfo(ctx, c, address, solana.RawData)
			}, newAccountView, display.Account)
		},
	}
}

func blockhashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blockhash",
		Short: "Show the latest blockhash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.ContextValue[solana.LatestBlockhash], error) {
				return c.GetLatestBlockhash(ctx)
			}, newBlockhashView, display.Blockhash)
		},
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the node software version and identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (versionResult, error) {
				v, err := c.GetVersion(ctx)
				if err != nil {
					return versionResult{}, err
				}
				id, err := c.GetIdentity(ctx)
				if err != nil {
					return versionResult{}, err
				}
				return versionResult{version: v, identity: id}, nil
			}, newVersionView, func(r versionResult) display.Formatter {
				return display.Version(r.version, r.identity)
			})
		},
	}
}

func votesCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "votes",
		Short: "Show vote accounts and stake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.VoteAccounts, error) {
				return c.GetVoteAccounts(ctx)
			}, votesViewer(limit), func(v solana.VoteAccounts) display.Formatter {
				return display.VoteAccounts(v, limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of vote accounts to list (0 for all)")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "status <signature>...",
		Short: "Show the confirmation status of transactions",
		Args:  cobra.RangeArgs(1, 256),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs := make([]solana.Signature, len(args))
			for i, arg := range args {
				sig, err := solana.ParseSignature(arg)
				if err != nil {
					return err
				}
				sigs[i] = sig
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.ContextValue[[]*solana.TxStatus], error) {
				return c.GetSignatureStatuses(ctx, sigs, history)
			}, statusesViewer(sigs), func(v solana.ContextValue[[]*solana.TxStatus]) display.Formatter {
				return display.SignatureStatuses(sigs, v)
			})
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Search the transaction history beyond the status cache")
	return cmd
}

func txCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tx <signature>",
		Short: "Show a confirmed transaction and its status metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := solana.ParseSignature(args[0])
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (*solana.Transaction, error) {
				return c.GetTransaction(ctx, sig)
			}, newTxView, display.Transaction)
		},
	}
}

type blockResult struct {
	slot  uint64
	block *solana.Block
}

func blockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "block [slot|latest]",
		Short: "Show a block summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			slot, latest, err := util.ParseSlot(arg)
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (blockResult, error) {
				r := blockResult{slot: slot}
				if latest {
					current, err := c.GetSlot(ctx)
					if err != nil {
						return r, err
					}
					r.slot = current
				}
				b, err := c.GetBlock(ctx, r.slot)
				r.block = b
				return r, err
			}, func(r blockResult) any {
				return blockViewer(r.slot)(r.block)
			}, func(r blockResult) display.Formatter {
				return display.Block(r.slot, r.block)
			})
		},
	}
}
