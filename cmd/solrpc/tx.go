package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/rpc"
	"github.com/dmagro/solrpc/internal/solana"
)

// decodeTx parses a base64 serialized transaction argument.
func decodeTx(arg string) ([]byte, error) {
	tx, err := base64.StdEncoding.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("transaction is not valid base64: %w", err)
	}
	if len(tx) == 0 {
		return nil, fmt.Errorf("empty transaction")
	}
	return tx, nil
}

func simulateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <base64-tx>",
		Short: "Simulate a serialized transaction",
		Long: `Simulate a serialized transaction without signature verification. The
recent blockhash is replaced by the node, so unsigned transactions work too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := decodeTx(args[0])
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.ContextValue[solana.TxSimulation], error) {
				return c.SimulateTransaction(ctx, tx)
			}, newSimulationView, display.Simulation)
		},
	}
}

func sendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <base64-tx>",
		Short: "Submit a signed, serialized transaction",
		Long: `Submit a signed, serialized transaction. When the node's preflight
simulation fails, the failing instruction and the simulation logs are shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := decodeTx(args[0])
			if err != nil {
				return err
			}
			return single(cmd, a, func(ctx context.Context, c *rpc.Client) (solana.Signature, error) {
				return c.SendTransaction(ctx, tx)
			}, nil, func(sig solana.Signature) display.Formatter {
				return display.Value("Signature", sig)
			})
		},
	}
}
