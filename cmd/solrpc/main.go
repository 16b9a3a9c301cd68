// Command solrpc queries Solana JSON-RPC endpoints and decodes their
// responses with the streaming controllers in internal/rpc.
//
// Usage:
//
//	solrpc slot
//	solrpc balance <pubkey> --endpoint mainnet
//	solrpc compare --json
//	solrpc decode getBlock captures/getBlock-20260101T000000.000000000-1.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmagro/solrpc/internal/display"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(stderr, "%s %v\n", display.Red("Error:"), err)
	}
	return 1
}
