package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dmagro/solrpc/internal/capture"
	"github.com/dmagro/solrpc/internal/config"
	"github.com/dmagro/solrpc/internal/display"
	"github.com/dmagro/solrpc/internal/logger"
	"github.com/dmagro/solrpc/internal/metrics"
	"github.com/dmagro/solrpc/internal/provider"
	"github.com/dmagro/solrpc/internal/report"
	"github.com/dmagro/solrpc/internal/rpc"
)

// offline marks commands that run without an endpoint configuration.
const offline = "offline"

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	endpoint   string
	captureDir string
	jsonOut    bool

	cfg      *config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Prometheus
	pool     *rpc.ClientPool
	server   *http.Server
}

// reportedError is a command failure already written to the output.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "solrpc",
		Short: "Query Solana JSON-RPC endpoints and decode their responses",
		Long: `solrpc sends Solana JSON-RPC requests to the endpoints listed in a YAML
configuration file and decodes the replies with streaming decoders. RPC errors
are reported with their Solana specific meaning, transaction errors down to the
failing instruction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "endpoints.yaml", "Path to the endpoint configuration")
	flags.StringVarP(&a.endpoint, "endpoint", "e", "", "Endpoint to query (default: best ranked endpoint)")
	flags.BoolVar(&a.jsonOut, "json", false, "Write a JSON report instead of tables")
	flags.StringVar(&a.captureDir, "capture-dir", "", "Write every response body to this directory")

	root.AddCommand(
		slotCmd(a),
		epochCmd(a),
		balanceCmd(a),
		accountCmd(a),
		blockhashCmd(a),
		versionCmd(a),
		votesCmd(a),
		statusCmd(a),
		txCmd(a),
		blockCmd(a),
		simulateCmd(a),
		sendCmd(a),
		healthCmd(a),
		compareCmd(a),
		decodeCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger, metrics and client
// pool. Offline commands fall back to defaults when no configuration file
// exists.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		if cmd.Annotations[offline] == "" || !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = &config.Config{Log: config.Log{Level: "info", Format: "console"}}
	}
	if a.captureDir != "" {
		cfg.Capture.Dir = a.captureDir
	}
	a.cfg = cfg

	a.log, err = logger.NewWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if a.jsonOut {
		color.NoColor = true
	}

	a.registry = prometheus.NewRegistry()
	a.metrics, err = metrics.NewPrometheus(a.registry)
	if err != nil {
		return err
	}

	opts := []rpc.Option{rpc.WithClientLogger(a.log), rpc.WithClientObserver(a.metrics)}
	if p := a.interceptor(); p != nil {
		opts = append(opts, rpc.WithInterceptor(p))
	}
	a.pool = rpc.NewClientPool(opts...)

	if cfg.Metrics.Listen != "" {
		a.serveMetrics(cfg.Metrics.Listen)
	}
	return nil
}

// interceptor returns the capture predicate configured for this run, or nil.
func (a *app) interceptor() rpc.Predicate {
	if a.cfg.Capture.Dir == "" {
		return nil
	}
	p := capture.Dir(a.cfg.Capture.Dir, a.log)
	if len(a.cfg.Capture.Methods) > 0 {
		p = capture.Only(p, a.cfg.Capture.Methods...)
	}
	return p
}

func (a *app) serveMetrics(addr string) {
	a.server = &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(a.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn().Err(err).Str("listen", addr).Msg("metrics server stopped")
		}
	}()
	a.log.Debug().Str("listen", addr).Msg("serving metrics")
}

func (a *app) close() {
	if a.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.server.Shutdown(ctx)
}

// clients returns a client for every selected endpoint.
func (a *app) clients() ([]*rpc.Client, error) {
	endpoints, err := a.cfg.Select(a.endpoint)
	if err != nil {
		return nil, err
	}
	return provider.Clients(a.cfg, endpoints, a.pool)
}

// client returns the client for --endpoint. Without the flag, a short
// getSlot sampling round picks the best of the configured endpoints.
func (a *app) client(ctx context.Context) (*rpc.Client, error) {
	clients, err := a.clients()
	if err != nil {
		return nil, err
	}
	if len(clients) == 1 {
		return clients[0], nil
	}

	ranked, err := provider.Rank(provider.Sample(ctx, clients, 3, 0))
	if err != nil {
		return clients[0], nil
	}
	best, err := ranked.Best()
	if err != nil {
		a.log.Warn().Err(err).Msg("endpoint selection")
	}
	for _, c := range clients {
		if c.Name() == best.Name {
			a.log.Debug().Str("endpoint", c.Name()).Float64("score", best.Score).Msg("selected endpoint")
			return c, nil
		}
	}
	return clients[0], nil
}

// single runs call against one endpoint and renders the result. view
// converts the value to its JSON report form; nil reports the value as is.
func single[T any](
	cmd *cobra.Command,
	a *app,
	call func(ctx context.Context, c *rpc.Client) (T, error),
	view func(T) any,
	format func(T) display.Formatter,
) error {
	ctx := cmd.Context()
	c, err := a.client(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	v, err := call(ctx, c)
	latency := time.Since(start)
	if err != nil {
		return a.failure(cmd, c, latency, err)
	}

	var result any = v
	if view != nil {
		result = view(v)
	}
	return a.render(cmd, c, latency, result, format(v))
}

func (a *app) render(cmd *cobra.Command, c *rpc.Client, latency time.Duration, result any, f display.Formatter) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		return report.Write(w, a.report(cmd, report.Entry{
			Endpoint:  c.Name(),
			LatencyMS: report.Millis(latency),
			Result:    result,
		}))
	}
	header(w, c, latency)
	return f.Format(w)
}

// failure writes err in the selected output format and returns it marked
// as reported.
func (a *app) failure(cmd *cobra.Command, c *rpc.Client, latency time.Duration, err error) error {
	if a.jsonOut {
		if werr := report.Write(cmd.OutOrStdout(), a.report(cmd, report.Entry{
			Endpoint:  c.Name(),
			LatencyMS: report.Millis(latency),
			Error:     report.NewErrorInfo(err),
		})); werr != nil {
			return werr
		}
		return &reportedError{err}
	}
	w := cmd.ErrOrStderr()
	header(w, c, latency)
	if werr := display.Error(err).Format(w); werr != nil {
		return werr
	}
	return &reportedError{err}
}

func (a *app) report(cmd *cobra.Command, entries ...report.Entry) report.Report {
	return report.Report{
		Timestamp: time.Now().UTC(),
		Command:   cmd.Name(),
		Results:   entries,
	}
}

func header(w io.Writer, c *rpc.Client, latency time.Duration) {
	fmt.Fprintf(w, "%s %s\n\n", display.Bold(c.Name()), display.Dim(fmt.Sprintf("(%dms)", latency.Milliseconds())))
}

// writeReport writes r to stdout, or into a timestamped file under dir when
// dir is set.
func (a *app) writeReport(cmd *cobra.Command, dir string, r report.Report) error {
	if dir == "" {
		return report.Write(cmd.OutOrStdout(), r)
	}
	path, err := report.WriteFile(dir, r.Command, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}
