package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	abstraction "github.com/yugurt2005/poker-abstraction"
	"github.com/yugurt2005/poker-abstraction/blobstore"
	"github.com/yugurt2005/poker-abstraction/cmd/abstraction/internal/config"
	"github.com/yugurt2005/poker-abstraction/promcollector"
)

var (
	// Global flags
	configPath  string
	logLevel    string
	logFormat   string
	metricsAddr string
	storeKind   string
	storePath   string
)

var rootCmd = &cobra.Command{
	Use:   "abstraction",
	Short: "Cluster probability histograms into bucket tables",
	Long: `abstraction - build bucket tables by clustering histograms.

Rows are read from JSON or msgpack files and memoized in an artifact store
together with the resulting tables, so a table is only computed once.

Examples:
  # Cluster flop rows into 2197 buckets with EMD
  abstraction cluster --name flop --input flop.json -k 2197 --restarts 20

  # Look up the bucket of row 17 and plot the row
  abstraction inspect --name flop --row 17 --plot flop.json

  # Use a config file (store, cache and clustering defaults)
  abstraction --config abstraction.yaml cluster --name river --input river.msgpack -k 50`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&storeKind, "store", "", "store kind (local, memory, s3, minio, badger)")
	pf.StringVar(&storePath, "store-path", "", "directory of local and badger stores")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if flags.Changed("store") {
		cfg.Store.Kind = storeKind
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session holds everything a command needs to talk to the artifact store.
type session struct {
	cfg     *config.Config
	store   blobstore.Store
	builder *abstraction.Builder
	logger  *abstraction.Logger
	closers []func() error
}

func openSession(cmd *cobra.Command, extra ...abstraction.Option) (*session, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &session{cfg: cfg, store: store, logger: logger, closers: []func() error{closeStore}}

	opts, err := cfg.BuilderOptions()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	opts = append(opts, abstraction.WithLogger(logger))

	if cfg.MetricsAddr != "" {
		collector, shutdown, err := serveMetrics(ctx, cfg.MetricsAddr, logger)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, shutdown)
		opts = append(opts, abstraction.WithMetricsCollector(collector))
	}

	s.builder, err = abstraction.New(store, append(opts, extra...)...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the session in reverse order of acquisition.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// serveMetrics exposes a fresh registry on addr until shutdown is called.
func serveMetrics(ctx context.Context, addr string, logger *abstraction.Logger) (*promcollector.Collector, func() error, error) {
	reg := prometheus.NewRegistry()
	collector, err := promcollector.New(reg, "abstraction")
	if err != nil {
		return nil, nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "metrics server stopped", "error", err)
		}
	}()
	logger.InfoContext(ctx, "serving metrics", "addr", ln.Addr().String())

	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
	return collector, shutdown, nil
}
