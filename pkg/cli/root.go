package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"github.com/TechXTT/tormprobe/internal/probe"
	"github.com/TechXTT/tormprobe/pkg/config"
	"github.com/TechXTT/tormprobe/prisma"
)

func version() string {
	return "v0.1.0"
}

type rootOptions struct {
	schemaFile  string
	driver      string
	iterations  int
	window      int
	forceGC     bool
	metricsAddr string
	logLevel    string
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top-level `tormprobe` command. Run without
// arguments it executes the probe.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tormprobe",
		Short: "tormprobe — heap growth probe for repeated ORM queries",
		Long: `tormprobe issues the same findMany query against the Test model in a loop
and prints the average heap usage of every window of iterations, together
with its change against the previous window. A steadily positive change
points at memory retained by the client.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
			if err != nil {
				return err
			}
			return runProbe(cmd.Context(), cmd.OutOrStdout(), log, opts)
		},
	}

	f := root.Flags()
	f.StringVar(&opts.schemaFile, "schema", config.DefaultSchemaPath, "Prisma schema path")
	f.StringVar(&opts.driver, "driver", "", "database/sql driver override (postgres, pgx, sqlite)")
	f.IntVar(&opts.iterations, "iterations", config.DefaultIterations, "number of queries after the warm-up")
	f.IntVar(&opts.window, "window", config.DefaultWindow, "iterations per averaging window")
	f.BoolVar(&opts.forceGC, "gc", false, "force a garbage collection before every heap reading")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while probing")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(NewMigrateCmd(&opts.logLevel))
	root.AddCommand(NewVersionCmd())
	return root
}

func runProbe(ctx context.Context, out io.Writer, log *slog.Logger, opts *rootOptions) error {
	cfg, err := config.Load(opts.schemaFile)
	if err != nil {
		return err
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
	}
	cfg.Iterations = opts.iterations
	cfg.Window = opts.window
	if err := cfg.Validate(); err != nil {
		return err
	}

	var metrics *probe.Metrics
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics = probe.NewMetrics(reg)
		stop := serveMetrics(opts.metricsAddr, reg, log)
		defer stop()
	}

	log.Debug("connecting", "driver", cfg.Driver, "schema", cfg.SchemaPath)
	client, err := prisma.NewClient(ctx, cfg)
	if err != nil {
		return err
	}

	return probe.Run(ctx, testModel{client}, probe.Options{
		Iterations: cfg.Iterations,
		Window:     cfg.Window,
		Heap:       probe.RuntimeHeap{ForceGC: opts.forceGC},
		Out:        out,
		Logger:     log,
		Metrics:    metrics,
	})
}

// testModel probes findMany on the Test model.
type testModel struct {
	client *prisma.Client
}

func (m testModel) Query(ctx context.Context) error {
	_, err := m.client.Test.FindMany(ctx)
	return err
}

func (m testModel) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", probe.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "addr", addr, "err", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
