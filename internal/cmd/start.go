package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	imetrics "github.com/engine-core/engine/internal/adapter/inbound/metrics"
	"github.com/engine-core/engine/internal/adapter/outbound/filterexpr"
	"github.com/engine-core/engine/internal/adapter/outbound/store"
	"github.com/engine-core/engine/internal/config"
	"github.com/engine-core/engine/internal/domain/orchestrator"
	"github.com/engine-core/engine/internal/domain/router"
	"github.com/engine-core/engine/internal/domain/tester"
	"github.com/engine-core/engine/internal/domain/worker"
	"github.com/engine-core/engine/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the orchestrator and worker pool",
	Long: `Start the engine orchestrator.

Configuration is loaded from engine.yaml: the worker pool size, the
persisted state file location, the metrics listener address, and the
policy/filter assets to register with the CEL builder.

Examples:
  engine start
  engine --config /path/to/engine.yaml start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	statePath := resolveStatePath(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	orch, metricsServer, err := buildOrchestrator(cfg, statePath, logger)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	orch.Start()
	logger.Info("engine started", "workers", cfg.Worker.Count, "state_path", statePath)

	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	orch.Stop()
	logger.Info("engine stopped")
	return nil
}

// buildOrchestrator wires the CEL builder, worker pool, file store and
// metrics registry together per cfg, and seeds router/tester entries
// from either the persisted state file (if present) or the config file.
func buildOrchestrator(cfg *config.Config, statePath string, logger *slog.Logger) (*service.Orchestrator, *http.Server, error) {
	builder, err := filterexpr.NewBuilder()
	if err != nil {
		return nil, nil, fmt.Errorf("create policy/filter builder: %w", err)
	}
	for _, p := range cfg.Policies {
		builder.RegisterPolicy(p.Name, filterexpr.Definition{Expression: p.Expression, Assets: p.Assets})
	}
	for _, f := range cfg.Filters {
		builder.RegisterFilter(f.Name, filterexpr.Definition{Expression: f.Expression, Assets: f.Assets})
	}

	fileStore := store.New(statePath, logger)
	doc, err := fileStore.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load persisted state: %w", err)
	}

	routerEntries, testerEntries := seedEntries(cfg, doc)

	workers := make([]orchestrator.Worker, 0, cfg.Worker.Count)
	for i := 0; i < cfg.Worker.Count; i++ {
		r := router.New(builder)
		t := tester.New(builder)
		ctx := context.Background()
		for _, e := range routerEntries {
			if err := r.AddEntry(ctx, e); err != nil {
				return nil, nil, fmt.Errorf("seed router entry %q on worker %d: %w", e.Name, i, err)
			}
			if e.State == router.Enabled {
				if err := r.EnableEntry(e.Name); err != nil {
					return nil, nil, fmt.Errorf("enable router entry %q on worker %d: %w", e.Name, i, err)
				}
			}
		}
		for _, e := range testerEntries {
			if err := t.AddEntry(ctx, e); err != nil {
				return nil, nil, fmt.Errorf("seed tester entry %q on worker %d: %w", e.Name, i, err)
			}
			if e.State == tester.Enabled {
				if err := t.EnableEntry(e.Name); err != nil {
					return nil, nil, fmt.Errorf("enable tester entry %q on worker %d: %w", e.Name, i, err)
				}
			}
		}
		workers = append(workers, worker.NewWithQueueSize(r, t, cfg.Worker.QueueSize))
	}

	testTimeout, err := time.ParseDuration(cfg.Worker.TestTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("parse worker.test_timeout: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := imetrics.NewMetrics(reg)
	orch := service.NewOrchestrator(workers, fileStore, testTimeout, logger, m)

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	}

	return orch, metricsServer, nil
}

// seedEntries prefers the persisted document's entries once it holds
// any (the state file is authoritative for a restart), falling back to
// the config file's entries for a first boot with no persisted state.
func seedEntries(cfg *config.Config, doc orchestrator.Document) ([]router.Entry, []tester.Entry) {
	if len(doc.RouterEntries) > 0 || len(doc.TesterEntries) > 0 {
		return doc.RouterEntries, doc.TesterEntries
	}

	routerEntries := make([]router.Entry, 0, len(cfg.Router))
	for _, e := range cfg.Router {
		routerEntries = append(routerEntries, router.Entry{
			Name: e.Name, PolicyName: e.PolicyName, FilterName: e.FilterName, Priority: e.Priority,
			State: stateFor(e.Enabled),
		})
	}
	testerEntries := make([]tester.Entry, 0, len(cfg.Tester))
	for _, e := range cfg.Tester {
		testerEntries = append(testerEntries, tester.Entry{
			Name: e.Name, PolicyName: e.PolicyName,
			State: testerStateFor(e.Enabled),
		})
	}
	return routerEntries, testerEntries
}

func stateFor(enabled bool) router.State {
	if enabled {
		return router.Enabled
	}
	return router.Disabled
}

func testerStateFor(enabled bool) tester.State {
	if enabled {
		return tester.Enabled
	}
	return tester.Disabled
}

func resolveStatePath(cfg *config.Config) string {
	if stateFilePath != "" {
		return stateFilePath
	}
	if env := os.Getenv("ENGINE_STATE_PATH"); env != "" {
		return env
	}
	return cfg.State.Path
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

