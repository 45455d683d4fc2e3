// Command perslcd owns the persistence resources listed in its configuration
// file and releases them when the Node State Manager requests a normal
// shutdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/perslc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unregisterTimeout bounds the UnRegisterShutdownClient call on exit.
const unregisterTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("perslcd failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	perslc.SetLogger(logger.With("component", "perslc"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := append(cfg.Options(),
		perslc.WithMetricsRegisterer(reg),
		perslc.WithReportFunc(func(r *perslc.Report) {
			logger.Info("teardown report",
				"run_id", r.RunID,
				"request", r.Request.String(),
				"failures", len(r.Failures),
				"duration", r.Duration)
		}),
	)

	c, err := perslc.Connect(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close bus connection", "error", err)
		}
	}()

	if err := openResources(ctx, c.Persistence(), cfg); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := metricsServer(cfg.MetricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := c.Register(ctx); err != nil {
		return err
	}
	logger.Info("perslcd started", "bus", cfg.Bus, "object_path", cfg.ObjectPath)

	runErr := c.Run(ctx)

	unregCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unregisterTimeout)
	defer cancel()
	if err := c.Unregister(unregCtx); err != nil {
		logger.Warn("failed to unregister shutdown client", "error", err)
	}

	logger.Info("perslcd stopped", "torn_down", c.TornDown())
	return runErr
}

// openResources opens the databases and plugins listed in cfg.
func openResources(ctx context.Context, p perslc.Persistence, cfg Config) error {
	for _, db := range cfg.Databases {
		if db.Shared {
			if _, err := p.OpenSharedDatabase(ctx, db.Path); err != nil {
				return fmt.Errorf("open shared database: %w", err)
			}
			continue
		}
		if _, err := p.OpenDatabase(ctx, db.Path); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
	}
	for _, pl := range cfg.Plugins {
		if err := p.LoadPlugin(pl.Slot, pl.Name, pl.Path); err != nil {
			return fmt.Errorf("load plugin: %w", err)
		}
	}
	return nil
}

func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newLogger(cfg Config) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}
