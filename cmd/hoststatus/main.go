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

	"hoststatus/internal/api"
	"hoststatus/internal/config"
	"hoststatus/internal/hostmetrics"
	"hoststatus/internal/logger"
	"hoststatus/internal/models"
	"hoststatus/internal/observability"
	"hoststatus/internal/probe"
	"hoststatus/internal/ratelimit"
	"hoststatus/internal/server"
	"hoststatus/internal/status"
	"hoststatus/internal/version"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	exampleConfig = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	port, ip, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg.Server.Port = port
	cfg.Server.Host = ip
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid listen address", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Status server failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <port> <ip>\n\n", os.Args[0])
	fmt.Fprintln(flag.CommandLine.Output(), "Serves host metrics and search service liveness on GET /status.")
	fmt.Fprintln(flag.CommandLine.Output())
	flag.PrintDefaults()
}

// run wires the components and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *models.Config) error {
	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Telemetry, cfg.Observability, ver)
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	var collector hostmetrics.Collector = hostmetrics.NewSystemCollector(hostmetrics.Config{
		DiskPath:          cfg.Metrics.DiskPath,
		CPUSampleInterval: cfg.Metrics.CPUSampleInterval,
	})
	var prober probe.Prober = probe.NewTCPProber(cfg.Probe.Host, cfg.Probe.Ports, cfg.Probe.Timeout)

	// Wrap collector and prober with instrumentation if anything records it
	if cfg.Telemetry.Enabled || cfg.Observability.Tracing.Enabled {
		instrumentedCollector, err := observability.NewInstrumentedCollector(collector)
		if err != nil {
			return fmt.Errorf("create instrumented collector: %w", err)
		}
		collector = instrumentedCollector

		instrumentedProber, err := observability.NewInstrumentedProber(prober)
		if err != nil {
			return fmt.Errorf("create instrumented prober: %w", err)
		}
		prober = instrumentedProber
	}

	aggregator := status.NewAggregator(collector, prober)
	handlers := api.NewHandlers(aggregator)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.CleanupInterval)
		defer limiter.Close()
		routeOpts = append(routeOpts, api.WithRateLimit(limiter, cfg.RateLimit.TrustProxyHeaders))
		slog.Info("Rate limiting enabled",
			"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
			"burst", cfg.RateLimit.Burst)
	}
	router := api.SetupRoutes(handlers, routeOpts...)

	// Start metrics server if enabled
	if cfg.Telemetry.Enabled {
		metricsServer := observability.NewMetricsServer(cfg.Telemetry.Port, cfg.Telemetry.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("Metrics server forced to shutdown", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router)

	slog.Info("HTTP Server Running...",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"probe_targets", cfg.Probe.Ports,
		"disk_path", cfg.Metrics.DiskPath)

	return srv.Run(ctx)
}
