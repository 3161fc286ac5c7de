package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skypro1111/wav-stream-service/internal/config"
	"github.com/skypro1111/wav-stream-service/internal/logging"
	"github.com/skypro1111/wav-stream-service/internal/metrics"
	"github.com/skypro1111/wav-stream-service/internal/server"
)

const (
	serviceName    = "wav-stream-service"
	serviceVersion = "1.0.0"
	usage          = "Usage: server [-config file] <wav_file>"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (built-in defaults when empty)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Nothing is opened before the argument check
	if flag.NArg() < 1 {
		fmt.Println(usage)
		return 0
	}
	wavPath := flag.Arg(0)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize logger based on configuration
	logger, closeLog := logging.New(cfg.Logging)
	defer closeLog()

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
		slog.String("wav_file", wavPath),
	)

	logger.Debug("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("bind_address", cfg.Server.BindAddress),
		slog.Int("backlog", cfg.Server.Backlog),
		slog.Bool("reuse_address", cfg.Server.ReuseAddress),
		slog.Int("header_size", cfg.Stream.HeaderSize),
		slog.Int("chunk_size", cfg.Stream.ChunkSize),
		slog.Duration("pacing_delay", cfg.Stream.GetPacingDelay()),
		slog.String("log_level", cfg.Logging.Level),
	)

	// SIGINT/SIGTERM abort the run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.NewMetrics(nil)
	streamServer := server.NewStreamServer(cfg, logger, appMetrics, wavPath)

	// Initialize HTTP API server (if enabled)
	if cfg.HTTP.Enabled {
		httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, streamServer, appMetrics, prometheus.DefaultGatherer)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			return 1
		}

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := httpServer.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}
		}()
	}

	if err := streamServer.Run(ctx); err != nil {
		logger.Error("Service stopped with error",
			slog.String("error", err.Error()),
			slog.String("state", streamServer.Session().State().String()),
		)
		return 1
	}

	logger.Info("Service stopped")
	return 0
}
