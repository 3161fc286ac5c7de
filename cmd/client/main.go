package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/skypro1111/wav-stream-service/internal/audio"
	"github.com/skypro1111/wav-stream-service/internal/client"
	"github.com/skypro1111/wav-stream-service/internal/config"
	"github.com/skypro1111/wav-stream-service/internal/logging"
	"github.com/skypro1111/wav-stream-service/internal/metrics"
)

const usage = "Usage: client [-config file] [-addr host:port] <output.wav>"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to configuration file (built-in defaults when empty)")
	addr := flag.String("addr", "", "Server address, overrides client.address")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println(usage)
		return 0
	}
	outputPath := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Client.Address = *addr
	}

	logger, closeLog := logging.New(cfg.Logging)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file",
			slog.String("path", outputPath),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer out.Close()

	sink, err := audio.NewWAVSink(out, cfg.Client.SampleRate, cfg.Client.Channels)
	if err != nil {
		logger.Error("Failed to create WAV sink", slog.String("error", err.Error()))
		return 1
	}

	receiver := client.NewReceiver(client.Config{
		Address:        cfg.Client.Address,
		ReadSize:       cfg.Client.ReadSize,
		RingBufferSize: cfg.Client.RingBufferSize,
		DialTimeout:    cfg.Client.GetDialTimeoutDuration(),
	}, logger, metrics.NewMetrics(nil))

	stats, recvErr := receiver.Receive(ctx, sink)

	// Whatever arrived is still written out as a playable file
	if err := sink.Close(); err != nil {
		logger.Error("Failed to finalize WAV file", slog.String("error", err.Error()))
		return 1
	}

	if recvErr != nil {
		logger.Error("Receive failed",
			slog.String("address", cfg.Client.Address),
			slog.String("error", recvErr.Error()),
		)
		return 1
	}

	logger.Info("Recording saved",
		slog.String("path", outputPath),
		slog.Int("frames", sink.FramesWritten()),
		slog.Int("bytes_dropped", sink.BytesDropped()),
		slog.Uint64("bytes_received", stats.BytesReceived),
		slog.Duration("duration", stats.Duration),
	)

	return 0
}
