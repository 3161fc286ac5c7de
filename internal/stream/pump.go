package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrRead marks a failure reading the source
	ErrRead = errors.New("read failed")
	// ErrWrite marks a failure delivering a chunk to the client
	ErrWrite = errors.New("write failed")
)

// PumpConfig controls chunking and pacing
type PumpConfig struct {
	ChunkSize   int
	PacingDelay time.Duration
}

// PumpResult summarizes a completed or aborted pump
type PumpResult struct {
	Bytes  int64
	Chunks int
}

// ChunkObserver is called after every chunk that was fully written
type ChunkObserver func(size int, writeDuration time.Duration)

// Pump copies src to dst in chunks of cfg.ChunkSize bytes, pausing
// cfg.PacingDelay after every write. Every chunk but the last is exactly
// ChunkSize long; a single buffer is reused for all chunks. Pump returns nil
// when src is exhausted.
func Pump(ctx context.Context, dst io.Writer, src io.Reader, cfg PumpConfig, observe ChunkObserver) (PumpResult, error) {
	var result PumpResult

	if cfg.ChunkSize < 1 {
		return result, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}

	var timer *time.Timer
	if cfg.PacingDelay > 0 {
		timer = time.NewTimer(cfg.PacingDelay)
		timer.Stop()
		defer timer.Stop()
	}

	chunk := make([]byte, cfg.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("stream cancelled: %w", err)
		}

		n, err := io.ReadFull(src, chunk)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return result, fmt.Errorf("%w: %w", ErrRead, err)
		}

		start := time.Now()
		written, werr := dst.Write(chunk[:n])
		if werr == nil && written != n {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			return result, fmt.Errorf("%w: chunk %d (%d of %d bytes): %w",
				ErrWrite, result.Chunks+1, written, n, werr)
		}

		result.Bytes += int64(n)
		result.Chunks++
		if observe != nil {
			observe(n, time.Since(start))
		}

		if timer != nil {
			timer.Reset(cfg.PacingDelay)
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("stream cancelled: %w", ctx.Err())
			case <-timer.C:
			}
		}
	}
}
