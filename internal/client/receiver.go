package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skypro1111/wav-stream-service/internal/audio"
	"github.com/skypro1111/wav-stream-service/internal/metrics"
)

var (
	// ErrDial marks a failure connecting to the server
	ErrDial = errors.New("dial failed")
	// ErrReceive marks a failure reading from the server
	ErrReceive = errors.New("receive failed")
	// ErrSink marks a failure writing received bytes to the sink
	ErrSink = errors.New("sink write failed")
)

// Config contains receiver configuration
type Config struct {
	Address        string
	ReadSize       int
	RingBufferSize int
	DialTimeout    time.Duration
}

// Stats summarizes a finished receive
type Stats struct {
	RemoteAddr    string            `json:"remote_address"`
	BytesReceived uint64            `json:"bytes_received"`
	Reads         uint64            `json:"reads"`
	BytesWritten  int64             `json:"bytes_written"`
	Duration      time.Duration     `json:"duration"`
	Buffer        audio.BufferStats `json:"buffer"`
}

// Receiver reads a raw stream from the server through a ring buffer. One
// goroutine moves socket reads into the buffer while the caller's goroutine
// drains it into the sink.
type Receiver struct {
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReceiver creates a receiver
func NewReceiver(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Receiver {
	return &Receiver{
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Receive connects to the server and copies the stream into sink until the
// server closes the connection.
func (r *Receiver) Receive(ctx context.Context, sink io.Writer) (Stats, error) {
	var stats Stats

	dialer := net.Dialer{Timeout: r.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.config.Address)
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrDial, r.config.Address, err)
	}
	defer conn.Close()

	stats.RemoteAddr = conn.RemoteAddr().String()
	r.logger.Info("Connected to server", slog.String("remote_addr", stats.RemoteAddr))

	stopConn := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopConn()

	rb := audio.NewRingBuffer(r.config.RingBufferSize)
	start := time.Now()

	var (
		wg          sync.WaitGroup
		producerErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		producerErr = r.produce(conn, rb, &stats)
	}()

	written, copyErr := io.Copy(sink, rb)
	if copyErr != nil {
		// Wake the producer if it is waiting for room.
		rb.Close()
		conn.Close()
	}
	wg.Wait()

	stats.BytesWritten = written
	stats.Duration = time.Since(start)
	stats.Buffer = rb.GetStats()

	// A sink failure closes the connection under the producer, so its read
	// error is a consequence and must not mask the cause.
	switch {
	case ctx.Err() != nil:
		return stats, fmt.Errorf("receive cancelled: %w", ctx.Err())
	case copyErr != nil && !errors.Is(copyErr, audio.ErrBufferClosed):
		return stats, fmt.Errorf("%w: %w", ErrSink, copyErr)
	case producerErr != nil:
		return stats, producerErr
	}

	r.logger.Info("Stream ended",
		slog.Uint64("bytes_received", stats.BytesReceived),
		slog.Uint64("reads", stats.Reads),
		slog.Int("buffer_high_water", stats.Buffer.HighWater),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// produce moves socket reads into rb until EOF
func (r *Receiver) produce(conn net.Conn, rb *audio.RingBuffer, stats *Stats) error {
	buf := make([]byte, r.config.ReadSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			stats.Reads++
			stats.BytesReceived += uint64(n)
			r.metrics.RecordRead(n)

			if _, werr := rb.Write(buf[:n]); werr != nil {
				// Consumer aborted; its error is reported instead.
				return nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				rb.CloseWrite()
				return nil
			}
			rb.Close()
			return fmt.Errorf("%w: %w", ErrReceive, err)
		}
	}
}
