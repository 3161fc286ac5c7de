package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skypro1111/wav-stream-service/internal/audio"
	"github.com/skypro1111/wav-stream-service/internal/config"
	"github.com/skypro1111/wav-stream-service/internal/metrics"
	"github.com/skypro1111/wav-stream-service/internal/stream"
)

// StreamServer streams the payload of one file to exactly one TCP client
type StreamServer struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	session *stream.Session

	// Listener state, readable once Ready is closed
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once
	mu        sync.RWMutex
}

// NewStreamServer creates a server for the file at path
func NewStreamServer(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, path string) *StreamServer {
	session := stream.NewSession(path)

	return &StreamServer{
		config:  cfg,
		logger:  logger.With(slog.String("session_id", session.ID)),
		metrics: m,
		session: session,
		ready:   make(chan struct{}),
	}
}

// Run opens the source, binds the listener, serves one client and returns.
// Every resource acquired along the way is released before Run returns.
func (s *StreamServer) Run(ctx context.Context) error {
	src, err := s.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln, src)
}

// Open opens the source file and skips its header
func (s *StreamServer) Open() (*audio.Source, error) {
	src, err := audio.OpenSource(s.session.Path, s.config.Stream.HeaderSize)
	if err != nil {
		return nil, s.fail("open", fmt.Errorf("%w: %w", ErrOpenSource, err))
	}

	s.session.SetPayloadSize(src.PayloadSize())
	s.advance(stream.StateFileOpen)

	s.logger.Debug("Source opened",
		slog.String("path", src.Path()),
		slog.Int64("header_size", src.HeaderSize()),
		slog.Int64("payload_size", src.PayloadSize()),
	)

	return src, nil
}

// Listen binds the configured TCP listener
func (s *StreamServer) Listen(ctx context.Context) (net.Listener, error) {
	ln, err := Listen(ctx, s.config.Server)
	if err != nil {
		return nil, s.fail("listen", err)
	}

	return ln, nil
}

// Serve accepts a single client on ln and streams src to it. ln is closed as
// soon as the client is accepted; Accept is never called a second time.
func (s *StreamServer) Serve(ctx context.Context, ln net.Listener, src *audio.Source) error {
	defer ln.Close()

	s.setListening(ln.Addr())

	port := 0
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	s.logger.Info("Streaming server running",
		slog.Int("port", port),
		slog.String("address", ln.Addr().String()),
		slog.Int("backlog", s.config.Server.Backlog),
	)

	conn, err := s.acceptOne(ctx, ln)
	if err != nil {
		return err
	}
	defer conn.Close()
	ln.Close()

	remote := conn.RemoteAddr().String()
	s.session.SetRemoteAddr(remote)
	s.metrics.RecordClientAccepted()
	s.advance(stream.StateAccepted)

	s.logger.Info("User connected", slog.String("remote_addr", remote))

	// A blocked write must not outlive cancellation.
	stopConn := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopConn()

	s.advance(stream.StateStreaming)

	pumpConfig := stream.PumpConfig{
		ChunkSize:   s.config.Stream.ChunkSize,
		PacingDelay: s.config.Stream.GetPacingDelay(),
	}
	result, err := stream.Pump(ctx, conn, src, pumpConfig, func(size int, writeDuration time.Duration) {
		s.session.RecordChunk(size)
		s.metrics.RecordChunkSent(size, writeDuration.Seconds())
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return s.fail("cancelled", err)
		case errors.Is(err, ErrWrite):
			return s.fail("write", err)
		case errors.Is(err, ErrRead):
			return s.fail("read", err)
		default:
			return s.fail("stream", err)
		}
	}

	if err := conn.Close(); err != nil {
		s.logger.Warn("Error closing client connection", slog.String("error", err.Error()))
	}

	s.advance(stream.StateDone)

	info := s.session.Info()
	s.metrics.RecordStreamCompleted(info.Duration.Seconds())

	s.logger.Info("Song finished",
		slog.String("remote_addr", remote),
		slog.Int64("bytes_sent", result.Bytes),
		slog.Int("chunks_sent", result.Chunks),
		slog.Duration("duration", info.Duration),
	)

	return nil
}

// acceptOne waits for the single client. Cancelling ctx closes ln to unblock Accept.
func (s *StreamServer) acceptOne(ctx context.Context, ln net.Listener) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s.fail("cancelled", fmt.Errorf("accept cancelled: %w", ctxErr))
		}
		return nil, s.fail("accept", fmt.Errorf("%w: %w", ErrAccept, err))
	}

	return conn, nil
}

// Session returns the run's session
func (s *StreamServer) Session() *stream.Session {
	return s.session
}

// Ready is closed once the listener is bound
func (s *StreamServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or nil before Ready
func (s *StreamServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.addr
}

func (s *StreamServer) setListening(addr net.Addr) {
	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()

	s.session.SetListenAddr(addr.String())
	s.advance(stream.StateListening)
	s.readyOnce.Do(func() { close(s.ready) })
}

// advance moves the session forward and mirrors the state into metrics
func (s *StreamServer) advance(next stream.State) {
	if err := s.session.Advance(next); err != nil {
		s.logger.Warn("Unexpected session transition", slog.String("error", err.Error()))
		return
	}

	s.metrics.SetSessionState(int(next))
	s.logger.Debug("Session state changed", slog.String("state", next.String()))
}

// fail records a fatal error for stage and returns it unchanged
func (s *StreamServer) fail(stage string, err error) error {
	s.session.Fail(err)
	s.metrics.SetSessionState(int(stream.StateFailed))
	s.metrics.RecordStreamError(stage)

	s.logger.Error("Stream failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)

	return err
}
