package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/skypro1111/wav-stream-service/internal/audiotest"
)

// chunkRecorder keeps every Write call separately with its start time
type chunkRecorder struct {
	chunks [][]byte
	times  []time.Time
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	r.times = append(r.times, time.Now())
	r.chunks = append(r.chunks, append([]byte(nil), p...))
	return len(p), nil
}

type failingWriter struct {
	after int
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls > w.after {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, errors.New("input/output error") }

func TestPumpChunking(t *testing.T) {
	tests := []struct {
		name       string
		payload    int
		chunkSize  int
		wantChunks int
	}{
		{name: "empty payload", payload: 0, chunkSize: 4096, wantChunks: 0},
		{name: "single short chunk", payload: 11, chunkSize: 4096, wantChunks: 1},
		{name: "exact multiple", payload: 8192, chunkSize: 4096, wantChunks: 2},
		{name: "remainder", payload: 10000, chunkSize: 4096, wantChunks: 3},
		{name: "one byte chunks", payload: 5, chunkSize: 1, wantChunks: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := audiotest.Pattern(tt.payload)
			rec := &chunkRecorder{}

			observed := 0
			result, err := Pump(context.Background(), rec, bytes.NewReader(payload),
				PumpConfig{ChunkSize: tt.chunkSize},
				func(size int, _ time.Duration) { observed++ })
			if err != nil {
				t.Fatalf("Pump failed: %v", err)
			}

			if len(rec.chunks) != tt.wantChunks || result.Chunks != tt.wantChunks || observed != tt.wantChunks {
				t.Fatalf("Expected %d chunks, got writes=%d result=%d observed=%d",
					tt.wantChunks, len(rec.chunks), result.Chunks, observed)
			}
			if result.Bytes != int64(tt.payload) {
				t.Errorf("Expected %d bytes, got %d", tt.payload, result.Bytes)
			}

			var joined []byte
			for i, c := range rec.chunks {
				if i < len(rec.chunks)-1 && len(c) != tt.chunkSize {
					t.Errorf("Chunk %d has %d bytes, expected %d", i, len(c), tt.chunkSize)
				}
				joined = append(joined, c...)
			}
			if !bytes.Equal(joined, payload) {
				t.Error("Concatenated chunks do not reproduce the payload")
			}
		})
	}
}

func TestPumpPacing(t *testing.T) {
	const delay = 20 * time.Millisecond
	rec := &chunkRecorder{}

	_, err := Pump(context.Background(), rec, bytes.NewReader(audiotest.Pattern(3*64)),
		PumpConfig{ChunkSize: 64, PacingDelay: delay}, nil)
	if err != nil {
		t.Fatalf("Pump failed: %v", err)
	}

	if len(rec.times) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(rec.times))
	}
	for i := 1; i < len(rec.times); i++ {
		if gap := rec.times[i].Sub(rec.times[i-1]); gap < delay {
			t.Errorf("Gap between chunk %d and %d was %v, expected at least %v", i-1, i, gap, delay)
		}
	}
}

func TestPumpWriteError(t *testing.T) {
	w := &failingWriter{after: 1}

	result, err := Pump(context.Background(), w, bytes.NewReader(audiotest.Pattern(300)),
		PumpConfig{ChunkSize: 100}, nil)
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Expected ErrWrite, got %v", err)
	}
	if result.Chunks != 1 || result.Bytes != 100 {
		t.Errorf("Expected 1 chunk delivered before failure, got %+v", result)
	}
}

func TestPumpShortWrite(t *testing.T) {
	_, err := Pump(context.Background(), shortWriter{}, bytes.NewReader(audiotest.Pattern(10)),
		PumpConfig{ChunkSize: 10}, nil)
	if !errors.Is(err, ErrWrite) || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("Expected ErrWrite wrapping io.ErrShortWrite, got %v", err)
	}
}

func TestPumpReadError(t *testing.T) {
	_, err := Pump(context.Background(), io.Discard, failingReader{}, PumpConfig{ChunkSize: 10}, nil)
	if !errors.Is(err, ErrRead) {
		t.Fatalf("Expected ErrRead, got %v", err)
	}
}

func TestPumpCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &chunkRecorder{}

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	result, err := Pump(ctx, rec, bytes.NewReader(audiotest.Pattern(1000)),
		PumpConfig{ChunkSize: 10, PacingDelay: time.Second}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result.Chunks != 1 {
		t.Errorf("Expected the first chunk only, got %d", result.Chunks)
	}
}

func TestPumpInvalidChunkSize(t *testing.T) {
	if _, err := Pump(context.Background(), io.Discard, bytes.NewReader(nil), PumpConfig{}, nil); err == nil {
		t.Error("Expected error for zero chunk size")
	}
}
