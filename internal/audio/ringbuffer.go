package audio

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrBufferClosed is returned by writes after the ring buffer was closed
var ErrBufferClosed = errors.New("ring buffer closed")

// RingBuffer is a bounded byte FIFO shared by one producer and one consumer.
// Write blocks while the buffer is full and Read blocks while it is empty.
type RingBuffer struct {
	data     []byte
	readPos  int
	writePos int
	count    int

	// Lifecycle flags
	writeClosed bool // producer finished; readers drain then see io.EOF
	closed      bool // aborted; both sides return immediately

	// Statistics
	totalWritten uint64
	totalRead    uint64
	highWater    int
	lastUpdate   time.Time

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
}

// BufferStats represents ring buffer statistics for monitoring
type BufferStats struct {
	Capacity     int    `json:"capacity_bytes"`
	Buffered     int    `json:"buffered_bytes"`
	HighWater    int    `json:"high_water_bytes"`
	TotalWritten uint64 `json:"total_written_bytes"`
	TotalRead    uint64 `json:"total_read_bytes"`
}

// NewRingBuffer creates a ring buffer holding up to capacity bytes
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}

	rb := &RingBuffer{
		data:       make([]byte, capacity),
		lastUpdate: time.Now(),
	}
	rb.notEmpty = sync.NewCond(&rb.mu)
	rb.notFull = sync.NewCond(&rb.mu)

	return rb
}

// Write copies p into the buffer, waiting for room as needed. Writes larger
// than the capacity are stored in several steps.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for written < len(p) {
		for rb.count == len(rb.data) && !rb.closed && !rb.writeClosed {
			rb.notFull.Wait()
		}
		if rb.closed || rb.writeClosed {
			return written, ErrBufferClosed
		}

		n := rb.put(p[written:])
		written += n

		rb.totalWritten += uint64(n)
		rb.highWater = max(rb.highWater, rb.count)
		rb.lastUpdate = time.Now()

		rb.notEmpty.Signal()
	}

	return written, nil
}

// Read copies buffered bytes into p, waiting until at least one byte is
// available. After CloseWrite it drains the remaining bytes and then returns
// io.EOF.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed && !rb.writeClosed {
		rb.notEmpty.Wait()
	}
	if rb.closed {
		return 0, ErrBufferClosed
	}
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := rb.take(p)
	rb.totalRead += uint64(n)
	rb.lastUpdate = time.Now()

	rb.notFull.Signal()

	return n, nil
}

// put stores as much of p as fits; caller holds the lock
func (rb *RingBuffer) put(p []byte) int {
	n := min(len(p), len(rb.data)-rb.count)
	for i := 0; i < n; {
		end := len(rb.data)
		if rb.writePos < rb.readPos || (rb.writePos == rb.readPos && rb.count > 0) {
			end = rb.readPos
		}
		c := copy(rb.data[rb.writePos:end], p[i:n])
		i += c
		rb.writePos = (rb.writePos + c) % len(rb.data)
		rb.count += c
	}
	return n
}

// take removes up to len(p) bytes; caller holds the lock
func (rb *RingBuffer) take(p []byte) int {
	n := min(len(p), rb.count)
	for i := 0; i < n; {
		end := len(rb.data)
		if rb.readPos < rb.writePos {
			end = rb.writePos
		}
		c := copy(p[i:n], rb.data[rb.readPos:end])
		i += c
		rb.readPos = (rb.readPos + c) % len(rb.data)
		rb.count -= c
	}
	return n
}

// CloseWrite marks the end of the stream. Pending bytes remain readable.
func (rb *RingBuffer) CloseWrite() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.writeClosed = true
	rb.notEmpty.Broadcast()
	rb.notFull.Broadcast()
}

// Close aborts the buffer, discarding pending bytes and waking both sides
func (rb *RingBuffer) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.closed = true
	rb.count = 0
	rb.notEmpty.Broadcast()
	rb.notFull.Broadcast()

	return nil
}

// Len returns the number of buffered bytes
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.count
}

// Cap returns the buffer capacity in bytes
func (rb *RingBuffer) Cap() int {
	return len(rb.data)
}

// GetStats returns buffer statistics
func (rb *RingBuffer) GetStats() BufferStats {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return BufferStats{
		Capacity:     len(rb.data),
		Buffered:     rb.count,
		HighWater:    rb.highWater,
		TotalWritten: rb.totalWritten,
		TotalRead:    rb.totalRead,
	}
}

// GetLastUpdate returns the time of the last read or write
func (rb *RingBuffer) GetLastUpdate() time.Time {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.lastUpdate
}
