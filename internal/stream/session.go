package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a step of the single-shot streaming lifecycle
type State int

const (
	StateIdle State = iota
	StateFileOpen
	StateListening
	StateAccepted
	StateStreaming
	StateDone
	StateFailed
)

// String returns the state name used in logs and the monitoring API
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileOpen:
		return "file_open"
	case StateListening:
		return "listening"
	case StateAccepted:
		return "accepted"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Session tracks one server run: the source file, the single client and the
// bytes delivered to it. Transitions only move forward one step at a time;
// any non-terminal state may move to StateFailed.
type Session struct {
	ID          string
	Path        string
	CreatedTime time.Time

	state       State
	payloadSize int64
	listenAddr  string
	remoteAddr  string
	startTime   time.Time
	finishTime  time.Time

	bytesSent  uint64
	chunksSent uint64
	lastError  string

	mu sync.RWMutex
}

// SessionInfo is a point-in-time snapshot of a session for logs and APIs
type SessionInfo struct {
	ID          string        `json:"id"`
	State       string        `json:"state"`
	Path        string        `json:"path"`
	PayloadSize int64         `json:"payload_size_bytes"`
	ListenAddr  string        `json:"listen_address,omitempty"`
	RemoteAddr  string        `json:"remote_address,omitempty"`
	CreatedTime time.Time     `json:"created_time"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	FinishTime  *time.Time    `json:"finish_time,omitempty"`
	Duration    time.Duration `json:"duration"`
	BytesSent   uint64        `json:"bytes_sent"`
	ChunksSent  uint64        `json:"chunks_sent"`
	Progress    float64       `json:"progress"`
	LastError   string        `json:"last_error,omitempty"`
}

// NewSession creates an idle session for the given source path
func NewSession(path string) *Session {
	return &Session{
		ID:          uuid.New().String(),
		Path:        path,
		CreatedTime: time.Now(),
		state:       StateIdle,
	}
}

// Advance moves the session to next, which must directly follow the current state
func (s *Session) Advance(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return fmt.Errorf("session %s already %s", s.ID, s.state)
	}

	if next == StateFailed || next != s.state+1 {
		return fmt.Errorf("invalid transition %s -> %s", s.state, next)
	}

	s.state = next

	switch next {
	case StateStreaming:
		s.startTime = time.Now()
	case StateDone:
		s.finishTime = time.Now()
	}

	return nil
}

// Fail moves the session to StateFailed and records err. It is a no-op once
// the session is terminal.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}

	s.state = StateFailed
	s.finishTime = time.Now()
	if err != nil {
		s.lastError = err.Error()
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// SetPayloadSize records the number of bytes expected after the header
func (s *Session) SetPayloadSize(n int64) {
	s.mu.Lock()
	s.payloadSize = n
	s.mu.Unlock()
}

// SetListenAddr records the bound listener address
func (s *Session) SetListenAddr(addr string) {
	s.mu.Lock()
	s.listenAddr = addr
	s.mu.Unlock()
}

// SetRemoteAddr records the accepted client address
func (s *Session) SetRemoteAddr(addr string) {
	s.mu.Lock()
	s.remoteAddr = addr
	s.mu.Unlock()
}

// RecordChunk accounts for one chunk written to the client
func (s *Session) RecordChunk(size int) {
	s.mu.Lock()
	s.bytesSent += uint64(size)
	s.chunksSent++
	s.mu.Unlock()
}

// Info returns a snapshot of the session
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := SessionInfo{
		ID:          s.ID,
		State:       s.state.String(),
		Path:        s.Path,
		PayloadSize: s.payloadSize,
		ListenAddr:  s.listenAddr,
		RemoteAddr:  s.remoteAddr,
		CreatedTime: s.CreatedTime,
		BytesSent:   s.bytesSent,
		ChunksSent:  s.chunksSent,
		LastError:   s.lastError,
	}

	if !s.startTime.IsZero() {
		start := s.startTime
		info.StartTime = &start

		end := time.Now()
		if !s.finishTime.IsZero() {
			end = s.finishTime
		}
		info.Duration = end.Sub(start)
	}

	if !s.finishTime.IsZero() {
		finish := s.finishTime
		info.FinishTime = &finish
	}

	if s.payloadSize > 0 {
		info.Progress = float64(s.bytesSent) / float64(s.payloadSize)
	} else if s.state == StateDone {
		info.Progress = 1
	}

	return info
}
