package stream

import (
	"errors"
	"sync"
	"testing"
)

func TestNewSession(t *testing.T) {
	s := NewSession("/tmp/song.wav")

	if s.ID == "" {
		t.Error("Expected session ID to be set")
	}
	if s.State() != StateIdle {
		t.Errorf("Expected idle state, got %s", s.State())
	}
	if NewSession("/tmp/song.wav").ID == s.ID {
		t.Error("Expected unique session IDs")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("/tmp/song.wav")

	steps := []State{StateFileOpen, StateListening, StateAccepted, StateStreaming, StateDone}
	for _, next := range steps {
		if err := s.Advance(next); err != nil {
			t.Fatalf("Advance to %s failed: %v", next, err)
		}
		if s.State() != next {
			t.Fatalf("Expected state %s, got %s", next, s.State())
		}
	}

	info := s.Info()
	if info.State != "done" {
		t.Errorf("Expected state 'done', got %s", info.State)
	}
	if info.StartTime == nil || info.FinishTime == nil {
		t.Error("Expected start and finish times to be set")
	}
	if info.Progress != 1 {
		t.Errorf("Expected progress 1 for an empty completed payload, got %f", info.Progress)
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []State
		next  State
	}{
		{name: "skip a state", setup: nil, next: StateListening},
		{name: "backwards", setup: []State{StateFileOpen, StateListening}, next: StateFileOpen},
		{name: "repeat", setup: []State{StateFileOpen}, next: StateFileOpen},
		{name: "failed via advance", setup: nil, next: StateFailed},
		{name: "after done", setup: []State{StateFileOpen, StateListening, StateAccepted, StateStreaming, StateDone}, next: StateDone + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("song.wav")
			for _, st := range tt.setup {
				if err := s.Advance(st); err != nil {
					t.Fatalf("Setup advance to %s failed: %v", st, err)
				}
			}

			if err := s.Advance(tt.next); err == nil {
				t.Errorf("Expected transition to %s to fail", tt.next)
			}
		})
	}
}

func TestSessionFail(t *testing.T) {
	s := NewSession("song.wav")
	s.Advance(StateFileOpen)
	s.Fail(errors.New("bind: address already in use"))

	if s.State() != StateFailed {
		t.Fatalf("Expected failed state, got %s", s.State())
	}
	if s.Info().LastError != "bind: address already in use" {
		t.Errorf("Unexpected last error: %q", s.Info().LastError)
	}

	// Terminal states ignore later failures
	s.Fail(errors.New("second"))
	if s.Info().LastError != "bind: address already in use" {
		t.Errorf("Fail overwrote terminal error: %q", s.Info().LastError)
	}
	if err := s.Advance(StateListening); err == nil {
		t.Error("Expected advance from failed state to be rejected")
	}
}

func TestSessionRecordChunk(t *testing.T) {
	s := NewSession("song.wav")
	s.SetPayloadSize(8192)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordChunk(4096)
			_ = s.Info()
		}()
	}
	wg.Wait()

	info := s.Info()
	if info.BytesSent != 8192 || info.ChunksSent != 2 {
		t.Errorf("Expected 8192 bytes in 2 chunks, got %d in %d", info.BytesSent, info.ChunksSent)
	}
	if info.Progress != 1 {
		t.Errorf("Expected progress 1, got %f", info.Progress)
	}
}

func TestStateString(t *testing.T) {
	if StateAccepted.String() != "accepted" {
		t.Errorf("Expected 'accepted', got %s", StateAccepted)
	}
	if State(42).String() != "unknown(42)" {
		t.Errorf("Expected 'unknown(42)', got %s", State(42))
	}
}
