package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag
const wavFormatPCM = 1

// WAVSink writes raw little-endian 16-bit PCM bytes into a WAV container.
// Only whole frames are encoded; a trailing partial frame is carried over to
// the next Write and dropped on Close.
type WAVSink struct {
	encoder    *wav.Encoder
	format     *goaudio.Format
	frameBytes int
	carry      []byte

	framesWritten int
	bytesDropped  int
}

// NewWAVSink creates a sink that encodes into w, which must be seekable so
// the header sizes can be patched on Close.
func NewWAVSink(w io.WriteSeeker, sampleRate, channels int) (*WAVSink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	return &WAVSink{
		encoder: wav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM),
		format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		frameBytes: channels * 2,
	}, nil
}

// Write encodes the whole frames contained in carry+p
func (s *WAVSink) Write(p []byte) (int, error) {
	data := p
	if len(s.carry) > 0 {
		data = append(s.carry, p...)
	}

	usable := len(data) - len(data)%s.frameBytes
	if usable > 0 {
		samples := make([]int, usable/2)
		for i := range samples {
			samples[i] = int(int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2])))
		}

		buf := &goaudio.IntBuffer{
			Format:         s.format,
			Data:           samples,
			SourceBitDepth: 16,
		}
		if err := s.encoder.Write(buf); err != nil {
			return 0, fmt.Errorf("failed to encode PCM frames: %w", err)
		}
		s.framesWritten += usable / s.frameBytes
	}

	s.carry = append(s.carry[:0], data[usable:]...)

	return len(p), nil
}

// FramesWritten returns the number of complete frames encoded so far
func (s *WAVSink) FramesWritten() int {
	return s.framesWritten
}

// BytesDropped returns the size of the partial frame discarded by Close
func (s *WAVSink) BytesDropped() int {
	return s.bytesDropped
}

// Close finalizes the WAV header. The underlying writer is not closed.
func (s *WAVSink) Close() error {
	s.bytesDropped = len(s.carry)
	s.carry = nil

	// The encoder emits its header on the first Write; an empty stream
	// still needs one.
	if s.framesWritten == 0 {
		empty := &goaudio.IntBuffer{Format: s.format, Data: []int{}, SourceBitDepth: 16}
		if err := s.encoder.Write(empty); err != nil {
			return fmt.Errorf("failed to write WAV header: %w", err)
		}
	}

	if err := s.encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return nil
}
