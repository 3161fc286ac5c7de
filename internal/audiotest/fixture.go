// Package audiotest provides WAV fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteRawFile writes header followed by payload to a new file in t.TempDir
// and returns its path.
func WriteRawFile(t testing.TB, name string, header, payload []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, 0, len(header)+len(payload))
	data = append(data, header...)
	data = append(data, payload...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}

	return path
}

// WriteSineWAV encodes a 16-bit PCM sine wave with go-audio/wav and returns
// the file path.
func WriteSineWAV(t testing.TB, name string, sampleRate, channels, frames int, frequency float64) string {
	t.Helper()

	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(16383 * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}

	return WriteWAV(t, name, sampleRate, channels, samples)
}

// WriteWAV encodes interleaved 16-bit samples into a WAV file
func WriteWAV(t testing.TB, name string, sampleRate, channels int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize fixture: %v", err)
	}

	return path
}

// Pattern returns n bytes of a repeating, position-dependent pattern so that
// reordering or gaps are detectable.
func Pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte((i*7 + i/251) % 256)
	}
	return p
}

// Header returns a placeholder header of the given size
func Header(size int) []byte {
	h := make([]byte, size)
	copy(h, "RIFF")
	return h
}
