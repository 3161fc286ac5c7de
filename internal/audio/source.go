package audio

import (
	"fmt"
	"io"
	"os"
)

// DefaultHeaderSize is the canonical size of a minimal PCM WAV header.
const DefaultHeaderSize = 44

// Source is a read-only file positioned past its header. The header bytes are
// never inspected.
type Source struct {
	file        *os.File
	path        string
	headerSize  int64
	payloadSize int64
}

// OpenSource opens path for reading and seeks to headerSize. Files shorter
// than the header produce an empty payload rather than an error.
func OpenSource(path string, headerSize int) (*Source, error) {
	if headerSize < 0 {
		return nil, fmt.Errorf("header size cannot be negative, got %d", headerSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if _, err := file.Seek(int64(headerSize), io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to skip %d header bytes of %s: %w", headerSize, path, err)
	}

	return &Source{
		file:        file,
		path:        path,
		headerSize:  int64(headerSize),
		payloadSize: max(info.Size()-int64(headerSize), 0),
	}, nil
}

// Read reads the next bytes of the payload. It returns io.EOF once the file
// is exhausted.
func (s *Source) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

// Path returns the file path
func (s *Source) Path() string {
	return s.path
}

// HeaderSize returns the number of bytes skipped at the start of the file
func (s *Source) HeaderSize() int64 {
	return s.headerSize
}

// PayloadSize returns the payload length observed when the file was opened
func (s *Source) PayloadSize() int64 {
	return s.payloadSize
}

// Close releases the file handle
func (s *Source) Close() error {
	return s.file.Close()
}
