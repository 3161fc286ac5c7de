package server

import (
	"errors"

	"github.com/skypro1111/wav-stream-service/internal/stream"
)

// Each fallible step of a run wraps its cause with one of these, so callers
// can tell failures apart with errors.Is.
var (
	ErrOpenSource = errors.New("open source failed")
	ErrListen     = errors.New("listen failed")
	ErrAccept     = errors.New("accept failed")
	ErrRead       = stream.ErrRead
	ErrWrite      = stream.ErrWrite
)
