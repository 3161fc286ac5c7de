//go:build linux

package server

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/skypro1111/wav-stream-service/internal/config"
)

// Listen creates an IPv4 TCP listener with the configured backlog. The socket
// is built by hand because the net package always uses the system maximum
// backlog.
func Listen(_ context.Context, cfg config.ServerConfig) (net.Listener, error) {
	ip := net.ParseIP(cfg.BindAddress).To4()
	if ip == nil {
		return nil, fmt.Errorf("%w: bind address %q is not IPv4", ErrListen, cfg.BindAddress)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %w", ErrListen, err)
	}

	if cfg.ReuseAddress {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: setsockopt SO_REUSEADDR: %w", ErrListen, err)
		}
	}

	sa := &unix.SockaddrInet4{Port: cfg.Port}
	copy(sa.Addr[:], ip)

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: bind %s: %w", ErrListen, cfg.Address(), err)
	}

	if err := unix.Listen(fd, cfg.Backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: listen %s: %w", ErrListen, cfg.Address(), err)
	}

	// FileListener duplicates the descriptor, so the file is closed either way.
	f := os.NewFile(uintptr(fd), "tcp:"+cfg.Address())
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListen, err)
	}

	return ln, nil
}
