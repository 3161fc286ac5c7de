//go:build !linux

package server

import (
	"context"
	"fmt"
	"net"

	"github.com/skypro1111/wav-stream-service/internal/config"
)

// Listen creates an IPv4 TCP listener. Outside Linux the net package enables
// address reuse on its own and the backlog is left to the system.
func Listen(ctx context.Context, cfg config.ServerConfig) (net.Listener, error) {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp4", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListen, err)
	}

	return ln, nil
}
