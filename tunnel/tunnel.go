// Package tunnel reaches the game server through an SSH login host
// when the server is only routable from inside its own network.
package tunnel

import (
	"context"
	"net"
)

// Tunnel is an encrypted channel through which TCP connections to the
// game server are forwarded.
type Tunnel interface {
	Connect(ctx context.Context) error
	Dial(ctx context.Context, network, address string) (net.Conn, error)
	Close() error
	IsAlive() bool
}
