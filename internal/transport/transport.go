// Package transport opens the TCP connection to the game server,
// either directly or through an SSH login host, optionally retrying
// the dial.  What happens on the connection is the session's concern.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections to the game server.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources such as an SSH client.
	// Stateless dialers return nil.
	Close() error
}
