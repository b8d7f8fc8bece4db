package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"quartoc/tunnel"
	"quartoc/util"
)

// SSHDialer reaches the game server through an SSH login host.  The
// SSH connection is made on the first Dial and closed by Close.
type SSHDialer struct {
	tunnel tunnel.Tunnel
	cfg    *tunnel.Config
	logger *util.Logger

	mu        sync.Mutex
	connected bool
}

// NewSSHDialer returns a dialer for the login host described by cfg.
func NewSSHDialer(cfg *tunnel.Config, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		tunnel: tunnel.NewBastion(cfg, logger),
		cfg:    cfg,
		logger: logger,
	}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected && d.tunnel.IsAlive() {
		return nil
	}

	d.logger.Verbose("opening SSH tunnel via %s@%s", d.cfg.User, d.cfg.Addr())
	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	d.connected = true
	d.logger.Verbose("SSH tunnel up")
	return nil
}

// Dial forwards a connection to address through the login host.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	conn, err := d.tunnel.Dial(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return withDeadlines(conn), nil
}

// Close tears down the SSH connection.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	d.connected = false
	return d.tunnel.Close()
}

// pipeConn relays a forwarded SSH channel through net.Pipe.  SSH
// channels reject read deadlines, which the line channel needs to stop
// watching for unsolicited server data.
type pipeConn struct {
	net.Conn
	remote net.Conn
}

func withDeadlines(remote net.Conn) net.Conn {
	local, far := net.Pipe()
	go func() {
		io.Copy(far, remote) //nolint:errcheck
		far.Close()
	}()
	go func() {
		io.Copy(remote, far) //nolint:errcheck
		remote.Close()
	}()
	return &pipeConn{Conn: local, remote: remote}
}

func (p *pipeConn) LocalAddr() net.Addr  { return p.remote.LocalAddr() }
func (p *pipeConn) RemoteAddr() net.Addr { return p.remote.RemoteAddr() }

func (p *pipeConn) Close() error {
	err := p.remote.Close()
	p.Conn.Close()
	return err
}
