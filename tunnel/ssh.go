package tunnel

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "quartoc/internal/errors"
	"quartoc/util"
)

// Config describes the SSH login host in front of the game server.
type Config struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns host:port of the login host.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Bastion implements [Tunnel] over a single ssh.Client.  Every game
// connection is a direct-tcpip channel on that client.
type Bastion struct {
	cfg    *Config
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// NewBastion returns a Bastion ready to [Bastion.Connect].
func NewBastion(cfg *Config, logger *util.Logger) *Bastion {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &Bastion{cfg: cfg, logger: logger}
}

// Connect authenticates to the login host.
func (b *Bastion) Connect(ctx context.Context) error {
	auth, err := BuildAuthMethods(b.cfg)
	if err != nil {
		return ncerr.WrapSSH("auth", b.cfg.Host, b.cfg.Port, err)
	}
	hostKey, err := hostKeyCallback(b.cfg)
	if err != nil {
		return ncerr.WrapSSH("hostkey", b.cfg.Host, b.cfg.Port, err)
	}

	addr := b.cfg.Addr()
	b.logger.Debug("ssh: dialing %s as %s", addr, b.cfg.User)

	d := net.Dialer{Timeout: b.cfg.ConnTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ncerr.Wrap("dial", addr, err)
	}

	// The handshake has no context parameter; bound it with a deadline.
	if dl, ok := ctx.Deadline(); ok {
		raw.SetDeadline(dl) //nolint:errcheck
	} else {
		raw.SetDeadline(time.Now().Add(b.cfg.ConnTimeout)) //nolint:errcheck
	}
	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, &ssh.ClientConfig{
		User:            b.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         b.cfg.ConnTimeout,
	})
	if err != nil {
		raw.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			err = fmt.Errorf("%w: %v", ncerr.ErrAuthFailed, err)
		}
		return ncerr.WrapSSH("handshake", b.cfg.Host, b.cfg.Port, err)
	}
	raw.SetDeadline(time.Time{}) //nolint:errcheck

	client := ssh.NewClient(conn, chans, reqs)
	b.mu.Lock()
	b.client, b.alive = client, true
	b.mu.Unlock()

	go b.watch(client)
	return nil
}

// Dial opens a forwarded connection to address.
func (b *Bastion) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	b.mu.RLock()
	client, alive := b.client, b.alive
	b.mu.RUnlock()
	switch {
	case client == nil:
		return nil, ncerr.ErrNotConnected
	case !alive:
		return nil, ncerr.ErrTunnelClosed
	}

	b.logger.Debug("ssh: forwarding %s %s", network, address)

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := client.Dial(network, address)
		ch <- result{c, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, ncerr.Wrap("dial", address, fmt.Errorf("via %s: %w", b.cfg.Addr(), r.err))
		}
		return r.conn, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ncerr.Wrap("dial", address, ctx.Err())
	}
}

// Close disconnects from the login host.
func (b *Bastion) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alive = false
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// IsAlive reports whether the SSH connection is still up.
func (b *Bastion) IsAlive() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.alive
}

func (b *Bastion) watch(client *ssh.Client) {
	err := client.Wait()
	b.mu.Lock()
	if b.client == client {
		b.alive = false
	}
	b.mu.Unlock()
	if err != nil {
		b.logger.Debug("ssh: connection closed: %v", err)
	}
}
