// Package config defines the runtime configuration for quartoc and
// provides helpers for parsing tunnel specifications and the key=value
// config file.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"quartoc/util"
)

// Config holds every tuneable for a single game.
type Config struct {
	// ── Game ─────────────────────────────────────────────────────────
	GameID     string
	Player     int    // -p: 1-based as shown to users; 0 lets the server choose
	GameKind   string // from the config file, must be DefaultGameKind
	ConfigPath string

	// ── Connection ───────────────────────────────────────────────────
	Host    string
	Port    int
	Timeout time.Duration
	Retries int // dial attempts; 1 disables retrying

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	Stats   bool
	DryRun  bool
}

// New returns a Config populated with the built-in defaults.
func New() *Config {
	return &Config{
		GameKind:   DefaultGameKind,
		ConfigPath: DefaultConfigPath,
		Host:       DefaultHost,
		Port:       DefaultPort,
		Timeout:    DefaultConnTimeout,
		Retries:    DefaultRetries,
		Verbose:    DefaultVerbose,
	}
}

// Address is the game server's host:port.
func (c *Config) Address() string {
	return util.FormatAddr(c.Host, c.Port)
}

// WirePlayer is the player number sent to the server: zero-based, or
// -1 when the user did not ask for one.
func (c *Config) WirePlayer() int {
	if c.Player <= 0 {
		return -1
	}
	return c.Player - 1
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "student@remote.cip.ifi.lmu.de:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec, if set, into the tunnel fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return err
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}
