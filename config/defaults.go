package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultHost is the course game server.
	DefaultHost = "sysprak.priv.lab.nm.ifi.lmu.de"

	// DefaultPort is the game server's TCP port.
	DefaultPort = 1357

	// DefaultGameKind is the only game this client speaks.
	DefaultGameKind = "Quarto"

	// DefaultConfigPath is read when -c is not given.
	DefaultConfigPath = "client.conf"

	// GameIDLength is the exact length of a game id.
	GameIDLength = 13

	// MaxMessageSize is the framing limit for one protocol line.
	MaxMessageSize = 256

	// MaxConfigFileSize bounds the config file.
	MaxConfigFileSize = 1024

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// ClientVersion is sent in the VERSION command.
	ClientVersion = "2.0"

	// ServerMajor is the only server major version accepted.
	ServerMajor = "2"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultRetries is the number of dial attempts; 1 means no retry.
	DefaultRetries = 1

	// MaxRetries caps --retries.
	MaxRetries = 10

	// DefaultVerbose shows info and warnings.
	DefaultVerbose = 1
)
