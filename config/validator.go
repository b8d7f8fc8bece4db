package config

import (
	ncerr "quartoc/internal/errors"
	"quartoc/util"
)

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is complete and internally
// consistent.  Every failure is a *errors.ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.GameID == "":
		return &ncerr.ConfigError{
			Field:   "game-id",
			Message: "required",
			Hint:    "pass the id of the game created on the server with -g",
		}
	case len(c.GameID) != GameIDLength:
		return &ncerr.ConfigError{
			Field:   "game-id",
			Value:   c.GameID,
			Message: "must be exactly 13 characters",
			Hint:    "copy the id from the game server web page",
		}
	}

	if c.Player < 0 {
		return &ncerr.ConfigError{
			Field:   "player",
			Value:   c.Player,
			Message: "must be a positive number",
			Hint:    "players are numbered from 1; omit -p to let the server choose",
		}
	}

	if err := util.ValidateHost(c.Host); err != nil {
		return &ncerr.ConfigError{Field: "host", Value: c.Host, Message: err.Error()}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ncerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
		}
	}
	if c.GameKind != DefaultGameKind {
		return &ncerr.ConfigError{
			Field:   "game",
			Value:   c.GameKind,
			Message: "unsupported game kind",
			Hint:    "set game = " + DefaultGameKind + " in " + c.ConfigPath,
		}
	}

	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.Retries < 1 || c.Retries > MaxRetries {
		return &ncerr.ConfigError{
			Field:   "retries",
			Value:   c.Retries,
			Message: "must be between 1 and 10",
			Hint:    "1 dials once without retrying",
		}
	}

	if c.TunnelEnabled {
		if c.TunnelHost == "" {
			return &ncerr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "tunnel host is required",
				Hint:    "use -T user@gateway[:port]",
			}
		}
	} else if c.SSHKeyPath != "" || c.SSHPassword || c.UseSSHAgent {
		return &ncerr.ConfigError{
			Field:   "tunnel",
			Message: "SSH options require a tunnel",
			Hint:    "add -T user@gateway",
		}
	}
	return nil
}
