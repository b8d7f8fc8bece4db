package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the QUARTOC_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// EnvConfigPath returns QUARTOC_CONFIG, which has to be known before
// the config file is read.
func EnvConfigPath() string {
	return os.Getenv("QUARTOC_CONFIG")
}

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it after the config file
// has been applied and before CLI flags.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("QUARTOC_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("QUARTOC_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("QUARTOC_GAME_ID"); v != "" {
		cfg.GameID = v
	}
	if v := envInt("QUARTOC_PLAYER"); v > 0 {
		cfg.Player = v
	}
	if v := EnvConfigPath(); v != "" {
		cfg.ConfigPath = v
	}

	// SSH tunnel
	if v := os.Getenv("QUARTOC_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("QUARTOC_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("QUARTOC_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}

	// Output
	if v := envInt("QUARTOC_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
