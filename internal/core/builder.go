package core

import (
	"io"

	"github.com/google/uuid"

	"quartoc/config"
	"quartoc/internal/engine"
	"quartoc/internal/metrics"
	"quartoc/internal/retry"
	"quartoc/internal/session"
	"quartoc/internal/transport"
	"quartoc/tunnel"
	"quartoc/util"
)

// Build assembles a PlayMode from the configuration.  Every run gets a
// fresh session ID that tags the log lines and the metrics snapshot.
// stats receives the snapshot when cfg.Stats is set.
func Build(cfg *config.Config, logger *util.Logger, stats io.Writer) *PlayMode {
	id := uuid.NewString()
	logger.SetTag(id[:8])

	m := &PlayMode{
		Dialer:  buildDialer(cfg, logger),
		Address: cfg.Address(),
		Session: session.Options{
			GameID:        cfg.GameID,
			Player:        cfg.WirePlayer(),
			GameKind:      cfg.GameKind,
			ClientVersion: config.ClientVersion,
			ServerMajor:   config.ServerMajor,
		},
		Decider:     engine.New(nil),
		MaxLineSize: config.MaxMessageSize,
		Logger:      logger,
		Metrics:     metrics.New(id),
	}
	if cfg.Stats {
		m.Stats = stats
	}
	return m
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
// With more than one attempt configured the dialer is wrapped in a
// RetryDialer.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	var d transport.Dialer
	if cfg.TunnelEnabled {
		d = transport.NewSSHDialer(&tunnel.Config{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	} else {
		d = &transport.TCPDialer{Timeout: cfg.Timeout}
	}

	if cfg.Retries <= 1 {
		return d
	}
	return &transport.RetryDialer{
		Dialer:  d,
		Backoff: retry.ForDial(cfg.Retries),
		Logger:  logger,
	}
}
