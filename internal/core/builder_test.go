package core

import (
	"bytes"
	"io"
	"testing"
	"time"

	"quartoc/config"
	"quartoc/internal/transport"
	"quartoc/util"
)

func quiet() *util.Logger {
	l := util.NewLogger(0)
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.GameID = "0123456789abc"
	cfg.Host = "127.0.0.1"
	cfg.Port = 1357
	cfg.Timeout = 2 * time.Second
	return cfg
}

// TestBuild_Play verifies the session options Build derives from the
// configuration.
func TestBuild_Play(t *testing.T) {
	cfg := testConfig()
	cfg.Player = 2

	mode := Build(cfg, quiet(), nil)
	if mode.Address != "127.0.0.1:1357" {
		t.Errorf("Address = %q", mode.Address)
	}
	if mode.Session.GameID != "0123456789abc" {
		t.Errorf("GameID = %q", mode.Session.GameID)
	}
	if mode.Session.Player != 1 {
		t.Errorf("Player = %d, want 1 (zero-based)", mode.Session.Player)
	}
	if mode.Session.GameKind != "Quarto" || mode.Session.ClientVersion != "2.0" || mode.Session.ServerMajor != "2" {
		t.Errorf("Session = %+v", mode.Session)
	}
	if mode.MaxLineSize != config.MaxMessageSize {
		t.Errorf("MaxLineSize = %d", mode.MaxLineSize)
	}
	if mode.Decider == nil || mode.Metrics == nil {
		t.Error("decider and metrics must be set")
	}
	if mode.Stats != nil {
		t.Error("Stats should be nil without --stats")
	}
}

// TestBuild_NoPlayer verifies that an absent -p lets the server choose.
func TestBuild_NoPlayer(t *testing.T) {
	mode := Build(testConfig(), quiet(), nil)
	if mode.Session.Player != -1 {
		t.Errorf("Player = %d, want -1", mode.Session.Player)
	}
}

// TestBuild_Stats verifies --stats routes the snapshot to the writer.
func TestBuild_Stats(t *testing.T) {
	cfg := testConfig()
	cfg.Stats = true
	var buf bytes.Buffer
	if mode := Build(cfg, quiet(), &buf); mode.Stats != &buf {
		t.Errorf("Stats = %v", mode.Stats)
	}
}

// TestBuild_SessionIDTagsLogger verifies each run tags its log lines.
func TestBuild_SessionIDTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(1)
	logger.SetOutput(&buf)

	mode := Build(testConfig(), logger, nil)
	logger.Info("hello")

	id := mode.Metrics.Snapshot().SessionID
	if len(id) != 36 {
		t.Fatalf("session id %q is not a UUID", id)
	}
	if want := "[INF] " + id[:8] + " hello\n"; buf.String() != want {
		t.Errorf("log = %q, want %q", buf.String(), want)
	}
}

func TestBuildDialer(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		check  func(t *testing.T, d transport.Dialer)
	}{
		{"tcp", func(*config.Config) {}, func(t *testing.T, d transport.Dialer) {
			td, ok := d.(*transport.TCPDialer)
			if !ok {
				t.Fatalf("got %T, want *TCPDialer", d)
			}
			if td.Timeout != 2*time.Second {
				t.Errorf("Timeout = %s", td.Timeout)
			}
		}},
		{"retry", func(c *config.Config) { c.Retries = 3 }, func(t *testing.T, d transport.Dialer) {
			rd, ok := d.(*transport.RetryDialer)
			if !ok {
				t.Fatalf("got %T, want *RetryDialer", d)
			}
			if rd.Backoff.MaxAttempts != 3 {
				t.Errorf("MaxAttempts = %d", rd.Backoff.MaxAttempts)
			}
			if _, ok := rd.Dialer.(*transport.TCPDialer); !ok {
				t.Errorf("wrapped %T, want *TCPDialer", rd.Dialer)
			}
		}},
		{"tunnel", func(c *config.Config) {
			c.TunnelEnabled, c.TunnelHost, c.TunnelPort = true, "gw", 22
		}, func(t *testing.T, d transport.Dialer) {
			if _, ok := d.(*transport.SSHDialer); !ok {
				t.Fatalf("got %T, want *SSHDialer", d)
			}
		}},
		{"tunnel with retry", func(c *config.Config) {
			c.TunnelEnabled, c.TunnelHost, c.TunnelPort, c.Retries = true, "gw", 22, 2
		}, func(t *testing.T, d transport.Dialer) {
			rd, ok := d.(*transport.RetryDialer)
			if !ok {
				t.Fatalf("got %T, want *RetryDialer", d)
			}
			if _, ok := rd.Dialer.(*transport.SSHDialer); !ok {
				t.Errorf("wrapped %T, want *SSHDialer", rd.Dialer)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			d := buildDialer(cfg, quiet())
			defer d.Close()
			tt.check(t, d)
		})
	}
}
