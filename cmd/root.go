// Package cmd wires up the CLI flags and dispatches to the game core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"quartoc/config"
	"quartoc/internal/core"
	"quartoc/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X quartoc/cmd.version=2.1.0"
var version = "2.0.0" //nolint:gochecknoglobals

// stderr is where usage, --stats and --dry-run output go.
var stderr io.Writer = os.Stderr //nolint:gochecknoglobals

// flags holds the raw command-line values before they are merged over
// the config file and environment.
type flags struct {
	gameID     string
	player     int
	configPath string
	host       string
	port       int
	timeoutSec int
	retries    int

	tunnel        string
	sshKey        string
	sshPassword   bool
	sshAgent      bool
	strictHostKey bool
	knownHosts    string

	verbose int
	stats   bool
	dryRun  bool
}

// Execute parses args and plays one game.
func Execute(ctx context.Context, args []string) error {
	var f flags
	fs := flag.NewFlagSet("quartoc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── game ─────────────────────────────────────────────────────────
	fs.StringVarP(&f.gameID, "game-id", "g", "", "Game-ID to join (13 characters)")
	fs.IntVarP(&f.player, "player", "p", 0, "Desired player number, starting at 1 (server chooses if omitted)")
	fs.StringVarP(&f.configPath, "config", "c", config.DefaultConfigPath, "Config file with host, port and game")

	// ── connection ───────────────────────────────────────────────────
	fs.StringVarP(&f.host, "host", "H", "", "Game server host (overrides the config file)")
	fs.IntVarP(&f.port, "port", "P", 0, "Game server port (overrides the config file)")
	fs.IntVarP(&f.timeoutSec, "timeout", "w", 0, "Connect timeout in seconds")
	fs.IntVar(&f.retries, "retries", config.DefaultRetries, "Connection attempts before giving up")

	// ── SSH tunnel ───────────────────────────────────────────────────
	fs.StringVarP(&f.tunnel, "tunnel", "T", "", "Reach the server via SSH [user@]host[:port]")
	fs.StringVar(&f.sshKey, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&f.sshPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&f.sshAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&f.strictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&f.knownHosts, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────────
	fs.CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&f.stats, "stats", false, "Print session metrics as JSON when the game ends")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stderr, "quartoc %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── merge: defaults < config file < environment < flags ─────────
	cfg := config.New()
	switch {
	case fs.Changed("config"):
		cfg.ConfigPath = f.configPath
	case config.EnvConfigPath() != "":
		cfg.ConfigPath = config.EnvConfigPath()
	}

	logger := util.NewLogger(config.DefaultVerbose)
	logger.SetOutput(stderr)

	created, err := config.ApplyFile(cfg)
	if err != nil {
		return err
	}
	if created {
		logger.Info("config file %s missing or empty, wrote defaults", cfg.ConfigPath)
	}

	config.LoadFromEnv(cfg)
	applyFlags(fs, &f, cfg)

	if err := cfg.ApplyTunnelSpec(); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}

	// ── validate ─────────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)

	if cfg.DryRun {
		printPlan(cfg)
		return nil
	}

	// ── run ──────────────────────────────────────────────────────────
	mode := core.Build(cfg, logger, stderr)
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// applyFlags copies every flag the user set explicitly onto cfg.
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	set := fs.Changed
	if set("game-id") {
		cfg.GameID = f.gameID
	}
	if set("player") {
		cfg.Player = f.player
		if f.player <= 0 {
			// 0 would mean "unset"; keep it visible to Validate.
			cfg.Player = -1
		}
	}
	if set("config") {
		cfg.ConfigPath = f.configPath
	}
	if set("host") {
		cfg.Host = f.host
	}
	if set("port") {
		cfg.Port = f.port
	}
	if set("timeout") {
		cfg.Timeout = time.Duration(f.timeoutSec) * time.Second
	}
	if set("retries") {
		cfg.Retries = f.retries
	}
	if set("tunnel") {
		cfg.TunnelSpec = f.tunnel
	}
	if set("ssh-key") {
		cfg.SSHKeyPath = f.sshKey
	}
	if set("known-hosts") {
		cfg.KnownHostsPath = f.knownHosts
	}
	cfg.SSHPassword = cfg.SSHPassword || f.sshPassword
	cfg.UseSSHAgent = cfg.UseSSHAgent || f.sshAgent
	cfg.StrictHostKey = cfg.StrictHostKey || f.strictHostKey
	if set("verbose") {
		cfg.Verbose = f.verbose
	}
	cfg.Stats = f.stats
	cfg.DryRun = f.dryRun
}

func printPlan(cfg *config.Config) {
	player := "assigned by server"
	if cfg.Player > 0 {
		player = fmt.Sprintf("%d", cfg.Player)
	}
	fmt.Fprintf(stderr, "game:    %s %s (player %s)\n", cfg.GameKind, cfg.GameID, player)
	fmt.Fprintf(stderr, "server:  %s\n", cfg.Address())
	if cfg.TunnelEnabled {
		fmt.Fprintf(stderr, "tunnel:  %s@%s\n", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	fmt.Fprintf(stderr, "config:  %s\n", cfg.ConfigPath)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stderr, `quartoc - Quarto game client v%s

Connects to the game server, joins a game and plays it to the end.

Usage:
  quartoc -g <game-id> [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(stderr, `
Examples:
  quartoc -g 2t5mqkexd1hyl                      Join, server picks the player
  quartoc -g 2t5mqkexd1hyl -p 2 -c my.conf      Join as player 2
  quartoc -g 2t5mqkexd1hyl -T me@remote.cip     Play through an SSH login host
  quartoc -g 2t5mqkexd1hyl -vv --stats          Trace the protocol, print metrics
`)
}
