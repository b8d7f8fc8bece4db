// Package session drives one game from the server's greeting to the
// final QUIT line.
//
// A Session owns the line channel and is the only writer of the board
// and roster.  When it is the local player's turn it hands the board to
// the compute executor through a Decisions implementation and keeps
// watching the connection until the move comes back.
package session

import (
	"context"
	"strings"
	"time"

	"quartoc/internal/coordinator"
	ncerr "quartoc/internal/errors"
	"quartoc/internal/game"
	"quartoc/internal/metrics"
	"quartoc/internal/protocol"
	"quartoc/internal/state"
	"quartoc/util"
)

// Lines is the framed connection a Session talks over.  *wire.Channel
// implements it.
type Lines interface {
	ReceiveLine() (string, error)
	Send(line string) error
	HasPendingData() bool
	Watch() (ready <-chan struct{}, stop func())
}

// Decisions is the session side of the compute handoff.
// *coordinator.Coordinator implements it.
type Decisions interface {
	RequestDecision(board *game.Board, blk game.Block, timeout time.Duration) (uint64, error)
	AwaitDecision(ctx context.Context, seq uint64, netReady <-chan struct{}) (game.Move, error)
}

// Options are the per-game settings the protocol needs.
type Options struct {
	GameID        string
	Player        int    // desired 0-based player number; negative lets the server choose
	GameKind      string // must match "+ PLAYING <kind>"
	ClientVersion string // sent as "VERSION <v>"
	ServerMajor   string // accepted server major version
}

// Session encapsulates the runtime context for a single game.
type Session struct {
	opts      Options
	lines     Lines
	decisions Decisions
	shared    *state.Shared
	logger    *util.Logger
	metrics   *metrics.Collector

	state  protocol.State
	player game.Player
	roster game.Roster
	board  *game.Board
}

// New creates a Session.  shared receives every fact the session
// learns; m may be nil.
func New(lines Lines, decisions Decisions, shared *state.Shared, logger *util.Logger, m *metrics.Collector, opts Options) *Session {
	return &Session{
		opts:      opts,
		lines:     lines,
		decisions: decisions,
		shared:    shared,
		logger:    logger,
		metrics:   m,
		state:     protocol.StateHandshake,
	}
}

// State returns the protocol state the session is in.
func (s *Session) State() protocol.State { return s.state }

// Run plays the game to completion and returns the outcome.  Every
// failure is fatal and leaves the session in the closed state.
func (s *Session) Run(ctx context.Context) (game.Outcome, error) {
	defer func() { s.state = protocol.StateClosed }()

	steps := []func() error{
		s.handshake,
		s.versionAck,
		s.join,
		s.assignPlayer,
		s.readRoster,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return game.OutcomeUnknown, err
		}
	}
	return s.turnLoop(ctx)
}

// ── Prolog ───────────────────────────────────────────────────────────

func (s *Session) handshake() error {
	s.state = protocol.StateHandshake
	line, err := s.recv()
	if err != nil {
		return err
	}
	g, err := protocol.ParseGreeting(line)
	if err != nil {
		return err
	}
	// A bare major version without a minor part is refused as well.
	if g.Major() != s.opts.ServerMajor || !strings.Contains(g.Version, ".") {
		return protocol.Unexpected(s.state, line, "a server with major version "+s.opts.ServerMajor)
	}
	s.logger.Info("connected to %s gameserver v%s", g.Server, g.Version)
	return nil
}

func (s *Session) versionAck() error {
	s.state = protocol.StateVersionAck
	if err := s.lines.Send(protocol.VersionCommand(s.opts.ClientVersion)); err != nil {
		return err
	}
	return s.expect(protocol.VersionAccepted)
}

func (s *Session) join() error {
	s.state = protocol.StateJoin
	if err := s.lines.Send(protocol.IDCommand(s.opts.GameID)); err != nil {
		return err
	}
	line, err := s.recv()
	if err != nil {
		return err
	}
	if err := protocol.ParsePlaying(line, s.opts.GameKind); err != nil {
		return err
	}
	if line, err = s.recv(); err != nil {
		return err
	}
	name, err := protocol.ParseGameName(line)
	if err != nil {
		return err
	}
	s.shared.SetGame(s.opts.GameID, name)
	s.logger.Info("joined %s game %q", s.opts.GameKind, name)
	return nil
}

func (s *Session) assignPlayer() error {
	s.state = protocol.StatePlayerAssign
	if err := s.lines.Send(protocol.PlayerCommand(s.opts.Player)); err != nil {
		return err
	}
	line, err := s.recv()
	if err != nil {
		return err
	}
	p, err := protocol.ParseYou(line)
	if err != nil {
		return err
	}
	s.player = p
	s.shared.SetPlayer(p)
	s.logger.Info("playing as player %d (%s)", p.Number+1, p.Name)
	return nil
}

// readRoster builds the roster locally and publishes it only once the
// end marker has been seen.
func (s *Session) readRoster() error {
	s.state = protocol.StateRoster
	line, err := s.recv()
	if err != nil {
		return err
	}
	total, err := protocol.ParseTotal(line)
	if err != nil {
		return err
	}

	roster := make(game.Roster, 0, total)
	roster = append(roster, s.player)
	for i := 1; i < total; i++ {
		if line, err = s.recv(); err != nil {
			return err
		}
		p, err := protocol.ParsePlayer(line)
		if err != nil {
			return err
		}
		roster = append(roster, p)
	}

	s.state = protocol.StateRosterDone
	if err := s.expect(protocol.EndPlayers); err != nil {
		return err
	}
	s.roster = roster
	s.shared.SetRoster(roster)
	for _, p := range roster[1:] {
		ready := "not ready"
		if p.Ready {
			ready = "ready"
		}
		s.logger.Info("opponent: player %d (%s) is %s", p.Number+1, p.Name, ready)
	}
	return nil
}

// ── Turn loop ────────────────────────────────────────────────────────

func (s *Session) turnLoop(ctx context.Context) (game.Outcome, error) {
	for {
		s.state = protocol.StateWait
		line, err := s.recv()
		if err != nil {
			return game.OutcomeUnknown, err
		}

		if line == protocol.Wait {
			s.metrics.WaitRound()
			if err := s.lines.Send(protocol.OkWait); err != nil {
				return game.OutcomeUnknown, err
			}
			continue
		}
		if line == protocol.GameOver {
			return s.gameOver()
		}

		ms, ok, err := protocol.ParseMove(line)
		if err != nil {
			return game.OutcomeUnknown, err
		}
		if !ok {
			return game.OutcomeUnknown, protocol.Unexpected(s.state, line,
				`"`+protocol.Wait+`", "+ MOVE <timeout>" or "`+protocol.GameOver+`"`)
		}
		if err := s.move(ctx, time.Duration(ms)*time.Millisecond); err != nil {
			return game.OutcomeUnknown, err
		}
	}
}

func (s *Session) move(ctx context.Context, timeout time.Duration) error {
	s.state = protocol.StateMoveRequest
	line, err := s.recv()
	if err != nil {
		return err
	}
	blk, err := protocol.ParseNext(line)
	if err != nil {
		return err
	}
	board, err := protocol.ReadField(s.state, s.recv)
	if err != nil {
		return err
	}
	if int(blk) >= board.Len() || board.Contains(blk) {
		return ncerr.Malformed("block index", line, nil)
	}
	s.board = board
	s.shared.SetBoard(board)
	s.logBoard(blk)

	if err := s.lines.Send(protocol.Thinking); err != nil {
		return err
	}
	s.state = protocol.StateThinking
	if err := s.expect(protocol.OkThink); err != nil {
		return err
	}

	seq, err := s.decisions.RequestDecision(board, blk, timeout)
	if err != nil {
		return err
	}
	ready, stop := s.lines.Watch()
	m, err := s.decisions.AwaitDecision(ctx, seq, ready)
	stop()
	if ncerr.Is(err, coordinator.ErrServerSpoke) {
		return s.unsolicited()
	}
	if err != nil {
		return err
	}
	if s.lines.HasPendingData() {
		return s.unsolicited()
	}

	if err := s.lines.Send(protocol.PlayCommand(m)); err != nil {
		return err
	}
	if err := s.expect(protocol.MoveOK); err != nil {
		return err
	}
	s.logger.Verbose("played %s", m)
	return nil
}

// unsolicited reads whatever the server sent during a pending move and
// reports it.
func (s *Session) unsolicited() error {
	line, err := s.recv()
	if err != nil {
		return err
	}
	return protocol.Unexpected(s.state, line, "no message while a move is pending")
}

func (s *Session) gameOver() (game.Outcome, error) {
	s.state = protocol.StateGameOver
	board, err := protocol.ReadField(s.state, s.recv)
	if err != nil {
		return game.OutcomeUnknown, err
	}
	s.board = board
	s.shared.SetBoard(board)
	s.logBoard(game.Empty)

	var won [2]bool
	for i := range won {
		line, err := s.recv()
		if err != nil {
			return game.OutcomeUnknown, err
		}
		if won[i], err = protocol.ParseWon(line, i); err != nil {
			return game.OutcomeUnknown, err
		}
	}
	if err := s.expect(protocol.Quit); err != nil {
		return game.OutcomeUnknown, err
	}

	outcome := game.DecideOutcome(s.player.Number, won[0], won[1])
	s.metrics.SetOutcome(outcome.String())
	s.logger.Info("game over: %s", outcome)
	return outcome, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func (s *Session) recv() (string, error) {
	return s.lines.ReceiveLine()
}

func (s *Session) expect(want string) error {
	line, err := s.recv()
	if err != nil {
		return err
	}
	return protocol.Expect(s.state, line, want)
}

func (s *Session) logBoard(inHand game.Block) {
	if !s.logger.Enabled(util.LogDebug) {
		return
	}
	if !inHand.IsEmpty() {
		s.logger.Debug("block to place: %s", game.BlockString(inHand, s.board.AttributeBits()))
	}
	s.logger.Debug("board:\n%s", s.board)
}
