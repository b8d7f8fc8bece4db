// Package state holds the record of game facts shared between the
// session executor and the compute executor.
//
// Writes are partitioned by owner: identity, roster, board and request
// inputs are written only by the protocol session; the result is
// written only by the compute side.  Every accessor takes the lock and
// hands out copies, so neither side observes a torn update.
package state

import (
	"sync"
	"time"

	"quartoc/internal/game"
)

// Request is one committed "decide now" input set.
type Request struct {
	Seq     uint64
	Board   *game.Board
	Block   game.Block
	Timeout time.Duration
}

// Result is the compute side's answer for a Request.
type Result struct {
	Seq  uint64
	Move game.Move
	Err  error
}

// Shared is the SharedState record.  The zero value is ready to use.
type Shared struct {
	mu sync.RWMutex

	player  game.Player
	gameID  string
	name    string
	roster  game.Roster
	board   *game.Board
	timeout time.Duration
	pending game.Block
	ply     uint64

	requested bool
	request   Request
	result    *Result
}

// New returns an empty record with no pending block.
func New() *Shared {
	return &Shared{pending: game.Empty}
}

// ── Session-owned writes ─────────────────────────────────────────────

// SetGame records the joined game's id and name.
func (s *Shared) SetGame(id, name string) {
	s.mu.Lock()
	s.gameID, s.name = id, name
	s.mu.Unlock()
}

// SetPlayer records the locally assigned player.
func (s *Shared) SetPlayer(p game.Player) {
	s.mu.Lock()
	s.player = p
	s.mu.Unlock()
}

// SetRoster replaces the roster.
func (s *Shared) SetRoster(r game.Roster) {
	s.mu.Lock()
	s.roster = r.Clone()
	s.mu.Unlock()
}

// SetBoard stores a snapshot of b.
func (s *Shared) SetBoard(b *game.Board) {
	s.mu.Lock()
	s.board = b.Clone()
	s.mu.Unlock()
}

// SetTurn records the move timeout and the block to place for the
// current turn.
func (s *Shared) SetTurn(timeout time.Duration, blk game.Block) {
	s.mu.Lock()
	s.timeout, s.pending = timeout, blk
	s.mu.Unlock()
}

// Commit raises a decision request for the current board and pending
// block and clears any previous result.  It returns false without
// changing anything if a request is still outstanding.
func (s *Shared) Commit() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested {
		return Request{}, false
	}
	s.ply++
	s.requested = true
	s.result = nil
	s.request = Request{
		Seq:     s.ply,
		Board:   s.board.Clone(),
		Block:   s.pending,
		Timeout: s.timeout,
	}
	return s.copyRequest(), true
}

// Consume takes the result for seq, clears the request flag and the
// pending block, and reports whether a matching result was present.
func (s *Shared) Consume(seq uint64) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || s.result.Seq != seq {
		return Result{}, false
	}
	r := *s.result
	s.result = nil
	s.requested = false
	s.pending = game.Empty
	return r, true
}

// ── Compute-owned writes ─────────────────────────────────────────────

// Store records the result for a request.  A result for anything other
// than the outstanding request is ignored and false is returned.
func (s *Shared) Store(r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.requested || r.Seq != s.request.Seq {
		return false
	}
	s.result = &r
	return true
}

// ── Readers ──────────────────────────────────────────────────────────

// Player returns the local player.
func (s *Shared) Player() game.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// Game returns the game id and name.
func (s *Shared) Game() (id, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameID, s.name
}

// Roster returns a copy of the roster.
func (s *Shared) Roster() game.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Clone()
}

// Board returns a copy of the last board snapshot, or nil.
func (s *Shared) Board() *game.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone()
}

// Turn returns the current move timeout and pending block.
func (s *Shared) Turn() (time.Duration, game.Block) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeout, s.pending
}

// Ply returns the number of requests raised so far.
func (s *Shared) Ply() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ply
}

// Pending returns the outstanding request, if any.
func (s *Shared) Pending() (Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.requested {
		return Request{}, false
	}
	return s.copyRequest(), true
}

func (s *Shared) copyRequest() Request {
	r := s.request
	r.Board = r.Board.Clone()
	return r
}
