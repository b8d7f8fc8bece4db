// Package engine selects moves with a single-ply lookahead: take an
// immediate win if the block in hand allows one, otherwise place it
// at random, then hand the opponent a block they cannot win with
// right away if such a block exists.
package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/game"
)

// Decider is anything that can choose a move for a board and the
// block the local player has to place.
type Decider interface {
	Decide(board *game.Board, blk game.Block) (game.Move, error)
}

// Engine is the default Decider.  It is not safe for concurrent use;
// the compute executor owns exactly one.
type Engine struct {
	rng *rand.Rand
}

// New returns an Engine drawing from rng.  A nil rng is seeded from the
// clock.
func New(rng *rand.Rand) *Engine {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>17|1))
	}
	return &Engine{rng: rng}
}

// Decide returns where to place blk and which block to hand over.
// It fails with [ncerr.ErrNoCandidate] when the board has no empty cell
// or blk cannot legally be placed.
func (e *Engine) Decide(board *game.Board, blk game.Block) (game.Move, error) {
	if board == nil {
		return game.Move{}, fmt.Errorf("engine: no board: %w", ncerr.ErrNoCandidate)
	}
	if blk.IsEmpty() || int(blk) >= board.Len() || board.Contains(blk) {
		return game.Move{}, fmt.Errorf("engine: block %d is not placeable: %w", blk, ncerr.ErrNoCandidate)
	}

	empty := board.EmptyCells()
	if len(empty) == 0 {
		return game.Move{}, fmt.Errorf("engine: board is full: %w", ncerr.ErrNoCandidate)
	}

	cell, ok := board.WinningCell(blk, empty)
	if !ok {
		cell, _ = pick(e.rng, empty)
	}
	after := board.Place(cell, blk)

	x, y := board.Coords(cell)
	return game.Move{X: x, Y: y, Next: e.handOver(after)}, nil
}

// handOver chooses the block for the opponent on the board after our
// placement: the first block, in ascending order, with which the
// opponent has no immediate win, else a uniform pick.  Empty is
// returned when no blocks remain.
func (e *Engine) handOver(after *game.Board) game.Block {
	free := after.FreeBlocks(game.Empty)
	if len(free) == 0 {
		return game.Empty
	}
	if blk, ok := SafeBlock(after, free); ok {
		return blk
	}
	blk, _ := pick(e.rng, free)
	return blk
}

// SafeBlock returns the first candidate the opponent cannot win with
// on their next placement.
func SafeBlock(board *game.Board, candidates []game.Block) (game.Block, bool) {
	empty := board.EmptyCells()
	for _, blk := range candidates {
		if _, wins := board.WinningCell(blk, empty); !wins {
			return blk, true
		}
	}
	return game.Empty, false
}

// pick returns a uniform element of s.
func pick[T any](rng *rand.Rand, s []T) (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[rng.IntN(len(s))], true
}
