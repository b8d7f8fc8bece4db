// Package game holds the Quarto domain model: blocks, the N×N board,
// moves, the player roster, and the generalized win test.
//
// Coordinates follow the wire protocol: x is the column (A = 0) and y
// is the row counted from the bottom (row 1 = y 0).
package game

import (
	"fmt"
	"math/bits"
)

// Block is a game piece.  Each bit of a non-negative Block is one
// binary attribute; [Empty] marks a cell without a piece.
type Block int

// Empty is the "no block" sentinel.
const Empty Block = -1

// IsEmpty reports whether b is the empty sentinel.
func (b Block) IsEmpty() bool { return b < 0 }

// Board is an N×N grid of blocks stored row-major, bottom row first.
// The zero value is an unusable 0×0 board; use [NewBoard].
type Board struct {
	size  int
	cells []Block
}

// NewBoard returns an empty size×size board.
func NewBoard(size int) *Board {
	if size < 0 {
		size = 0
	}
	cells := make([]Block, size*size)
	for i := range cells {
		cells[i] = Empty
	}
	return &Board{size: size, cells: cells}
}

// Size returns N.
func (b *Board) Size() int { return b.size }

// Len returns the number of cells (N²).
func (b *Board) Len() int { return len(b.cells) }

// Index converts (x, y) to a row-major cell index.
func (b *Board) Index(x, y int) int { return y*b.size + x }

// Coords converts a cell index back to (x, y).
func (b *Board) Coords(i int) (x, y int) { return i % b.size, i / b.size }

// InBounds reports whether (x, y) lies on the board.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

// At returns the block at (x, y).
func (b *Board) At(x, y int) Block { return b.cells[b.Index(x, y)] }

// Set places blk at (x, y).
func (b *Board) Set(x, y int, blk Block) { b.cells[b.Index(x, y)] = blk }

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := &Board{size: b.size, cells: make([]Block, len(b.cells))}
	copy(out.cells, b.cells)
	return out
}

// Place returns a copy of b with blk placed at cell index i.
func (b *Board) Place(i int, blk Block) *Board {
	out := b.Clone()
	out.cells[i] = blk
	return out
}

// EmptyCells returns the indices of all unoccupied cells in scan order.
func (b *Board) EmptyCells() []int {
	var out []int
	for i, c := range b.cells {
		if c.IsEmpty() {
			out = append(out, i)
		}
	}
	return out
}

// Full reports whether every cell is occupied.
func (b *Board) Full() bool {
	for _, c := range b.cells {
		if c.IsEmpty() {
			return false
		}
	}
	return true
}

// Contains reports whether blk is already on the board.
func (b *Board) Contains(blk Block) bool {
	for _, c := range b.cells {
		if c == blk {
			return true
		}
	}
	return false
}

// FreeBlocks returns every block in [0, N²) that is neither on the
// board nor equal to inHand, in ascending order.
func (b *Board) FreeBlocks(inHand Block) []Block {
	used := make([]bool, len(b.cells))
	for _, c := range b.cells {
		if c >= 0 && int(c) < len(used) {
			used[c] = true
		}
	}
	if inHand >= 0 && int(inHand) < len(used) {
		used[inHand] = true
	}
	var out []Block
	for i, u := range used {
		if !u {
			out = append(out, Block(i))
		}
	}
	return out
}

// AttributeBits is the number of bit positions a block in [0, N²) can
// occupy.  Every one of them is an attribute for the win test.
func (b *Board) AttributeBits() int {
	if len(b.cells) <= 1 {
		return 1
	}
	return bits.Len(uint(len(b.cells) - 1))
}

// Validate checks that every cell is empty or a block in [0, N²) and
// that no block appears twice.
func (b *Board) Validate() error {
	seen := make(map[Block]bool, len(b.cells))
	for i, c := range b.cells {
		if c.IsEmpty() {
			continue
		}
		if int(c) >= len(b.cells) {
			x, y := b.Coords(i)
			return fmt.Errorf("block %d at %s out of range [0,%d)", c, CellName(x, y), len(b.cells))
		}
		if seen[c] {
			return fmt.Errorf("block %d placed twice", c)
		}
		seen[c] = true
	}
	return nil
}

// CellName renders (x, y) in placement notation, e.g. (1, 2) → "B3".
func CellName(x, y int) string {
	return fmt.Sprintf("%c%d", 'A'+rune(x), y+1)
}
