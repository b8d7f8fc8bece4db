package game

// Lines returns every row, every column, and both main diagonals as
// cell-index slices: 2N+2 lines in total.  Order is rows bottom-up,
// columns left to right, then the diagonal through (0,0) and the
// anti-diagonal through (0,N-1).
func (b *Board) Lines() [][]int {
	n := b.size
	out := make([][]int, 0, 2*n+2)
	for y := 0; y < n; y++ {
		row := make([]int, n)
		for x := 0; x < n; x++ {
			row[x] = b.Index(x, y)
		}
		out = append(out, row)
	}
	for x := 0; x < n; x++ {
		col := make([]int, n)
		for y := 0; y < n; y++ {
			col[y] = b.Index(x, y)
		}
		out = append(out, col)
	}
	diag := make([]int, n)
	anti := make([]int, n)
	for i := 0; i < n; i++ {
		diag[i] = b.Index(i, i)
		anti[i] = b.Index(i, n-1-i)
	}
	return append(out, diag, anti)
}

// LineWins reports whether the cells form a complete line sharing at
// least one attribute bit, returning the first such bit.  A line with
// any empty cell never wins.
func (b *Board) LineWins(line []int) (bit int, ok bool) {
	if len(line) == 0 {
		return 0, false
	}
	for _, i := range line {
		if b.cells[i].IsEmpty() {
			return 0, false
		}
	}
	for bit = 0; bit < b.AttributeBits(); bit++ {
		mask := Block(1) << bit
		first := b.cells[line[0]] & mask
		same := true
		for _, i := range line[1:] {
			if b.cells[i]&mask != first {
				same = false
				break
			}
		}
		if same {
			return bit, true
		}
	}
	return 0, false
}

// HasWin reports whether any line on the board is a win.
func (b *Board) HasWin() bool {
	for _, line := range b.Lines() {
		if _, ok := b.LineWins(line); ok {
			return true
		}
	}
	return false
}

// WinningCell returns the first empty cell, in scan order, where
// placing blk produces a win.  cells restricts the search; nil means
// every empty cell.
func (b *Board) WinningCell(blk Block, cells []int) (int, bool) {
	if cells == nil {
		cells = b.EmptyCells()
	}
	for _, i := range cells {
		if !b.cells[i].IsEmpty() {
			continue
		}
		if b.Place(i, blk).HasWin() {
			return i, true
		}
	}
	return -1, false
}
