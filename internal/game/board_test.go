package game

import (
	"math/rand/v2"
	"testing"
)

// boardFrom builds a board from rows given top row first, the way the
// server sends them.  -1 is empty.
func boardFrom(t *testing.T, rows ...[]int) *Board {
	t.Helper()
	n := len(rows)
	b := NewBoard(n)
	for i, row := range rows {
		if len(row) != n {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), n)
		}
		y := n - 1 - i
		for x, v := range row {
			b.Set(x, y, Block(v))
		}
	}
	return b
}

func TestNewBoard_Empty(t *testing.T) {
	b := NewBoard(4)
	if b.Size() != 4 || b.Len() != 16 {
		t.Fatalf("size = %d len = %d", b.Size(), b.Len())
	}
	if got := len(b.EmptyCells()); got != 16 {
		t.Errorf("empty cells = %d, want 16", got)
	}
	if b.Full() {
		t.Error("new board should not be full")
	}
}

func TestBoard_Coords(t *testing.T) {
	b := NewBoard(4)
	for i := 0; i < b.Len(); i++ {
		x, y := b.Coords(i)
		if b.Index(x, y) != i {
			t.Errorf("Index(Coords(%d)) = %d", i, b.Index(x, y))
		}
	}
	if CellName(1, 2) != "B3" {
		t.Errorf("CellName(1,2) = %q", CellName(1, 2))
	}
}

func TestBoard_FreeBlocks(t *testing.T) {
	b := boardFrom(t,
		[]int{-1, 1},
		[]int{2, -1},
	)
	got := b.FreeBlocks(3)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("FreeBlocks(3) = %v, want [0]", got)
	}
	got = b.FreeBlocks(Empty)
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("FreeBlocks(empty) = %v, want [0 3]", got)
	}
}

func TestBoard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]int
		wantErr bool
	}{
		{"empty", [][]int{{-1, -1}, {-1, -1}}, false},
		{"distinct", [][]int{{0, 1}, {2, 3}}, false},
		{"duplicate", [][]int{{1, 1}, {-1, -1}}, true},
		{"out of range", [][]int{{4, -1}, {-1, -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := boardFrom(t, tt.rows...).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoard_CloneIsIndependent(t *testing.T) {
	b := NewBoard(2)
	c := b.Clone()
	c.Set(0, 0, 3)
	if !b.At(0, 0).IsEmpty() {
		t.Error("mutating the clone changed the original")
	}
	p := b.Place(3, 1)
	if !b.At(1, 1).IsEmpty() || p.At(1, 1) != 1 {
		t.Error("Place should only affect the returned copy")
	}
}

func TestLines_Count(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5} {
		if got := len(NewBoard(n).Lines()); got != 2*n+2 {
			t.Errorf("n=%d: %d lines, want %d", n, got, 2*n+2)
		}
	}
}

func TestHasWin(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
		want bool
	}{
		{
			name: "2x2 column shares bit 0",
			rows: [][]int{{3, -1}, {1, -1}},
			want: true,
		},
		{
			name: "2x2 complementary column",
			rows: [][]int{{0, -1}, {3, -1}},
			want: false,
		},
		{
			name: "4x4 row shares bit 0",
			rows: [][]int{
				{-1, -1, -1, -1},
				{0, 2, 4, 6},
				{-1, -1, -1, -1},
				{-1, -1, -1, -1},
			},
			want: true,
		},
		{
			name: "4x4 full row no common bit",
			rows: [][]int{
				{1, 2, 4, 8},
				{-1, -1, -1, -1},
				{-1, -1, -1, -1},
				{-1, -1, -1, -1},
			},
			want: false,
		},
		{
			name: "4x4 incomplete row never wins",
			rows: [][]int{
				{15, 14, 13, -1},
				{-1, -1, -1, -1},
				{-1, -1, -1, -1},
				{-1, -1, -1, -1},
			},
			want: false,
		},
		{
			name: "4x4 anti-diagonal shares bit 3",
			rows: [][]int{
				{8, -1, -1, -1},
				{-1, 9, -1, -1},
				{-1, -1, 10, -1},
				{-1, -1, -1, 12},
			},
			want: true,
		},
		{
			name: "4x4 main diagonal shares bit 2 zero",
			rows: [][]int{
				{-1, -1, -1, 3},
				{-1, -1, 8, -1},
				{-1, 1, -1, -1},
				{2, -1, -1, -1},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boardFrom(t, tt.rows...).HasWin(); got != tt.want {
				t.Errorf("HasWin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineWins_AllBitsShared(t *testing.T) {
	// For any N and any bit b, a full line whose cells all carry b wins.
	for _, n := range []int{2, 4, 5} {
		b := NewBoard(n)
		for bit := 0; bit < b.AttributeBits(); bit++ {
			board := NewBoard(n)
			placed := 0
			for v := 0; v < n*n && placed < n; v++ {
				if v&(1<<bit) != 0 {
					board.Set(placed, 0, Block(v))
					placed++
				}
			}
			if placed < n {
				continue
			}
			if _, ok := board.LineWins(board.Lines()[0]); !ok {
				t.Errorf("n=%d bit=%d: row with shared bit should win", n, bit)
			}
		}
	}
}

func TestHasWin_Symmetry(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 200; trial++ {
		n := 2 + r.IntN(4)
		b := randomBoard(r, n)

		transposed := NewBoard(n)
		mirrored := NewBoard(n)
		flipped := NewBoard(n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				transposed.Set(y, x, b.At(x, y))
				mirrored.Set(n-1-x, y, b.At(x, y))
				flipped.Set(x, n-1-y, b.At(x, y))
			}
		}

		want := b.HasWin()
		if transposed.HasWin() != want {
			t.Fatalf("transpose changed result on\n%s", b)
		}
		if mirrored.HasWin() != want {
			t.Fatalf("horizontal reflection changed result on\n%s", b)
		}
		if flipped.HasWin() != want {
			t.Fatalf("vertical reflection changed result on\n%s", b)
		}
	}
}

func TestWinningCell(t *testing.T) {
	b := boardFrom(t,
		[]int{3, -1},
		[]int{-1, -1},
	)
	i, ok := b.WinningCell(1, nil)
	if !ok {
		t.Fatal("expected a winning cell for block 1")
	}
	if !b.Place(i, 1).HasWin() {
		t.Errorf("cell %d does not win", i)
	}

	// Block 0 shares nothing with 3.
	if _, ok := b.WinningCell(0, nil); ok {
		t.Error("block 0 should not win next to 3")
	}
}

func TestBoard_String(t *testing.T) {
	b := boardFrom(t,
		[]int{-1, 3},
		[]int{0, -1},
	)
	want := " 2  ** 11\n 1  00 **\n    A  B"
	if got := b.String(); got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestDecideOutcome(t *testing.T) {
	tests := []struct {
		local  int
		p0, p1 bool
		want   Outcome
	}{
		{0, true, true, OutcomeTie},
		{1, false, false, OutcomeTie},
		{0, true, false, OutcomeWon},
		{1, false, true, OutcomeWon},
		{0, false, true, OutcomeLost},
		{1, true, false, OutcomeLost},
	}
	for _, tt := range tests {
		if got := DecideOutcome(tt.local, tt.p0, tt.p1); got != tt.want {
			t.Errorf("DecideOutcome(%d,%v,%v) = %v, want %v", tt.local, tt.p0, tt.p1, got, tt.want)
		}
	}
}

func TestMove_String(t *testing.T) {
	if got := (Move{X: 1, Y: 2, Next: 7}).String(); got != "B3,7" {
		t.Errorf("got %q", got)
	}
	if got := (Move{X: 0, Y: 0, Next: Empty}).String(); got != "A1" {
		t.Errorf("got %q", got)
	}
}

func randomBoard(r *rand.Rand, n int) *Board {
	b := NewBoard(n)
	perm := r.Perm(n * n)
	for i := range perm {
		if r.IntN(4) == 0 {
			continue
		}
		b.cells[i] = Block(perm[i])
	}
	return b
}
