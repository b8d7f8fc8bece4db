package protocol

import (
	"strconv"
	"strings"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/game"
)

// LineSource yields the next server line.
type LineSource func() (string, error)

// ParseFieldHeader matches "+ FIELD <w>,<h>" and requires a square
// board.
func ParseFieldHeader(state State, line string) (int, error) {
	const want = `"+ FIELD <width>,<height>"`
	rest, ok := strings.CutPrefix(line, ServerPrefix+"FIELD ")
	if !ok {
		return 0, Unexpected(state, line, want)
	}
	ws, hs, ok := strings.Cut(rest, ",")
	if !ok {
		return 0, Unexpected(state, line, want)
	}
	w, err := number("board width", ws, 2)
	if err != nil {
		return 0, err
	}
	h, err := number("board height", hs, 2)
	if err != nil {
		return 0, err
	}
	if w != h || w == 0 {
		return 0, ncerr.Malformed("board size", rest, nil)
	}
	return w, nil
}

// ParseFieldRow matches "+ <row> <cell> <cell> …" for the given 1-based
// row number and width.  Cells are block numbers or "*".
func ParseFieldRow(state State, line string, row, width int) ([]game.Block, error) {
	want := `"+ ` + strconv.Itoa(row) + ` <` + strconv.Itoa(width) + ` cells>"`
	rest, ok := strings.CutPrefix(line, ServerPrefix+strconv.Itoa(row)+" ")
	if !ok {
		return nil, Unexpected(state, line, want)
	}
	rest = strings.TrimSuffix(rest, " ")
	tokens := strings.Split(rest, " ")
	if len(tokens) != width {
		return nil, Unexpected(state, line, want)
	}
	out := make([]game.Block, width)
	for x, tok := range tokens {
		if tok == EmptyCell {
			out[x] = game.Empty
			continue
		}
		n, err := number("board cell", tok, 3)
		if err != nil {
			return nil, err
		}
		out[x] = game.Block(n)
	}
	return out, nil
}

// ReadField consumes a complete board payload: the header, one line
// per row from the top row down to row 1, and the end marker.
func ReadField(state State, next LineSource) (*game.Board, error) {
	line, err := next()
	if err != nil {
		return nil, err
	}
	size, err := ParseFieldHeader(state, line)
	if err != nil {
		return nil, err
	}

	board := game.NewBoard(size)
	for y := size - 1; y >= 0; y-- {
		line, err := next()
		if err != nil {
			return nil, err
		}
		cells, err := ParseFieldRow(state, line, y+1, size)
		if err != nil {
			return nil, err
		}
		for x, blk := range cells {
			board.Set(x, y, blk)
		}
	}
	if err := board.Validate(); err != nil {
		return nil, ncerr.Malformed("board", "", err)
	}

	line, err = next()
	if err != nil {
		return nil, err
	}
	if err := Expect(state, line, EndField); err != nil {
		return nil, err
	}
	return board, nil
}
