package game

import (
	"strconv"
	"strings"
)

// BlockString renders blk as its attribute bits, most significant
// first, padded to width.  An empty block renders as width stars.
func BlockString(blk Block, width int) string {
	var sb strings.Builder
	for i := width - 1; i >= 0; i-- {
		switch {
		case blk.IsEmpty():
			sb.WriteByte('*')
		case (blk>>i)&1 == 0:
			sb.WriteByte('0')
		default:
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// String renders the board top row first with row numbers on the left
// and column letters underneath, e.g. for a 2×2 board:
//
//	 2  ** 11
//	 1  00 **
//	    A  B
func (b *Board) String() string {
	w := b.AttributeBits()
	var sb strings.Builder
	for y := b.size - 1; y >= 0; y-- {
		sb.WriteString(padLeft(strconv.Itoa(y+1), 2))
		sb.WriteString("  ")
		for x := 0; x < b.size; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(BlockString(b.At(x, y), w))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("    ")
	for x := 0; x < b.size; x++ {
		if x > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(padRight(string(rune('A'+x)), w))
	}
	return strings.TrimRight(sb.String(), " ")
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(" ", n-len(s)) + s
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
