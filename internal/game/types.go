package game

import "fmt"

// Move is a decision: where to place the block in hand and which block
// to hand the opponent.  Next is [Empty] only on the final placement
// when no blocks remain.
type Move struct {
	X    int
	Y    int
	Next Block
}

func (m Move) String() string {
	if m.Next.IsEmpty() {
		return CellName(m.X, m.Y)
	}
	return fmt.Sprintf("%s,%d", CellName(m.X, m.Y), m.Next)
}

// Player is one roster entry.
type Player struct {
	Number int
	Name   string
	Ready  bool
}

// Roster is the ordered player list.  Entry 0 is always the local
// player.
type Roster []Player

// Clone returns a copy of r.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}

// Outcome is the result of a finished game from the local player's
// point of view.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWon
	OutcomeLost
	OutcomeTie
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeTie:
		return "tie"
	default:
		return "unknown"
	}
}

// DecideOutcome computes the result from the two PLAYERnWON flags.
// Equal flags are a tie; otherwise the local player's flag decides.
func DecideOutcome(local int, player0Won, player1Won bool) Outcome {
	if player0Won == player1Won {
		return OutcomeTie
	}
	if (local == 0 && player0Won) || (local == 1 && player1Won) {
		return OutcomeWon
	}
	return OutcomeLost
}
