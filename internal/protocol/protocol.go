// Package protocol is the grammar of the game server's line protocol:
// the literal lines the server sends, the commands the client sends,
// and one small matcher per server message.
//
// Matchers return a *errors.ProtocolError when a line does not have the
// expected shape and a *errors.FieldError when the shape is right but a
// numeric field cannot be used.
package protocol

import (
	"strconv"
	"strings"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/game"
)

// ServerPrefix starts every positive server line.
const ServerPrefix = "+ "

// errorPrefix starts a server-side failure report.
const errorPrefix = "- "

// Literal server lines.
const (
	VersionAccepted = "+ Client version accepted - please send Game-ID to join"
	EndPlayers      = "+ ENDPLAYERS"
	Wait            = "+ WAIT"
	OkThink         = "+ OKTHINK"
	MoveOK          = "+ MOVEOK"
	GameOver        = "+ GAMEOVER"
	EndField        = "+ ENDFIELD"
	Quit            = "+ QUIT"
)

// Literal client lines.
const (
	OkWait   = "OKWAIT"
	Thinking = "THINKING"
)

// EmptyCell is the board token for an unoccupied cell.
const EmptyCell = "*"

// ── State ────────────────────────────────────────────────────────────

// State is a ProtocolSession state.
type State int

const (
	StateHandshake State = iota
	StateVersionAck
	StateJoin
	StatePlayerAssign
	StateRoster
	StateRosterDone
	StateWait
	StateMoveRequest
	StateThinking
	StateGameOver
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateVersionAck:
		return "version-ack"
	case StateJoin:
		return "join"
	case StatePlayerAssign:
		return "player-assign"
	case StateRoster:
		return "roster"
	case StateRosterDone:
		return "roster-done"
	case StateWait:
		return "wait"
	case StateMoveRequest:
		return "move-request"
	case StateThinking:
		return "thinking"
	case StateGameOver:
		return "game-over"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ── Client commands ──────────────────────────────────────────────────

// VersionCommand announces the client protocol version.
func VersionCommand(version string) string { return "VERSION " + version }

// IDCommand joins the game with the given id.
func IDCommand(gameID string) string { return "ID " + gameID }

// PlayerCommand requests a player number.  A negative desired number
// lets the server choose.
func PlayerCommand(desired int) string {
	if desired < 0 {
		return "PLAYER"
	}
	return "PLAYER " + strconv.Itoa(desired)
}

// PlayCommand places the block in hand and names the opponent's block.
func PlayCommand(m game.Move) string { return "PLAY " + m.String() }

// ── Shared matching helpers ──────────────────────────────────────────

// Expect checks that line equals want exactly.
func Expect(state State, line, want string) error {
	if line != want {
		return Unexpected(state, line, strconv.Quote(want))
	}
	return nil
}

// ServerError returns the message of a "- " failure line.
func ServerError(line string) (string, bool) {
	return strings.CutPrefix(line, errorPrefix)
}

// Unexpected reports that line is not what state expects.  want
// describes the expected line; a server failure message is appended.
func Unexpected(state State, line, want string) error {
	if msg, ok := ServerError(line); ok {
		want += " (server reported: " + msg + ")"
	}
	return ncerr.Unexpected(state.String(), line, want)
}

// number parses 1..maxDigits ASCII digits.
func number(field, s string, maxDigits int) (int, error) {
	if s == "" || len(s) > maxDigits {
		return 0, ncerr.Malformed(field, s, nil)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ncerr.Malformed(field, s, nil)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ncerr.Malformed(field, s, err)
	}
	return n, nil
}
