package protocol

import (
	"strings"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/game"
)

// Greeting is the server's opening line.
type Greeting struct {
	Server  string
	Version string
}

// Major returns the part of the version before the first dot.
func (g Greeting) Major() string {
	major, _, _ := strings.Cut(g.Version, ".")
	return major
}

// ParseGreeting matches "+ <Name> Gameserver v<ver> accepting connections".
func ParseGreeting(line string) (Greeting, error) {
	const (
		mid  = " Gameserver v"
		tail = " accepting connections"
		want = `"+ <name> Gameserver v<version> accepting connections"`
	)
	rest, ok := strings.CutPrefix(line, ServerPrefix)
	if !ok {
		return Greeting{}, Unexpected(StateHandshake, line, want)
	}
	rest, ok = strings.CutSuffix(rest, tail)
	if !ok {
		return Greeting{}, Unexpected(StateHandshake, line, want)
	}
	name, version, ok := strings.Cut(rest, mid)
	if !ok || name == "" || version == "" {
		return Greeting{}, Unexpected(StateHandshake, line, want)
	}
	for _, r := range version {
		if (r < '0' || r > '9') && r != '.' {
			return Greeting{}, Unexpected(StateHandshake, line, want)
		}
	}
	return Greeting{Server: name, Version: version}, nil
}

// ParsePlaying matches "+ PLAYING <kind>" for the expected game kind.
func ParsePlaying(line, kind string) error {
	return Expect(StateJoin, line, ServerPrefix+"PLAYING "+kind)
}

// ParseGameName captures the free-text game name line "+ <name>".
func ParseGameName(line string) (string, error) {
	name, ok := strings.CutPrefix(line, ServerPrefix)
	if !ok || name == "" {
		return "", Unexpected(StateJoin, line, `"+ <game name>"`)
	}
	return name, nil
}

// ParseYou matches "+ YOU <player#> <name>".
func ParseYou(line string) (game.Player, error) {
	const want = `"+ YOU <player number> <name>"`
	rest, ok := strings.CutPrefix(line, ServerPrefix+"YOU ")
	if !ok {
		return game.Player{}, Unexpected(StatePlayerAssign, line, want)
	}
	num, name, ok := strings.Cut(rest, " ")
	if !ok || name == "" {
		return game.Player{}, Unexpected(StatePlayerAssign, line, want)
	}
	n, err := number("player number", num, 5)
	if err != nil {
		return game.Player{}, err
	}
	return game.Player{Number: n, Name: name, Ready: true}, nil
}

// ParseTotal matches "+ TOTAL <count>".
func ParseTotal(line string) (int, error) {
	rest, ok := strings.CutPrefix(line, ServerPrefix+"TOTAL ")
	if !ok {
		return 0, Unexpected(StateRoster, line, `"+ TOTAL <count>"`)
	}
	n, err := number("player count", rest, 5)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, ncerr.Malformed("player count", rest, nil)
	}
	return n, nil
}

// ParsePlayer matches a roster entry "+ <player#> <name> <0|1>".  The
// name may contain spaces.
func ParsePlayer(line string) (game.Player, error) {
	const want = `"+ <player number> <name> <0|1>"`
	rest, ok := strings.CutPrefix(line, ServerPrefix)
	if !ok {
		return game.Player{}, Unexpected(StateRoster, line, want)
	}
	num, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return game.Player{}, Unexpected(StateRoster, line, want)
	}
	sep := strings.LastIndexByte(rest, ' ')
	if sep <= 0 {
		return game.Player{}, Unexpected(StateRoster, line, want)
	}
	name, flag := rest[:sep], rest[sep+1:]
	if flag != "0" && flag != "1" {
		return game.Player{}, Unexpected(StateRoster, line, want)
	}
	n, err := number("player number", num, 5)
	if err != nil {
		return game.Player{}, err
	}
	return game.Player{Number: n, Name: name, Ready: flag == "1"}, nil
}

// ParseMove matches "+ MOVE <timeout ms>".  ok is false, with a nil
// error, when the line is not a MOVE line at all so the caller can try
// other turn-loop messages.
func ParseMove(line string) (timeoutMs int, ok bool, err error) {
	rest, ok := strings.CutPrefix(line, ServerPrefix+"MOVE ")
	if !ok {
		return 0, false, nil
	}
	n, err := number("move timeout", rest, 6)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}

// ParseNext matches "+ NEXT <block#>".
func ParseNext(line string) (game.Block, error) {
	rest, ok := strings.CutPrefix(line, ServerPrefix+"NEXT ")
	if !ok {
		return game.Empty, Unexpected(StateMoveRequest, line, `"+ NEXT <block>"`)
	}
	n, err := number("block index", rest, 3)
	if err != nil {
		return game.Empty, err
	}
	return game.Block(n), nil
}

// ParseWon matches "+ PLAYER<n>WON Yes|No".
func ParseWon(line string, player int) (bool, error) {
	prefix := ServerPrefix + "PLAYER" + string(rune('0'+player)) + "WON "
	rest, ok := strings.CutPrefix(line, prefix)
	if ok {
		switch rest {
		case "Yes":
			return true, nil
		case "No":
			return false, nil
		}
	}
	return false, Unexpected(StateGameOver, line, `"`+prefix+`Yes|No"`)
}
