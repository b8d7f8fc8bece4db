package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"testing"
	"time"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/engine"
	"quartoc/internal/game"
	"quartoc/internal/metrics"
	"quartoc/internal/session"
	"quartoc/internal/transport"
)

// line is one step of a scripted game server.  A step with want set
// reads a client line that must start with want.
type line struct {
	send string
	want string
}

func srv(text string) line { return line{send: text} }
func cli(prefix string) line { return line{want: prefix} }

func prolog() []line {
	return []line{
		srv("+ MNM Gameserver v2.3 accepting connections"),
		cli("VERSION 2.0"),
		srv("+ Client version accepted - please send Game-ID to join"),
		cli("ID 0123456789abc"),
		srv("+ PLAYING Quarto"),
		srv("+ Test Game"),
		cli("PLAYER"),
		srv("+ YOU 0 Alice"),
		srv("+ TOTAL 2"),
		srv("+ 1 Bob 1"),
		srv("+ ENDPLAYERS"),
	}
}

func field() []line {
	return []line{
		srv("+ FIELD 4,4"),
		srv("+ 4 * * * *"),
		srv("+ 3 * * * *"),
		srv("+ 2 * 9 * *"),
		srv("+ 1 0 * * *"),
		srv("+ ENDFIELD"),
	}
}

// gameServer plays script against the first connection and reports the
// first deviation.  After the script it keeps the connection open until
// the client hangs up.
func gameServer(t *testing.T, script []line) (addr string, result <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	errc := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			errc <- err
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for i, st := range script {
			if st.send != "" {
				if _, err := io.WriteString(conn, st.send+"\n"); err != nil {
					errc <- fmt.Errorf("step %d: %w", i, err)
					return
				}
				continue
			}
			got, err := r.ReadString('\n')
			if err != nil {
				errc <- fmt.Errorf("step %d: waiting for %q: %w", i, st.want, err)
				return
			}
			if !strings.HasPrefix(got, st.want) {
				errc <- fmt.Errorf("step %d: got %q, want prefix %q", i, got, st.want)
				return
			}
		}
		errc <- nil
		io.Copy(io.Discard, conn) //nolint:errcheck
	}()
	return ln.Addr().String(), errc
}

func playMode(addr string, d engine.Decider, stats io.Writer) *PlayMode {
	return &PlayMode{
		Dialer:  &transport.TCPDialer{Timeout: 2 * time.Second},
		Address: addr,
		Session: session.Options{
			GameID:        "0123456789abc",
			Player:        -1,
			GameKind:      "Quarto",
			ClientVersion: "2.0",
			ServerMajor:   "2",
		},
		Decider: d,
		Logger:  quiet(),
		Metrics: metrics.New("test-session"),
		Stats:   stats,
	}
}

type panicky struct{}

func (panicky) Decide(*game.Board, game.Block) (game.Move, error) { panic("out of cheese") }

// TestPlayMode_FullGame plays one move with the real engine and reads
// the final result.
func TestPlayMode_FullGame(t *testing.T) {
	var script []line
	script = append(script, prolog()...)
	script = append(script, srv("+ WAIT"), cli("OKWAIT"))
	script = append(script, srv("+ MOVE 3000"), srv("+ NEXT 5"))
	script = append(script, field()...)
	script = append(script, cli("THINKING"), srv("+ OKTHINK"), cli("PLAY "), srv("+ MOVEOK"))
	script = append(script, srv("+ GAMEOVER"))
	script = append(script, field()...)
	script = append(script, srv("+ PLAYER0WON Yes"), srv("+ PLAYER1WON No"), srv("+ QUIT"))

	addr, serr := gameServer(t, script)
	var stats bytes.Buffer
	mode := playMode(addr, engine.New(rand.New(rand.NewPCG(1, 2))), &stats)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := <-serr; err != nil {
		t.Fatalf("server: %v", err)
	}
	if mode.Outcome() != game.OutcomeWon {
		t.Errorf("Outcome = %s, want won", mode.Outcome())
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal(stats.Bytes(), &snap); err != nil {
		t.Fatalf("stats %q: %v", stats.String(), err)
	}
	if snap.SessionID != "test-session" || snap.Outcome != "won" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Moves != 1 || snap.WaitRounds != 1 || snap.ErrorsTotal != 0 {
		t.Errorf("moves=%d waits=%d errors=%d", snap.Moves, snap.WaitRounds, snap.ErrorsTotal)
	}
	if snap.LinesOut != 6 {
		t.Errorf("lines out = %d, want 6", snap.LinesOut)
	}
}

// TestPlayMode_DialRefused verifies a refused connection is an
// ErrConnection and is counted.
func TestPlayMode_DialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	var stats bytes.Buffer
	mode := playMode(addr, engine.New(nil), &stats)
	err = mode.Run(context.Background())
	if !errors.Is(err, ncerr.ErrConnection) {
		t.Fatalf("error = %v, want ErrConnection", err)
	}
	if !strings.Contains(stats.String(), `"errors_total": 1`) {
		t.Errorf("stats = %s", stats.String())
	}
}

// TestPlayMode_EnginePanic verifies a crashed compute loop ends the
// game with ErrEngineUnavailable.
func TestPlayMode_EnginePanic(t *testing.T) {
	var script []line
	script = append(script, prolog()...)
	script = append(script, srv("+ MOVE 3000"), srv("+ NEXT 5"))
	script = append(script, field()...)
	script = append(script, cli("THINKING"), srv("+ OKTHINK"))

	addr, _ := gameServer(t, script)
	mode := playMode(addr, panicky{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := mode.Run(ctx)
	if !errors.Is(err, ncerr.ErrEngineUnavailable) {
		t.Fatalf("error = %v, want ErrEngineUnavailable", err)
	}
	if mode.Outcome() != game.OutcomeUnknown {
		t.Errorf("Outcome = %s", mode.Outcome())
	}
}

// TestPlayMode_Cancelled verifies cancellation releases a session that
// is blocked waiting for the server.
func TestPlayMode_Cancelled(t *testing.T) {
	addr, _ := gameServer(t, prolog())
	mode := playMode(addr, engine.New(nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- mode.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
