package wire

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/metrics"
	"quartoc/util"
)

// countingConn counts Read calls on the client side of a pipe.
type countingConn struct {
	net.Conn
	reads atomic.Int32
}

func (c *countingConn) Read(p []byte) (int, error) {
	c.reads.Add(1)
	return c.Conn.Read(p)
}

// newPipe returns a Channel on one end of a TCP loopback connection and
// the server end.  TCP is used instead of net.Pipe so that a single
// server Write can arrive as one burst.
func newPipe(t *testing.T, opts Options) (*Channel, *countingConn, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server, ok := <-accepted
	require.True(t, ok, "accept failed")

	cc := &countingConn{Conn: client}
	ch := New(cc, util.NewLogger(0), opts)
	t.Cleanup(func() {
		ch.Close()
		server.Close()
	})
	return ch, cc, server
}

func TestReceiveLine_Single(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	_, err := server.Write([]byte("+ MNM Gameserver v2.3 accepting connections\n"))
	require.NoError(t, err)

	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ MNM Gameserver v2.3 accepting connections", line)
}

func TestReceiveLine_TwoLinesOneBurst(t *testing.T) {
	ch, cc, server := newPipe(t, Options{})

	_, err := server.Write([]byte("+ WAIT\n+ GAMEOVER\n"))
	require.NoError(t, err)

	// Wait until both lines are on the socket so one read gets them.
	time.Sleep(20 * time.Millisecond)

	first, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ WAIT", first)
	readsAfterFirst := cc.reads.Load()

	second, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ GAMEOVER", second)
	assert.Equal(t, readsAfterFirst, cc.reads.Load(), "second line must come from the leftover buffer")
}

func TestReceiveLine_SplitAcrossReads(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	go func() {
		server.Write([]byte("+ PLAY"))          //nolint:errcheck
		time.Sleep(10 * time.Millisecond)       // force a second read
		server.Write([]byte("ING Quarto\n+ G")) //nolint:errcheck
		time.Sleep(10 * time.Millisecond)
		server.Write([]byte("ame\n")) //nolint:errcheck
	}()

	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ PLAYING Quarto", line)

	line, err = ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ Game", line)
}

func TestReceiveLine_TooLarge(t *testing.T) {
	ch, _, server := newPipe(t, Options{MaxLineSize: 16})

	go server.Write([]byte(strings.Repeat("x", 40) + "\n")) //nolint:errcheck

	_, err := ch.ReceiveLine()
	require.Error(t, err)
	assert.ErrorIs(t, err, ncerr.ErrMessageTooLarge)
}

func TestReceiveLine_ExactLimit(t *testing.T) {
	ch, _, server := newPipe(t, Options{MaxLineSize: 8})

	go server.Write([]byte("1234567\n")) //nolint:errcheck

	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "1234567", line)
}

func TestReceiveLine_CloseBeforeDelimiter(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	server.Write([]byte("+ partial")) //nolint:errcheck
	server.Close()

	_, err := ch.ReceiveLine()
	require.Error(t, err)
	assert.ErrorIs(t, err, ncerr.ErrConnection)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReceiveLine_BufferedLinesBeforeClose(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	server.Write([]byte("+ QUIT\n")) //nolint:errcheck
	server.Close()

	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ QUIT", line)

	_, err = ch.ReceiveLine()
	assert.ErrorIs(t, err, ncerr.ErrConnection)
}

func TestSend_RoundTrip(t *testing.T) {
	m := metrics.New("t")
	ch, _, server := newPipe(t, Options{Metrics: m})

	lines := []string{"VERSION 2.0", "ID abcdefghijklm", "PLAY B3,7", ""}
	go func() {
		for _, l := range lines {
			ch.Send(l) //nolint:errcheck
		}
	}()

	r := bufio.NewReader(server)
	for _, want := range lines {
		got, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, want+"\n", got)
	}
	assert.Eventually(t, func() bool { return m.Snapshot().LinesOut == int64(len(lines)) },
		time.Second, 5*time.Millisecond)
}

func TestSendReceive_Echo(t *testing.T) {
	ch, _, server := newPipe(t, Options{})
	go io.Copy(server, server) //nolint:errcheck

	for _, want := range []string{"+ 4 * * * *", "PLAYER 1", "+ YOU 0 Alice"} {
		require.NoError(t, ch.Send(want))
		got, err := ch.ReceiveLine()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSend_RejectsDelimiter(t *testing.T) {
	ch, _, _ := newPipe(t, Options{})
	assert.Error(t, ch.Send("PLAY A1\nPLAY B2"))
}

func TestHasPendingData(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	assert.False(t, ch.HasPendingData(), "nothing sent yet")

	server.Write([]byte("+ OKTHINK\n")) //nolint:errcheck
	assert.Eventually(t, ch.HasPendingData, time.Second, 5*time.Millisecond)

	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ OKTHINK", line)
	assert.False(t, ch.HasPendingData())
}

func TestWatch_StopWithoutData(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	ready, stop := ch.Watch()
	select {
	case <-ready:
		t.Fatal("ready without data")
	case <-time.After(20 * time.Millisecond):
	}
	stop()
	stop() // idempotent

	// The channel still works normally after the watch.
	server.Write([]byte("+ MOVEOK\n")) //nolint:errcheck
	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ MOVEOK", line)
}

func TestWatch_DataKeptForReceive(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	ready, stop := ch.Watch()
	server.Write([]byte("+ WAIT\n")) //nolint:errcheck

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("watch did not fire")
	}
	stop()

	assert.True(t, ch.HasPendingData())
	line, err := ch.ReceiveLine()
	require.NoError(t, err)
	assert.Equal(t, "+ WAIT", line)
}

func TestWatch_FiresOnClose(t *testing.T) {
	ch, _, server := newPipe(t, Options{})

	ready, stop := ch.Watch()
	server.Close()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("watch did not fire on close")
	}
	stop()

	_, err := ch.ReceiveLine()
	assert.ErrorIs(t, err, ncerr.ErrConnection)
}
