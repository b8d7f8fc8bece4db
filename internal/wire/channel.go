// Package wire frames the game server's byte stream into protocol
// lines.  A Channel owns one connection: it returns exactly one
// newline-terminated line per ReceiveLine call, keeps any bytes read
// past the delimiter for the next call, and writes each outgoing line
// together with its delimiter in a single Write.
package wire

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/metrics"
	"quartoc/util"
)

// Delimiter terminates every protocol line.
const Delimiter = '\n'

// DefaultMaxLineSize bounds a single line including its delimiter.
const DefaultMaxLineSize = 256

// pollWindow is how long HasPendingData lets the socket produce bytes.
// A deadline already in the past makes net.Conn.Read fail without
// looking at the socket, so a short window in the future is used.
const pollWindow = time.Millisecond

// Options tunes a Channel.  The zero value is usable.
type Options struct {
	MaxLineSize int                // 0 → DefaultMaxLineSize
	Metrics     *metrics.Collector // optional
}

// Channel is a line-oriented view of a net.Conn.  ReceiveLine,
// HasPendingData and Watch must be called from a single goroutine;
// Send may be called concurrently.
type Channel struct {
	conn    net.Conn
	logger  *util.Logger
	metrics *metrics.Collector
	max     int

	buf     []byte // bytes read past the last delimiter
	scratch []byte
	readErr error // deferred read error, returned once buf is drained

	sendMu sync.Mutex
}

// New wraps conn.
func New(conn net.Conn, logger *util.Logger, opts Options) *Channel {
	max := opts.MaxLineSize
	if max <= 0 {
		max = DefaultMaxLineSize
	}
	return &Channel{
		conn:    conn,
		logger:  logger,
		metrics: opts.Metrics,
		max:     max,
		buf:     make([]byte, 0, max),
		scratch: make([]byte, max),
	}
}

// RemoteAddr returns the peer address for diagnostics.
func (c *Channel) RemoteAddr() string {
	if a := c.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// ReceiveLine blocks until a full line is available and returns it
// without the delimiter.  Buffered bytes are consumed before any new
// read is issued.
func (c *Channel) ReceiveLine() (string, error) {
	for {
		if i := bytes.IndexByte(c.buf, Delimiter); i >= 0 {
			if i+1 > c.max {
				return "", c.tooLarge()
			}
			line := string(c.buf[:i])
			n := copy(c.buf, c.buf[i+1:])
			c.buf = c.buf[:n]

			c.metrics.LineReceived()
			c.logger.Server(line)
			return line, nil
		}
		if len(c.buf) >= c.max {
			return "", c.tooLarge()
		}
		if c.readErr != nil {
			err := c.readErr
			c.readErr = nil
			return "", err
		}

		n, err := c.conn.Read(c.scratch)
		c.absorb(c.scratch[:n], err)
	}
}

// Send writes line followed by the delimiter.  Both go out in one
// Write, so the call either fully succeeds or fails.
func (c *Channel) Send(line string) error {
	if strings.IndexByte(line, Delimiter) >= 0 {
		return fmt.Errorf("send: line %q contains the delimiter", line)
	}
	if len(line)+1 > c.max {
		return fmt.Errorf("send: %w (%d bytes, limit %d)", ncerr.ErrMessageTooLarge, len(line)+1, c.max)
	}

	out := make([]byte, 0, len(line)+1)
	out = append(out, line...)
	out = append(out, Delimiter)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.logger.Client(line)
	n, err := c.conn.Write(out)
	c.metrics.BytesSent(int64(n))
	if err != nil {
		return ncerr.Wrap("write", c.RemoteAddr(), err)
	}
	if n != len(out) {
		return ncerr.Wrap("write", c.RemoteAddr(), io.ErrShortWrite)
	}
	c.metrics.LineSent()
	return nil
}

// HasPendingData reports whether a line fragment is already buffered
// or the transport has bytes ready.  Bytes it reads stay buffered for
// the next ReceiveLine.
func (c *Channel) HasPendingData() bool {
	if len(c.buf) > 0 || c.readErr != nil {
		return true
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(pollWindow)); err != nil {
		return false
	}
	n, err := c.conn.Read(c.scratch)
	c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck
	c.absorb(c.scratch[:n], err)
	return len(c.buf) > 0 || c.readErr != nil
}

// Watch starts a background read and returns a channel that is closed
// as soon as the server sends anything or the connection fails.  The
// returned stop function must be called before any other read method;
// it interrupts the background read and waits for it to return, so
// nothing is read concurrently afterwards and no byte is lost.
func (c *Channel) Watch() (ready <-chan struct{}, stop func()) {
	ch := make(chan struct{})
	if len(c.buf) > 0 || c.readErr != nil {
		close(ch)
		return ch, func() {}
	}

	var (
		data []byte
		rerr error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		n, err := c.conn.Read(c.scratch)
		data, rerr = c.scratch[:n], err
		if n > 0 || (err != nil && !isTimeout(err)) {
			close(ch)
		}
	}()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.conn.SetReadDeadline(time.Unix(1, 0)) //nolint:errcheck
			<-done
			c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck
			c.absorb(data, rerr)
		})
	}
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}

// absorb appends freshly read bytes and records a read error for later.
// Deadline expiries caused by polling are not errors.
func (c *Channel) absorb(data []byte, err error) {
	if len(data) > 0 {
		c.buf = append(c.buf, data...)
		c.metrics.BytesReceived(int64(len(data)))
	}
	if err == nil || isTimeout(err) {
		return
	}
	if err == io.EOF {
		err = fmt.Errorf("connection closed by server: %w", io.EOF)
	}
	c.readErr = ncerr.Wrap("read", c.RemoteAddr(), err)
}

func (c *Channel) tooLarge() error {
	return fmt.Errorf("receive: %w (no delimiter within %d bytes)", ncerr.ErrMessageTooLarge, c.max)
}

func isTimeout(err error) bool {
	return ncerr.Is(err, os.ErrDeadlineExceeded)
}
