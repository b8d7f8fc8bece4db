// Package metrics provides lightweight, lock-free counters for tracking
// runtime statistics of a quartoc session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one game session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	bytesIn     atomic.Int64
	bytesOut    atomic.Int64
	linesIn     atomic.Int64
	linesOut    atomic.Int64
	waits       atomic.Int64
	moves       atomic.Int64
	thinkNanos  atomic.Int64
	maxThink    atomic.Int64
	errorsTotal atomic.Int64

	mu           sync.RWMutex
	sessionID    string
	startTime    time.Time
	outcome      string
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector for the given session ID with the
// start time set to now.
func New(sessionID string) *Collector {
	return &Collector{sessionID: sessionID, startTime: time.Now()}
}

// ── Wire metrics ─────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// LineReceived counts one complete protocol line from the server.
func (c *Collector) LineReceived() {
	if c == nil {
		return
	}
	c.linesIn.Add(1)
}

// LineSent counts one protocol line written to the server.
func (c *Collector) LineSent() {
	if c == nil {
		return
	}
	c.linesOut.Add(1)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Game metrics ─────────────────────────────────────────────────────

// WaitRound counts one WAIT/OKWAIT exchange.
func (c *Collector) WaitRound() {
	if c == nil {
		return
	}
	c.waits.Add(1)
}

// MoveDecided records a finished think and how long it took.
func (c *Collector) MoveDecided(d time.Duration) {
	if c == nil {
		return
	}
	c.moves.Add(1)
	c.thinkNanos.Add(int64(d))
	for {
		cur := c.maxThink.Load()
		if int64(d) <= cur || c.maxThink.CompareAndSwap(cur, int64(d)) {
			return
		}
	}
}

// Moves returns the number of moves decided.
func (c *Collector) Moves() int64 {
	if c == nil {
		return 0
	}
	return c.moves.Load()
}

// SetOutcome stores the final game result.
func (c *Collector) SetOutcome(outcome string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.outcome = outcome
	c.mu.Unlock()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	SessionID        string `json:"session_id,omitempty"`
	Uptime           string `json:"uptime"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	LinesIn          int64  `json:"lines_in"`
	LinesOut         int64  `json:"lines_out"`
	WaitRounds       int64  `json:"wait_rounds"`
	Moves            int64  `json:"moves"`
	AvgThink         string `json:"avg_think,omitempty"`
	MaxThink         string `json:"max_think,omitempty"`
	Outcome          string `json:"outcome,omitempty"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		SessionID:   c.sessionID,
		Uptime:      time.Since(c.startTime).Truncate(time.Millisecond).String(),
		BytesIn:     c.bytesIn.Load(),
		BytesOut:    c.bytesOut.Load(),
		LinesIn:     c.linesIn.Load(),
		LinesOut:    c.linesOut.Load(),
		WaitRounds:  c.waits.Load(),
		Moves:       c.moves.Load(),
		Outcome:     c.outcome,
		ErrorsTotal: c.errorsTotal.Load(),
	}
	if s.Moves > 0 {
		avg := time.Duration(c.thinkNanos.Load() / s.Moves)
		s.AvgThink = avg.String()
		s.MaxThink = time.Duration(c.maxThink.Load()).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
