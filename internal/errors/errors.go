// Package errors provides domain-specific error types for quartoc.
//
// Every fatal condition of a game session maps onto one of the sentinel
// errors below.  The structured types carry context (state, field,
// address) for diagnostics and unwrap to their sentinel, so callers
// classify failures with [Is] rather than string matching.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrConnection covers transport failures and a premature close.
	ErrConnection = errors.New("connection error")
	// ErrProtocolViolation is an unexpected line or pattern mismatch.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrMalformedField is a bad numeric field or board token.
	ErrMalformedField = errors.New("malformed field")
	// ErrMessageTooLarge means no delimiter appeared before the framing limit.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrEngineUnavailable means the compute executor is gone.
	ErrEngineUnavailable = errors.New("decision engine unavailable")
	// ErrNoCandidate means the engine was asked to pick from nothing.
	ErrNoCandidate = errors.New("no candidate to choose from")

	ErrTunnelClosed = errors.New("tunnel is closed")
	ErrNotConnected = errors.New("not connected")
	ErrAuthFailed   = errors.New("authentication failed")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.  It matches
// both [ErrConnection] and the underlying error.
type NetworkError struct {
	Op   string // operation: "dial", "read", "write", "close"
	Addr string // network address involved
	Err  error  // underlying error
}

func (e *NetworkError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// ProtocolError records a server line that did not match what the
// current protocol state expects.
type ProtocolError struct {
	State string // protocol state the session was in
	Got   string // the offending line, verbatim
	Want  string // human-readable description of the expected line
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: unexpected server message %q, expected %s",
		e.State, e.Got, e.Want)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocolViolation }

// FieldError describes a value that parsed as the right shape but
// could not be converted (bad integer, unequal board sides, …).
type FieldError struct {
	Field string // "player number", "board width", …
	Value string
	Err   error // optional cause, e.g. a *strconv.NumError
}

func (e *FieldError) Error() string {
	msg := "malformed " + e.Field
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedField}
	}
	return []error{ErrMalformedField, e.Err}
}

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// Unexpected builds a ProtocolError for state.
func Unexpected(state, got, want string) *ProtocolError {
	return &ProtocolError{State: state, Got: got, Want: want}
}

// Malformed builds a FieldError.
func Malformed(field, value string, err error) *FieldError {
	return &FieldError{Field: field, Value: value, Err: err}
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }
