// Package core is the orchestration layer.  It composes the transport,
// the protocol session and the decision engine into a complete game and
// provides a builder that assembles it from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  wire  →  session + coordinator  →  core  →  cmd (CLI)
package core

import "context"

// Mode is one complete run of quartoc.  It owns its full lifecycle from
// connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
