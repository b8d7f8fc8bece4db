package core

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"quartoc/internal/coordinator"
	ncerr "quartoc/internal/errors"
	"quartoc/internal/engine"
	"quartoc/internal/game"
	"quartoc/internal/metrics"
	"quartoc/internal/session"
	"quartoc/internal/state"
	"quartoc/internal/transport"
	"quartoc/internal/wire"
	"quartoc/util"
)

// PlayMode connects to the game server and plays one game.  The
// protocol session and the compute loop run as two members of an
// errgroup; whichever fails first ends the game.
type PlayMode struct {
	Dialer      transport.Dialer
	Address     string
	Session     session.Options
	Decider     engine.Decider
	MaxLineSize int
	Logger      *util.Logger
	Metrics     *metrics.Collector

	// Stats receives the metrics snapshot as JSON when the game ends.
	// Nil disables it.
	Stats io.Writer

	outcome game.Outcome
}

// Outcome is the result of the last Run.
func (m *PlayMode) Outcome() game.Outcome { return m.outcome }

// Run dials the server and plays until the game is over, a fatal error
// occurs or ctx is cancelled.  The connection is closed when Run
// returns.
func (m *PlayMode) Run(ctx context.Context) (err error) {
	defer m.Dialer.Close()
	defer func() {
		if err != nil {
			m.Metrics.RecordError(err.Error())
		}
		m.Logger.Verbose("session closed: %d bytes in, %d bytes out, %d moves, %d errors",
			m.Metrics.TotalBytesIn(), m.Metrics.TotalBytesOut(), m.Metrics.Moves(), m.Metrics.ErrorCount())
		if m.Stats != nil {
			fmt.Fprintln(m.Stats, m.Metrics.JSON())
		}
	}()

	m.Logger.Verbose("connecting to %s", m.Address)
	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	lines := wire.New(conn, m.Logger, wire.Options{
		MaxLineSize: m.MaxLineSize,
		Metrics:     m.Metrics,
	})
	defer lines.Close()
	m.Logger.Verbose("connected to %s", lines.RemoteAddr())

	shared := state.New()
	coord := coordinator.New(shared, m.Decider, m.Logger, m.Metrics)
	sess := session.New(lines, coord, shared, m.Logger, m.Metrics, m.Session)

	g, gctx := errgroup.WithContext(ctx)
	computeCtx, stopCompute := context.WithCancel(gctx)
	defer stopCompute()

	g.Go(func() error {
		return coord.Run(computeCtx)
	})
	g.Go(func() error {
		defer stopCompute()
		// Blocking reads do not watch ctx; closing the connection
		// releases them.
		release := context.AfterFunc(gctx, func() { lines.Close() })
		defer release()

		outcome, err := sess.Run(gctx)
		m.outcome = outcome
		return err
	})

	err = g.Wait()
	if cerr := ctx.Err(); cerr != nil && err != nil && !ncerr.Is(err, ncerr.ErrEngineUnavailable) {
		return fmt.Errorf("game aborted: %w", cerr)
	}
	return err
}
