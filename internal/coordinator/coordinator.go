// Package coordinator hands "decide now" requests from the protocol
// session to the compute executor and delivers the results back.
//
// The session side calls RequestDecision and then AwaitDecision, which
// blocks on whichever comes first: the result, server data arriving on
// the connection, the compute executor exiting, or cancellation.  The
// compute side is Run, a loop that sleeps until woken.
package coordinator

import (
	"context"
	"fmt"
	"time"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/engine"
	"quartoc/internal/game"
	"quartoc/internal/metrics"
	"quartoc/internal/state"
	"quartoc/util"
)

// ErrServerSpoke is returned by AwaitDecision when the server sent
// data while a decision was outstanding.
var ErrServerSpoke = fmt.Errorf("server sent data while a move was pending: %w", ncerr.ErrProtocolViolation)

// Coordinator is the handoff between the two executors.
type Coordinator struct {
	shared  *state.Shared
	decider engine.Decider
	logger  *util.Logger
	metrics *metrics.Collector

	wake    chan uint64       // session → compute, capacity 1
	results chan state.Result // compute → session, capacity 1
	done    chan struct{}     // closed when Run returns
}

// New wires a Coordinator around the shared record and a Decider.
func New(shared *state.Shared, decider engine.Decider, logger *util.Logger, m *metrics.Collector) *Coordinator {
	return &Coordinator{
		shared:  shared,
		decider: decider,
		logger:  logger,
		metrics: m,
		wake:    make(chan uint64, 1),
		results: make(chan state.Result, 1),
		done:    make(chan struct{}),
	}
}

// Done is closed once the compute loop has exited.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// ── Session side ─────────────────────────────────────────────────────

// RequestDecision commits board, blk and the move timeout to the shared
// record, clears the previous result and wakes the compute side.  It
// returns the request's sequence number and never blocks.
func (c *Coordinator) RequestDecision(board *game.Board, blk game.Block, timeout time.Duration) (uint64, error) {
	c.shared.SetBoard(board)
	c.shared.SetTurn(timeout, blk)
	req, ok := c.shared.Commit()
	if !ok {
		return 0, fmt.Errorf("coordinator: a decision is already outstanding")
	}
	select {
	case c.wake <- req.Seq:
	default:
		// The previous wake is still queued.  The compute side reads the
		// current request from the shared record, so it is not lost.
	}
	c.logger.Debug("decision %d requested (block %d, timeout %s)", req.Seq, blk, timeout)
	return req.Seq, nil
}

// AwaitDecision waits for the result of request seq.  A receive on
// netReady means the server spoke while the move was pending, which is
// a protocol violation.  A nil netReady is never ready.
func (c *Coordinator) AwaitDecision(ctx context.Context, seq uint64, netReady <-chan struct{}) (game.Move, error) {
	for {
		select {
		case r := <-c.results:
			if res, ok := c.accept(seq, r); ok {
				return res.Move, res.Err
			}
		case <-netReady:
			return game.Move{}, ErrServerSpoke
		case <-c.done:
			// A result written just before the loop exited still counts.
			select {
			case r := <-c.results:
				if res, ok := c.accept(seq, r); ok {
					return res.Move, res.Err
				}
			default:
			}
			return game.Move{}, ncerr.ErrEngineUnavailable
		case <-ctx.Done():
			return game.Move{}, ctx.Err()
		}
	}
}

func (c *Coordinator) accept(seq uint64, r state.Result) (state.Result, bool) {
	if r.Seq != seq {
		c.logger.Debug("dropping stale decision %d (waiting for %d)", r.Seq, seq)
		return state.Result{}, false
	}
	return c.shared.Consume(seq)
}

// ── Compute side ─────────────────────────────────────────────────────

// Run is the compute executor.  It waits for wake-ups, decides, and
// publishes results until ctx is cancelled.  A panic in the Decider
// ends the loop with an error, which AwaitDecision observes as
// ErrEngineUnavailable.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	defer close(c.done)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: decider panicked: %v", ncerr.ErrEngineUnavailable, p)
			c.logger.Error("%v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case seq := <-c.wake:
			req, ok := c.shared.Pending()
			if !ok {
				c.logger.Debug("wake %d with nothing pending", seq)
				continue
			}
			r := c.decide(req)
			if !c.shared.Store(r) {
				c.logger.Debug("decision %d superseded", r.Seq)
				continue
			}
			select {
			case c.results <- r:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (c *Coordinator) decide(req state.Request) state.Result {
	start := time.Now()
	m, err := c.decider.Decide(req.Board, req.Block)
	elapsed := time.Since(start)

	c.metrics.MoveDecided(elapsed)
	if err != nil {
		c.logger.Debug("decision %d failed after %s: %v", req.Seq, elapsed, err)
	} else {
		c.logger.Debug("decision %d: %s in %s", req.Seq, m, elapsed)
	}
	if req.Timeout > 0 && elapsed > req.Timeout {
		c.logger.Warn("decision %d took %s, server allows %s", req.Seq, elapsed, req.Timeout)
	}
	return state.Result{Seq: req.Seq, Move: m, Err: err}
}
