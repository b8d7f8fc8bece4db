package transport

import (
	"context"
	"net"

	ncerr "quartoc/internal/errors"
	"quartoc/internal/retry"
	"quartoc/util"
)

// RetryDialer retries a failing Dial with exponential backoff.  Only
// the connection attempt is retried; once connected, failures are
// final.
type RetryDialer struct {
	Dialer  Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
}

// Dial calls the wrapped Dialer until it succeeds or the backoff gives
// up.  Authentication and host-key failures are not retried.
func (d *RetryDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var conn net.Conn
	err := d.Backoff.Do(ctx, func(attempt int) error {
		c, err := d.Dialer.Dial(ctx, network, address)
		if err == nil {
			conn = c
			return nil
		}
		var se *ncerr.SSHError
		if ncerr.As(err, &se) || ncerr.Is(err, ncerr.ErrAuthFailed) {
			return retry.Permanent(err)
		}
		d.Logger.Warn("connect attempt %d to %s failed: %v", attempt, address, err)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close closes the wrapped Dialer.
func (d *RetryDialer) Close() error { return d.Dialer.Close() }
