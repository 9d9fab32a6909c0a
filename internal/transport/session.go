package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultHeartbeat      = 4 * time.Second
)

var (
	// ErrSessionEnded is reported for a session that closed without an error.
	ErrSessionEnded   = errors.New("session ended")
	ErrAlreadyStarted = errors.New("subscriber already started")
	ErrStopped        = errors.New("subscriber stopped")
)

// SessionFunc runs one broker connection until it ends. It calls ready once
// the subscription is in place.
type SessionFunc func(ctx context.Context, ready func()) error

// Runner keeps sessions alive with a fixed delay between attempts until
// Stop is called.
type Runner struct {
	base    *Base
	delay   time.Duration
	session SessionFunc

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRunner(base *Base, delay time.Duration, session SessionFunc) *Runner {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Runner{base: base, delay: delay, session: session}
}

// Start launches the reconnect loop and waits until the first session is
// ready or has failed. The loop outlives ctx; only Stop ends it.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrStopped
	}
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(context.Background())
	r.started = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	first := make(chan error, 1)
	var once sync.Once
	report := func(err error) {
		once.Do(func() { first <- err })
	}

	go func() {
		defer close(r.done)
		err := retry.Do(
			func() error {
				err := r.session(runCtx, func() { report(nil) })
				if runCtx.Err() != nil {
					return retry.Unrecoverable(runCtx.Err())
				}
				if err == nil {
					err = ErrSessionEnded
				}
				report(err)
				return err
			},
			retry.Context(runCtx),
			retry.Attempts(0),
			retry.Delay(r.delay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				r.base.Logger().Warn("session ended, reconnecting",
					"attempt", n+1,
					"delay", r.delay,
					"error", err,
				)
			}),
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.base.Logger().Error("reconnect loop stopped", "error", err)
		}
	}()

	select {
	case err := <-first:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the running session and waits for the loop to exit.
// Safe to call more than once and before Start.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether the loop has been started and not stopped.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.stopped
}
