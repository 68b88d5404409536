// Package poll drives repeated status checks of a remote task until it
// reaches a terminal state, a limit is hit, or the caller cancels.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/everstacklabs/kai/internal/task"
)

// Tuning defaults. The interval grows by BackoffFactor after every
// non-terminal tick and never exceeds MaxInterval.
const (
	DefaultInterval    = 2 * time.Second
	DefaultTimeout     = 10 * time.Minute
	DefaultMaxAttempts = 300
	BackoffFactor      = 1.2
	MaxInterval        = 10 * time.Second
)

var (
	// ErrTimeout is returned when the wall-clock budget is exhausted.
	ErrTimeout = errors.New("poll: timed out")
	// ErrMaxAttempts is returned when every allowed status fetch was used.
	ErrMaxAttempts = errors.New("poll: exceeded maximum attempts")
	// ErrCancelled is returned when the controller or context was cancelled.
	ErrCancelled = errors.New("poll: cancelled")
)

// LimitError reports which limit stopped polling. It wraps ErrTimeout or
// ErrMaxAttempts.
type LimitError struct {
	Err      error
	Timeout  time.Duration
	Attempts int
}

func (e *LimitError) Error() string {
	if errors.Is(e.Err, ErrTimeout) {
		return fmt.Sprintf("polling timed out after %dms", e.Timeout.Milliseconds())
	}
	return fmt.Sprintf("polling exceeded maximum attempts (%d)", e.Attempts)
}

func (e *LimitError) Unwrap() error {
	return e.Err
}

// StatusFunc fetches one observation of the task being polled.
type StatusFunc func(ctx context.Context) (task.Status, error)

// Controller is a cancellation flag shared between the poller and whoever
// may stop it. It is checked before every tick and after every fetch;
// in-flight fetches are never interrupted by it.
type Controller struct {
	cancelled atomic.Bool
}

// Cancel requests that polling stop at the next check point.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (c *Controller) Cancelled() bool {
	return c.cancelled.Load()
}

// Options tunes one Poll call. Zero values select the defaults.
type Options struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
	// OnProgress is called with every fetched status, terminal or not,
	// in fetch order.
	OnProgress func(task.Status)
	Controller *Controller
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// NextInterval returns the wait that follows an interval of cur.
func NextInterval(cur time.Duration) time.Duration {
	next := time.Duration(math.Round(float64(cur) * BackoffFactor))
	if next > MaxInterval {
		return MaxInterval
	}
	return next
}

// Poller runs the polling loop. The zero value is not usable; call New.
type Poller struct {
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the time source and the sleep between ticks.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		p.now = now
		p.sleep = sleep
	}
}

// New creates a Poller using the real clock.
func New(opts ...Option) *Poller {
	p := &Poller{now: time.Now, sleep: sleepContext}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPoller = New()

// Poll runs fetch with the default Poller.
func Poll(ctx context.Context, fetch StatusFunc, opts Options) (task.Status, error) {
	return defaultPoller.Poll(ctx, fetch, opts)
}

// Poll calls fetch until it reports a terminal status and returns that
// status. Ticks are strictly sequential. Fetch errors are returned as-is
// without retrying. A cancelled context is treated like a cancelled
// Controller.
func (p *Poller) Poll(ctx context.Context, fetch StatusFunc, opts Options) (task.Status, error) {
	opts = opts.withDefaults()
	start := p.now()
	interval := opts.Interval

	for attempt := 0; attempt < opts.MaxAttempts; {
		if err := cancelled(ctx, opts.Controller); err != nil {
			return task.Status{}, err
		}
		if p.now().Sub(start) > opts.Timeout {
			return task.Status{}, &LimitError{Err: ErrTimeout, Timeout: opts.Timeout, Attempts: attempt}
		}

		status, err := fetch(ctx)
		if err != nil {
			if cerr := cancelled(ctx, opts.Controller); cerr != nil {
				return task.Status{}, cerr
			}
			return task.Status{}, err
		}
		if err := cancelled(ctx, opts.Controller); err != nil {
			return task.Status{}, err
		}

		if opts.OnProgress != nil {
			opts.OnProgress(status)
		}
		if status.State.IsTerminal() {
			return status, nil
		}

		attempt++
		if attempt >= opts.MaxAttempts {
			break
		}

		interval = NextInterval(interval)
		slog.Debug("task not finished", "task_id", status.ID, "state", status.State, "attempt", attempt, "next_interval", interval)
		if err := p.sleep(ctx, interval); err != nil {
			return task.Status{}, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}

	return task.Status{}, &LimitError{Err: ErrMaxAttempts, Timeout: opts.Timeout, Attempts: opts.MaxAttempts}
}

func cancelled(ctx context.Context, c *Controller) error {
	if c != nil && c.Cancelled() {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
