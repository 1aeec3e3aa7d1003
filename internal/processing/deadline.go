package processing

import (
	"context"
	"errors"
	"time"
)

var ErrDeadlineExceeded = errors.New("[Deadline] run deadline exceeded")

// Deadline is an optional wall-clock limit for a run. The zero value never expires.
type Deadline struct {
	at  time.Time
	now func() time.Time
}

func NewDeadline(at time.Time, now func() time.Time) Deadline {
	if now == nil {
		now = time.Now
	}
	return Deadline{at: at, now: now}
}

// DeadlineAfter starts a budget of d from now. A non-positive d means no deadline.
func DeadlineAfter(d time.Duration, now func() time.Time) Deadline {
	if d <= 0 {
		return Deadline{}
	}
	if now == nil {
		now = time.Now
	}
	return NewDeadline(now().Add(d), now)
}

func (d Deadline) IsSet() bool {
	return !d.at.IsZero()
}

func (d Deadline) At() time.Time {
	return d.at
}

func (d Deadline) Exceeded() bool {
	return d.IsSet() && !d.now().Before(d.at)
}

// Remaining returns the time left, or -1 when no deadline is set.
func (d Deadline) Remaining() time.Duration {
	if !d.IsSet() {
		return -1
	}
	return max(d.at.Sub(d.now()), 0)
}

// Earlier returns whichever deadline expires first.
func (d Deadline) Earlier(other Deadline) Deadline {
	switch {
	case !d.IsSet():
		return other
	case !other.IsSet():
		return d
	case other.at.Before(d.at):
		return other
	default:
		return d
	}
}

// Bound derives a context that is cancelled with ErrDeadlineExceeded as its
// cause once the deadline passes. Without a deadline it only adds a cancel.
func (d Deadline) Bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if !d.IsSet() {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, d.Remaining(), ErrDeadlineExceeded)
}

// Expired reports whether the deadline passed or ctx ran out because of it.
func (d Deadline) Expired(ctx context.Context) bool {
	return d.Exceeded() || errors.Is(context.Cause(ctx), ErrDeadlineExceeded)
}
