package orm

import (
	"context"
	"time"
)

// Clock reports the instant written to timestamp columns.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Frozen returns a Clock stuck at t.
func Frozen(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

type clockKey struct{}

// WithClock attaches c to ctx. Writes issued with the returned context stamp
// createdAt and updatedAt columns from c rather than the wall clock.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

// ClockFrom returns the Clock attached to ctx by WithClock.
func ClockFrom(ctx context.Context) (Clock, bool) {
	c, ok := ctx.Value(clockKey{}).(Clock)
	return c, ok && c != nil
}

// Now is the time a write issued with ctx would stamp.
func Now(ctx context.Context) time.Time {
	if c, ok := ClockFrom(ctx); ok {
		return c.Now()
	}
	return time.Now()
}
