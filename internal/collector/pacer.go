package collector

import (
	"context"
	"time"
)

// DefaultPace keeps well under the feed's 1000 requests/hour ceiling
// (one request per 3.6s would saturate it).
const DefaultPace = 5 * time.Second

// Pacer gates successive feed requests.
type Pacer interface {
	Wait(ctx context.Context) error
}

type IntervalOption func(*Interval)

// IntervalWithClock injects a virtual clock, for tests.
func IntervalWithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) IntervalOption {
	return func(i *Interval) {
		i.now = now
		i.sleep = sleep
	}
}

// Interval is a fixed-interval gate: the first Wait passes immediately and
// each subsequent Wait blocks until the interval has elapsed since the
// previous one. It is not safe for concurrent use; the pipeline is strictly
// sequential.
type Interval struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	last     time.Time
}

func NewInterval(interval time.Duration, opts ...IntervalOption) *Interval {
	i := &Interval{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewIntervalForRate builds a gate from a calls-per-hour ceiling.
func NewIntervalForRate(callsPerHour int, opts ...IntervalOption) *Interval {
	return NewInterval(time.Hour/time.Duration(callsPerHour), opts...)
}

func (i *Interval) Wait(ctx context.Context) error {
	now := i.now()

	if !i.last.IsZero() {
		if wait := i.interval - now.Sub(i.last); wait > 0 {
			if err := i.sleep(ctx, wait); err != nil {
				return err
			}
			now = i.now()
		}
	}

	i.last = now
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
