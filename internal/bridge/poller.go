package bridge

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultJitterMin    = 5 * time.Second
	DefaultJitterMax    = 10 * time.Second
)

// Schedule spaces the polls of one endpoint: every delay is Interval plus
// a uniform jitter in [JitterMin, JitterMax].
type Schedule struct {
	Interval  time.Duration
	JitterMin time.Duration
	JitterMax time.Duration
}

// DefaultSchedule polls roughly every 65 to 70 seconds.
func DefaultSchedule() Schedule {
	return Schedule{Interval: DefaultPollInterval, JitterMin: DefaultJitterMin, JitterMax: DefaultJitterMax}
}

// Next returns the delay before the next poll.
func (s Schedule) Next() time.Duration {
	lo, hi := s.JitterMin, s.JitterMax
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	jitter := lo
	if span := hi - lo; span > 0 {
		jitter += rand.N(span + 1) // #nosec G404 -- jitter does not need crypto randomness
	}
	return s.Interval + jitter
}

// run polls until ctx is cancelled. The first cycle bypasses the cache
// freshness check.
func (e *Endpoint) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	e.poll(ctx, true)
	for {
		delay := e.p.sched.Next()
		e.setNextPoll(e.p.now().Add(delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.markStopped()
			return
		case <-timer.C:
			e.poll(ctx, false)
		}
	}
}

func (e *Endpoint) poll(ctx context.Context, force bool) {
	if err := e.Refresh(ctx, force); err != nil && ctx.Err() == nil {
		e.p.log.Warnw("endpoint_poll_failed", "endpoint", e.Name(), "device_id", e.DeviceID(), "err", err)
	}
}

// start launches the poll loop under parent. Starting a running endpoint
// is a no-op.
func (e *Endpoint) start(parent context.Context) {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.run(ctx, e.done)
}

// stop cancels the poll loop and waits for it to exit.
func (e *Endpoint) stop() {
	e.lifeMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poll loop is active.
func (e *Endpoint) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.cancel != nil
}
