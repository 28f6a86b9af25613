package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"heatzy_bridge/internal/models"
)

func TestScheduleNextWithinBounds(t *testing.T) {
	s := DefaultSchedule()
	for i := 0; i < 500; i++ {
		d := s.Next()
		if d < 65*time.Second || d > 70*time.Second {
			t.Fatalf("delay %v outside [65s, 70s]", d)
		}
	}
}

func TestScheduleNextWithoutJitter(t *testing.T) {
	s := Schedule{Interval: time.Second}
	if d := s.Next(); d != time.Second {
		t.Fatalf("delay = %v", d)
	}
	s = Schedule{Interval: time.Second, JitterMin: 3 * time.Second, JitterMax: time.Second}
	if d := s.Next(); d != 4*time.Second {
		t.Fatalf("inverted jitter should clamp to min, got %v", d)
	}
}

func TestRun_KeepsPollingThroughFailures(t *testing.T) {
	env := syncedEnv(t)
	env.platform.sched = Schedule{Interval: 5 * time.Millisecond}
	env.client.setCode("X1", "cft1")
	env.client.setReadErr(errors.New("vendor unavailable"))

	ep := env.endpoint("X1", models.ModeEco)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ep.start(ctx)
	defer ep.stop()

	waitFor(t, func() bool { return env.client.readCount() >= 3 })
	waitFor(t, func() bool {
		st := ep.Status()
		return st.State == PollFailed && !st.NextPoll.IsZero()
	})
	if ep.Status().LastError == "" {
		t.Fatal("failed poll must record its error")
	}
	if !ep.Running() {
		t.Fatal("loop stopped after failures")
	}

	failed := env.client.readCount()
	env.client.setReadErr(nil)
	waitFor(t, func() bool { return ep.Status().State == PollOK && ep.On() })
	waitFor(t, func() bool { return env.client.readCount() > failed+1 })

	st := ep.Status()
	if st.LastSuccess.IsZero() {
		t.Fatalf("status = %+v", st)
	}
}
