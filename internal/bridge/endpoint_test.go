package bridge

import (
	"context"
	"errors"
	"testing"

	"heatzy_bridge/internal/models"
)

func syncedEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(models.SelectableModes(), models.Device{ID: "X1", Name: "Salon"})
	if _, err := env.platform.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return env
}

func assertViews(t *testing.T, env *testEnv, did string, on models.Mode) {
	t.Helper()
	for _, m := range models.SelectableModes() {
		ep := env.endpoint(did, m)
		if ep == nil {
			t.Fatalf("missing endpoint %s %s", did, m)
		}
		if want := m == on; ep.On() != want {
			t.Errorf("%s On() = %v, want %v", ep.Name(), ep.On(), want)
		}
	}
}

func TestRefresh_ObservedModeTurnsOnlyThatEndpointOn(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft1")

	if err := env.endpoint("X1", models.ModeConfort).Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	assertViews(t, env, "X1", models.ModeEco)
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeEco {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	if env.events.countType(models.EventModeChange) != 1 {
		t.Fatalf("expected one mode change event")
	}
}

func TestRefresh_StopTurnsEverythingOff(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft1")
	ep := env.endpoint("X1", models.ModeEco)
	if err := ep.Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	env.client.setCode("X1", "stop")
	if err := ep.Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	assertViews(t, env, "X1", models.ModeOff)
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeOff {
		t.Fatalf("cache mode = %q", e.Mode)
	}
}

func TestRefresh_UnknownCode(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "boost")

	if err := env.endpoint("X1", models.ModeSleep).Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	assertViews(t, env, "X1", models.ModeUnknown)
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeUnknown {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	if env.events.countType(models.EventUnknownCode) != 1 {
		t.Fatal("expected an unknown code event")
	}
}

func TestRefresh_AuthFailureLeavesStateAlone(t *testing.T) {
	env := syncedEnv(t)
	env.tokens.err = errors.New("login rejected")

	ep := env.endpoint("X1", models.ModeEco)
	if err := ep.Refresh(context.Background(), true); err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := env.cache.Get("X1"); ok {
		t.Fatal("cache must stay empty")
	}
	if st := ep.Status(); st.State != PollFailed || st.LastError == "" {
		t.Fatalf("unexpected status %+v", st)
	}
	if env.client.readCount() != 0 {
		t.Fatal("state must not be read without a token")
	}
}

func TestSet_ConfortFlipsEcoOff(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft1")
	if err := env.endpoint("X1", models.ModeEco).Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	changes, cancel := env.platform.Hub().Subscribe(16)
	defer cancel()

	if err := env.endpoint("X1", models.ModeConfort).Set(context.Background(), true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if len(env.client.writes) != 1 || env.client.writes[0] != (write{did: "X1", code: 0}) {
		t.Fatalf("writes = %+v", env.client.writes)
	}
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeConfort {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	assertViews(t, env, "X1", models.ModeConfort)

	ecoOff := false
	for len(changes) > 0 {
		c := <-changes
		if c.Mode == models.ModeEco && !c.On {
			ecoOff = true
		}
	}
	if !ecoOff {
		t.Fatal("Eco endpoint was not told it is off")
	}
}

func TestSet_OffWritesStopCode(t *testing.T) {
	env := syncedEnv(t)
	ep := env.endpoint("X1", models.ModeEcoPlus)
	if err := ep.Set(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if err := ep.Set(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	last := env.client.writes[len(env.client.writes)-1]
	if last.code != 3 {
		t.Fatalf("off write code = %d", last.code)
	}
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeOff {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	assertViews(t, env, "X1", models.ModeOff)
}

func TestSet_FailureLeavesStateUnchanged(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft1")
	if err := env.endpoint("X1", models.ModeEco).Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	before, _ := env.cache.Get("X1")

	env.client.writeErr = errors.New("vendor unavailable")
	if err := env.endpoint("X1", models.ModeConfort).Set(context.Background(), true); err == nil {
		t.Fatal("expected an error")
	}

	if after, _ := env.cache.Get("X1"); after != before {
		t.Fatalf("cache changed from %+v to %+v", before, after)
	}
	assertViews(t, env, "X1", models.ModeEco)
	if env.events.countType(models.EventWriteFailed) != 1 {
		t.Fatal("expected a write failure event")
	}
}

func TestSet_FreshWriteWinsOverUnforcedPoll(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft1")

	if err := env.endpoint("X1", models.ModeConfort).Set(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	// The vendor still reports the previous mode.
	if err := env.endpoint("X1", models.ModeEco).Refresh(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeConfort {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	assertViews(t, env, "X1", models.ModeConfort)
}

func TestSet_EcoRoundTrip(t *testing.T) {
	env := syncedEnv(t)
	if err := env.endpoint("X1", models.ModeEco).Set(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if env.client.writes[0].code != 4 {
		t.Fatalf("Eco write code = %d", env.client.writes[0].code)
	}

	env.client.setCode("X1", "cft1")
	if err := env.endpoint("X1", models.ModeEco).Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	assertViews(t, env, "X1", models.ModeEco)
}

func TestSet_WriteDuringForcedReadWins(t *testing.T) {
	env := syncedEnv(t)
	env.client.setCode("X1", "cft")
	entered, release := env.client.holdReads()

	done := make(chan error, 1)
	go func() {
		done <- env.endpoint("X1", models.ModeConfort).Refresh(context.Background(), true)
	}()
	<-entered

	if err := env.endpoint("X1", models.ModeEco).Set(context.Background(), true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeEco {
		t.Fatalf("cache mode = %q, the confirmed write was overwritten", e.Mode)
	}
	assertViews(t, env, "X1", models.ModeEco)
	if n := env.events.countType(models.EventModeChange); n != 0 {
		t.Fatalf("mode change events = %d", n)
	}
}

func TestRefresh_UnknownCodeRecordedOncePerEpisode(t *testing.T) {
	env := syncedEnv(t)
	ep := env.endpoint("X1", models.ModeSleep)
	refresh := func(code string) {
		t.Helper()
		env.client.setCode("X1", code)
		if err := ep.Refresh(context.Background(), true); err != nil {
			t.Fatalf("Refresh(%s): %v", code, err)
		}
	}

	refresh("boost")
	refresh("boost")
	refresh("boost")
	if n := env.events.countType(models.EventUnknownCode); n != 1 {
		t.Fatalf("unknown code events = %d, want 1", n)
	}

	refresh("cft1")
	refresh("boost")
	if n := env.events.countType(models.EventUnknownCode); n != 2 {
		t.Fatalf("unknown code events = %d, want 2", n)
	}
}

func TestSet_OffOnInactiveEndpointWritesNothing(t *testing.T) {
	env := syncedEnv(t)
	if err := env.endpoint("X1", models.ModeEco).Set(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	if err := env.endpoint("X1", models.ModeConfort).Set(context.Background(), false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	if len(env.client.writes) != 1 {
		t.Fatalf("writes = %+v", env.client.writes)
	}
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeEco {
		t.Fatalf("cache mode = %q", e.Mode)
	}
	assertViews(t, env, "X1", models.ModeEco)
}

func TestSet_OffWithoutKnownStateWritesStopCode(t *testing.T) {
	env := syncedEnv(t)
	if err := env.endpoint("X1", models.ModeConfort).Set(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if len(env.client.writes) != 1 || env.client.writes[0].code != 3 {
		t.Fatalf("writes = %+v", env.client.writes)
	}
	if e, _ := env.cache.Get("X1"); e.Mode != models.ModeOff {
		t.Fatalf("cache mode = %q", e.Mode)
	}
}
