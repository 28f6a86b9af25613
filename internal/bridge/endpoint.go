package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/models"
)

// PollState is the outcome of the most recent poll of an endpoint.
type PollState string

const (
	PollPending PollState = "pending"
	PollRunning PollState = "polling"
	PollOK      PollState = "ok"
	PollFailed  PollState = "failed"
	PollStopped PollState = "stopped"
)

// PollStatus describes the poll loop of one endpoint.
type PollStatus struct {
	State       PollState `json:"state"`
	LastPoll    time.Time `json:"last_poll"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	NextPoll    time.Time `json:"next_poll"`
}

// Endpoint is one on/off switch standing for a (device, mode) pair.
type Endpoint struct {
	id  string
	key models.EndpointKey
	p   *Platform

	mu     sync.RWMutex
	device models.Device
	on     bool
	status PollStatus

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newEndpoint(rec models.EndpointRecord, p *Platform) *Endpoint {
	return &Endpoint{
		id:     rec.ID,
		key:    rec.Key(),
		p:      p,
		device: rec.Device(),
		status: PollStatus{State: PollPending},
	}
}

func (e *Endpoint) ID() string { return e.id }
func (e *Endpoint) Key() models.EndpointKey { return e.key }
func (e *Endpoint) DeviceID() string { return e.key.DeviceID }
func (e *Endpoint) Mode() models.Mode { return e.key.Mode }

// Device returns the device the endpoint belongs to.
func (e *Endpoint) Device() models.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

// Name is the display name shown to hosts, e.g. "Salon Eco".
func (e *Endpoint) Name() string {
	return e.Device().DisplayName() + " " + string(e.key.Mode)
}

// On reports the current switch view.
func (e *Endpoint) On() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.on
}

// Status returns a copy of the poll status.
func (e *Endpoint) Status() PollStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Set turns the endpoint on or off. Turning it on writes the endpoint's
// mode to the device; turning it off switches the whole device off, unless
// the device is known to be in another mode, in which case nothing is
// written. Local state changes only after the vendor accepted the write.
func (e *Endpoint) Set(ctx context.Context, on bool) error {
	p := e.p
	did := e.key.DeviceID
	target := models.ModeOff
	if on {
		target = e.key.Mode
	}

	if !on {
		if cur, ok := p.cache.Get(did); ok && cur.Mode != e.key.Mode {
			p.log.Debugw("endpoint_already_off", "endpoint", e.Name(), "device_id", did, "mode", cur.Mode)
			return nil
		}
	}

	code, err := gizwits.WriteCode(target)
	if err != nil {
		return err
	}

	token, err := p.tokens.Token(ctx)
	if err == nil {
		err = p.client.WriteMode(ctx, token, did, code)
	}
	if err != nil {
		p.log.Errorw("endpoint_set_failed", "endpoint", e.Name(), "device_id", did, "mode", target, "err", err)
		p.record(ctx, models.ModeEvent{
			Type:        models.EventWriteFailed,
			DeviceID:    did,
			Mode:        target,
			Description: fmt.Sprintf("failed to set %s to %s", e.Device().DisplayName(), target),
			Metadata:    map[string]any{"error": err.Error(), "code": code},
		})
		return fmt.Errorf("setting %s: %w", e.Name(), err)
	}

	p.cache.Set(did, target, p.now())
	if on {
		p.reconciler.ModeSet(did, target)
	} else {
		p.reconciler.Observe(did, models.ModeOff)
	}

	p.log.Infow("endpoint_set", "endpoint", e.Name(), "device_id", did, "mode", target)
	p.record(ctx, models.ModeEvent{
		Type:        models.EventModeSet,
		DeviceID:    did,
		Mode:        target,
		Description: fmt.Sprintf("%s set to %s", e.Device().DisplayName(), target),
		Metadata:    map[string]any{"endpoint_id": e.id, "code": code},
	})
	return nil
}

// Refresh reads the device mode and reconciles every endpoint of the
// device. Unless force is set, a cache entry younger than the freshness
// window is kept and the views are derived from it instead.
func (e *Endpoint) Refresh(ctx context.Context, force bool) error {
	e.markPolling()
	err := e.refresh(ctx, force)
	e.markPolled(err)
	return err
}

func (e *Endpoint) refresh(ctx context.Context, force bool) error {
	p := e.p
	did := e.key.DeviceID
	started := p.now()

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}
	st, err := p.client.ReadState(ctx, token, did)
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}

	mode, decodeErr := gizwits.DecodeMode(st.RawMode)

	// A write confirmed while the read was in flight is newer than the read.
	prev, written := p.cache.SetObserved(did, mode, force, started)
	if !written {
		p.reconciler.Observe(did, prev.Mode)
		return nil
	}
	p.reconciler.Observe(did, mode)

	if decodeErr != nil && prev.Mode != models.ModeUnknown {
		p.log.Warnw("device_unknown_mode_code", "device_id", did, "code", st.RawMode)
		p.record(ctx, models.ModeEvent{
			Type:        models.EventUnknownCode,
			DeviceID:    did,
			Mode:        models.ModeUnknown,
			Description: decodeErr.Error(),
			Metadata:    map[string]any{"code": st.RawMode},
		})
	}

	if prev.DeviceID == "" || prev.Mode != mode {
		p.log.Infow("device_mode_changed", "device_id", did, "from", prev.Mode, "to", mode)
		p.record(ctx, models.ModeEvent{
			Type:        models.EventModeChange,
			DeviceID:    did,
			Mode:        mode,
			Description: fmt.Sprintf("%s reported %s", e.Device().DisplayName(), mode),
			Metadata:    map[string]any{"previous": prev.Mode, "code": st.RawMode},
		})
	}
	return nil
}

// setView stores the switch view and reports whether it changed.
func (e *Endpoint) setView(on bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.on == on {
		return false
	}
	e.on = on
	return true
}

func (e *Endpoint) setDevice(d models.Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.device = d
}

func (e *Endpoint) markPolling() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.State = PollRunning
	e.status.LastPoll = e.p.now()
}

func (e *Endpoint) markPolled(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.status.State = PollFailed
		e.status.LastError = err.Error()
		return
	}
	e.status.State = PollOK
	e.status.LastError = ""
	e.status.LastSuccess = e.p.now()
}

func (e *Endpoint) setNextPoll(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.NextPoll = t
}

func (e *Endpoint) markStopped() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.State = PollStopped
	e.status.NextPoll = time.Time{}
}
