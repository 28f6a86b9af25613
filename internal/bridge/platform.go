// Package bridge exposes every (device, mode) pair of a Heatzy account as
// an on/off endpoint and keeps the endpoints of a device mutually
// exclusive.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"heatzy_bridge/internal/cache"
	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/logger"
	"heatzy_bridge/internal/models"
)

// DefaultSyncInterval is how often the device list is fetched again.
const DefaultSyncInterval = 15 * time.Minute

var errAlreadyStarted = errors.New("platform already started")

// TokenSource hands out a vendor token ready to send.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DeviceClient is the part of the vendor API the bridge relies on.
type DeviceClient interface {
	ListDevices(ctx context.Context, token string) ([]models.Device, error)
	ReadState(ctx context.Context, token, did string) (gizwits.State, error)
	WriteMode(ctx context.Context, token, did string, code int) error
}

// EndpointStore persists the set of known endpoints across restarts.
type EndpointStore interface {
	List(ctx context.Context) ([]models.EndpointRecord, error)
	Save(ctx context.Context, rec models.EndpointRecord) error
	Delete(ctx context.Context, id string) error
}

// EventRecorder appends entries to the audit log.
type EventRecorder interface {
	Append(ctx context.Context, e models.ModeEvent) error
}

// Options configures a Platform. Store and Events are optional.
type Options struct {
	Tokens       TokenSource
	Client       DeviceClient
	Cache        *cache.Store
	Store        EndpointStore
	Events       EventRecorder
	Modes        []models.Mode
	Schedule     Schedule
	SyncInterval time.Duration
	Log          *logger.Logger
}

// SyncStatus describes the last device list reconciliation.
type SyncStatus struct {
	At      time.Time `json:"at"`
	Devices int       `json:"devices"`
	Error   string    `json:"error,omitempty"`
}

// Platform owns the endpoints of one account and the state they share.
type Platform struct {
	tokens       TokenSource
	client       DeviceClient
	cache        *cache.Store
	store        EndpointStore
	events       EventRecorder
	modes        []models.Mode
	sched        Schedule
	syncInterval time.Duration
	log          *logger.Logger
	now          func() time.Time

	hub        *Hub
	registry   *Registry
	reconciler *Reconciler

	syncMu   sync.Mutex
	lastSync SyncStatus

	runMu  sync.Mutex
	runCtx context.Context
}

// NewPlatform wires a platform from opts. Endpoint loops start with Start.
func NewPlatform(opts Options) *Platform {
	log := logger.OrNop(opts.Log)
	modes := opts.Modes
	if len(modes) == 0 {
		modes = models.SelectableModes()
	}
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.DefaultFreshness)
	}
	sched := opts.Schedule
	if sched == (Schedule{}) {
		sched = DefaultSchedule()
	}

	p := &Platform{
		tokens:       opts.Tokens,
		client:       opts.Client,
		cache:        c,
		store:        opts.Store,
		events:       opts.Events,
		modes:        modes,
		sched:        sched,
		syncInterval: opts.SyncInterval,
		log:          log,
		now:          time.Now,
		hub:          NewHub(log),
		registry:     newRegistry(),
	}
	p.reconciler = NewReconciler(p.registry.ByDevice, p.hub, func() time.Time { return p.now() })
	return p
}

func (p *Platform) Hub() *Hub { return p.hub }
func (p *Platform) Cache() *cache.Store { return p.cache }
func (p *Platform) Reconciler() *Reconciler { return p.reconciler }
func (p *Platform) Registry() *Registry { return p.registry }

// Modes returns the selected modes.
func (p *Platform) Modes() []models.Mode {
	out := make([]models.Mode, len(p.modes))
	copy(out, p.modes)
	return out
}

// Endpoints returns every live endpoint.
func (p *Platform) Endpoints() []*Endpoint { return p.registry.All() }

// Endpoint looks an endpoint up by identifier.
func (p *Platform) Endpoint(id string) (*Endpoint, bool) { return p.registry.ByID(id) }

// LastSync returns the status of the most recent Sync.
func (p *Platform) LastSync() SyncStatus {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()
	return p.lastSync
}

// Start restores the persisted endpoints, fetches the device list and
// launches one poll loop per endpoint. The loops live until ctx is
// cancelled or Stop is called. A failed initial fetch is logged and
// retried on the next sync tick.
func (p *Platform) Start(ctx context.Context) error {
	p.runMu.Lock()
	if p.runCtx != nil {
		p.runMu.Unlock()
		return errAlreadyStarted
	}
	p.runCtx = ctx
	p.runMu.Unlock()

	p.restore(ctx)
	if _, err := p.Sync(ctx); err != nil {
		p.log.Errorw("platform_initial_sync_failed", "err", err)
	}
	if p.syncInterval > 0 {
		go p.syncLoop(ctx)
	}
	p.log.Infow("platform_started", "endpoints", p.registry.Len(), "modes", p.modes)
	return nil
}

// Run starts the platform and blocks until ctx is cancelled.
func (p *Platform) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return nil
}

// Stop halts every poll loop and waits for them to exit.
func (p *Platform) Stop() {
	for _, ep := range p.registry.All() {
		ep.stop()
	}
	p.log.Infow("platform_stopped")
}

// Sync fetches the device list and applies the resulting plan. When the
// fetch fails nothing is created or removed.
func (p *Platform) Sync(ctx context.Context) (Plan, error) {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	devices, err := p.fetchDevices(ctx)
	if err != nil {
		p.lastSync = SyncStatus{At: p.now(), Error: err.Error()}
		return Plan{}, fmt.Errorf("fetching devices: %w", err)
	}

	names := make([]string, 0, len(devices))
	byID := make(map[string]models.Device, len(devices))
	for _, d := range devices {
		names = append(names, d.DisplayName())
		byID[d.ID] = d
	}
	p.log.Infow("devices_fetched", "count", len(devices), "names", names)

	plan := Reconcile(devices, p.modes, p.registry.Keys())
	for _, k := range plan.ToRemove {
		p.removeEndpoint(ctx, k)
	}
	for _, k := range plan.ToKeep {
		p.keepEndpoint(ctx, k, byID[k.DeviceID])
	}
	for _, k := range plan.ToCreate {
		p.createEndpoint(ctx, byID[k.DeviceID], k.Mode)
	}

	p.lastSync = SyncStatus{At: p.now(), Devices: len(devices)}
	if plan.Changed() {
		p.log.Infow("endpoints_reconciled", "kept", len(plan.ToKeep), "created", len(plan.ToCreate), "removed", len(plan.ToRemove))
	}
	return plan, nil
}

func (p *Platform) fetchDevices(ctx context.Context) ([]models.Device, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return p.client.ListDevices(ctx, token)
}

func (p *Platform) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(p.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Sync(ctx); err != nil && ctx.Err() == nil {
				p.log.Warnw("platform_sync_failed", "err", err)
			}
		}
	}
}

// restore instantiates the endpoints persisted by a previous run. Records
// of modes that are no longer selected are deleted instead.
func (p *Platform) restore(ctx context.Context) {
	if p.store == nil {
		return
	}
	recs, err := p.store.List(ctx)
	if err != nil {
		p.log.Warnw("endpoints_restore_failed", "err", err)
		return
	}
	selected := make(map[models.Mode]bool, len(p.modes))
	for _, m := range p.modes {
		selected[m] = true
	}

	restored := 0
	for _, rec := range recs {
		if !selected[rec.Mode] {
			if err := p.store.Delete(ctx, rec.ID); err != nil {
				p.log.Warnw("endpoint_delete_failed", "endpoint", rec.DisplayName, "err", err)
			}
			p.log.Infow("endpoint_deselected", "endpoint", rec.DisplayName, "id", rec.ID)
			continue
		}
		ep := newEndpoint(rec, p)
		p.registry.put(rec, ep)
		p.startEndpoint(ep)
		restored++
	}
	if restored > 0 {
		p.log.Infow("endpoints_restored", "count", restored)
	}
}

func (p *Platform) createEndpoint(ctx context.Context, d models.Device, m models.Mode) {
	rec := models.NewEndpointRecord(d, m, p.now())
	p.save(ctx, rec)

	ep := newEndpoint(rec, p)
	p.registry.put(rec, ep)
	p.hub.Publish(Change{Kind: ChangeAdded, EndpointID: ep.ID(), DeviceID: d.ID, Name: ep.Name(), Mode: m, At: p.now()})
	p.record(ctx, models.ModeEvent{
		Type:        models.EventEndpointAdded,
		DeviceID:    d.ID,
		Mode:        m,
		Description: "endpoint added: " + rec.DisplayName,
		Metadata:    map[string]any{"endpoint_id": rec.ID},
	})
	p.log.Infow("endpoint_added", "endpoint", rec.DisplayName, "id", rec.ID)
	p.startEndpoint(ep)
}

// keepEndpoint refreshes the device alias of a kept endpoint and makes sure
// its loop runs.
func (p *Platform) keepEndpoint(ctx context.Context, key models.EndpointKey, d models.Device) {
	rec, ok := p.registry.Record(key)
	if !ok {
		return
	}
	ep, live := p.registry.Get(key)
	if !live {
		ep = newEndpoint(rec, p)
	}
	if rec.DeviceName != d.Name {
		updated := models.NewEndpointRecord(d, key.Mode, rec.CreatedAt)
		updated.ID = rec.ID
		rec = updated
		p.save(ctx, rec)
		ep.setDevice(d)
	}
	p.registry.put(rec, ep)
	p.startEndpoint(ep)
}

func (p *Platform) removeEndpoint(ctx context.Context, key models.EndpointKey) {
	rec, ep, ok := p.registry.remove(key)
	if !ok {
		return
	}
	if ep != nil {
		ep.stop()
	}
	if p.store != nil {
		if err := p.store.Delete(ctx, rec.ID); err != nil {
			p.log.Warnw("endpoint_delete_failed", "endpoint", rec.DisplayName, "err", err)
		}
	}
	if len(p.registry.ByDevice(key.DeviceID)) == 0 {
		p.cache.Delete(key.DeviceID)
	}

	p.hub.Publish(Change{Kind: ChangeRemoved, EndpointID: rec.ID, DeviceID: rec.DeviceID, Name: rec.DisplayName, Mode: rec.Mode, At: p.now()})
	p.record(ctx, models.ModeEvent{
		Type:        models.EventEndpointRemoved,
		DeviceID:    rec.DeviceID,
		Mode:        rec.Mode,
		Description: "endpoint removed: " + rec.DisplayName,
		Metadata:    map[string]any{"endpoint_id": rec.ID},
	})
	p.log.Infow("endpoint_removed", "endpoint", rec.DisplayName, "id", rec.ID)
}

// startEndpoint launches the loop of ep once the platform runs.
func (p *Platform) startEndpoint(ep *Endpoint) {
	p.runMu.Lock()
	ctx := p.runCtx
	p.runMu.Unlock()
	if ctx == nil {
		return
	}
	ep.start(ctx)
}

func (p *Platform) save(ctx context.Context, rec models.EndpointRecord) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, rec); err != nil {
		p.log.Warnw("endpoint_save_failed", "endpoint", rec.DisplayName, "err", err)
	}
}

func (p *Platform) record(ctx context.Context, e models.ModeEvent) {
	if p.events == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now()
	}
	if err := p.events.Append(ctx, e); err != nil {
		p.log.Debugw("event_append_failed", "type", e.Type, "err", err)
	}
}
