package bridge

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"heatzy_bridge/internal/cache"
	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/logger"
	"heatzy_bridge/internal/models"
)

type fakeTokens struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeTokens) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "tok", nil
}

type write struct {
	did  string
	code int
}

type fakeClient struct {
	mu       sync.Mutex
	devices  []models.Device
	listErr  error
	codes    map[string]string
	readErr  error
	writeErr error
	writes   []write
	reads    int

	entered chan struct{}
	release chan struct{}
}

func newFakeClient(devices ...models.Device) *fakeClient {
	return &fakeClient{devices: devices, codes: make(map[string]string)}
}

func (f *fakeClient) ListDevices(ctx context.Context, token string) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Device, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *fakeClient) ReadState(ctx context.Context, token, did string) (gizwits.State, error) {
	f.mu.Lock()
	f.reads++
	readErr := f.readErr
	code, ok := f.codes[did]
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if release != nil {
		entered <- struct{}{}
		<-release
	}
	if readErr != nil {
		return gizwits.State{}, readErr
	}
	if !ok {
		return gizwits.State{}, errors.New("no such device")
	}
	return gizwits.State{RawMode: code}, nil
}

// holdReads makes every ReadState signal entered once it has captured the
// device state and then wait for release to be closed.
func (f *fakeClient) holdReads() (entered chan struct{}, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{}, 1)
	f.release = make(chan struct{})
	return f.entered, f.release
}

func (f *fakeClient) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *fakeClient) WriteMode(ctx context.Context, token, did string, code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, write{did: did, code: code})
	return nil
}

func (f *fakeClient) setCode(did, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[did] = code
}

func (f *fakeClient) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type memStore struct {
	mu   sync.Mutex
	recs map[string]models.EndpointRecord
}

func newMemStore(recs ...models.EndpointRecord) *memStore {
	s := &memStore{recs: make(map[string]models.EndpointRecord)}
	for _, r := range recs {
		s.recs[r.ID] = r
	}
	return s
}

func (s *memStore) List(ctx context.Context) ([]models.EndpointRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EndpointRecord, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Save(ctx context.Context, rec models.EndpointRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

type memEvents struct {
	mu     sync.Mutex
	events []models.ModeEvent
}

func (m *memEvents) Append(ctx context.Context, e models.ModeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) countType(typ string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type testEnv struct {
	platform *Platform
	client   *fakeClient
	tokens   *fakeTokens
	store    *memStore
	events   *memEvents
	cache    *cache.Store
}

func newTestEnv(modes []models.Mode, devices ...models.Device) *testEnv {
	env := &testEnv{
		client: newFakeClient(devices...),
		tokens: &fakeTokens{},
		store:  newMemStore(),
		events: &memEvents{},
		cache:  cache.New(time.Minute),
	}
	env.platform = NewPlatform(Options{
		Tokens: env.tokens,
		Client: env.client,
		Cache:  env.cache,
		Store:  env.store,
		Events: env.events,
		Modes:  modes,
		Log:    logger.Nop(),
	})
	return env
}

func (env *testEnv) endpoint(did string, m models.Mode) *Endpoint {
	ep, ok := env.platform.Registry().Get(models.EndpointKey{DeviceID: did, Mode: m})
	if !ok {
		return nil
	}
	return ep
}
