package bridge

import (
	"sort"
	"sync"

	"heatzy_bridge/internal/models"
)

// Plan is the outcome of reconciling the fetched devices with the known
// endpoints.
type Plan struct {
	ToKeep   []models.EndpointKey `json:"to_keep"`
	ToCreate []models.EndpointKey `json:"to_create"`
	ToRemove []models.EndpointKey `json:"to_remove"`
}

// Changed reports whether applying the plan adds or removes anything.
func (p Plan) Changed() bool {
	return len(p.ToCreate) > 0 || len(p.ToRemove) > 0
}

// Reconcile computes which (device, mode) pairs to keep, create and
// remove. Every fetched device gets one endpoint per selected mode; known
// pairs outside that set are removed. Duplicates in either input are
// ignored and the output order follows the inputs.
func Reconcile(fetched []models.Device, modes []models.Mode, existing []models.EndpointKey) Plan {
	desired := make(map[models.EndpointKey]struct{}, len(fetched)*len(modes))
	order := make([]models.EndpointKey, 0, len(fetched)*len(modes))
	for _, d := range fetched {
		for _, m := range modes {
			k := models.EndpointKey{DeviceID: d.ID, Mode: m}
			if _, dup := desired[k]; dup {
				continue
			}
			desired[k] = struct{}{}
			order = append(order, k)
		}
	}

	var plan Plan
	known := make(map[models.EndpointKey]struct{}, len(existing))
	for _, k := range existing {
		if _, dup := known[k]; dup {
			continue
		}
		known[k] = struct{}{}
		if _, ok := desired[k]; ok {
			plan.ToKeep = append(plan.ToKeep, k)
		} else {
			plan.ToRemove = append(plan.ToRemove, k)
		}
	}
	for _, k := range order {
		if _, ok := known[k]; !ok {
			plan.ToCreate = append(plan.ToCreate, k)
		}
	}
	return plan
}

// Registry indexes the live endpoints and their records.
type Registry struct {
	mu        sync.RWMutex
	records   map[models.EndpointKey]models.EndpointRecord
	endpoints map[models.EndpointKey]*Endpoint
}

func newRegistry() *Registry {
	return &Registry{
		records:   make(map[models.EndpointKey]models.EndpointRecord),
		endpoints: make(map[models.EndpointKey]*Endpoint),
	}
}

// Keys returns the keys of every known endpoint in a stable order.
func (r *Registry) Keys() []models.EndpointKey {
	r.mu.RLock()
	keys := make([]models.EndpointKey, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Record returns the record stored for key.
func (r *Registry) Record(key models.EndpointKey) (models.EndpointRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Get returns the live endpoint for key.
func (r *Registry) Get(key models.EndpointKey) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[key]
	return ep, ok
}

// ByID returns the live endpoint with the given identifier.
func (r *Registry) ByID(id string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ep := range r.endpoints {
		if ep.ID() == id {
			return ep, true
		}
	}
	return nil, false
}

// ByDevice returns the live endpoints of device did.
func (r *Registry) ByDevice(did string) []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Endpoint
	for k, ep := range r.endpoints {
		if k.DeviceID == did {
			out = append(out, ep)
		}
	}
	return out
}

// All returns every live endpoint ordered by device then mode name.
func (r *Registry) All() []*Endpoint {
	r.mu.RLock()
	out := make([]*Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// Len returns the number of known endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) put(rec models.EndpointRecord, ep *Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Key()] = rec
	r.endpoints[rec.Key()] = ep
}

func (r *Registry) remove(key models.EndpointKey) (models.EndpointRecord, *Endpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return models.EndpointRecord{}, nil, false
	}
	ep := r.endpoints[key]
	delete(r.records, key)
	delete(r.endpoints, key)
	return rec, ep, true
}
