package bridge

import (
	"time"

	"heatzy_bridge/internal/models"
)

// Reconciler keeps the on/off view of every endpoint of a device in line
// with the device's mode and notifies hosts of the resulting changes.
type Reconciler struct {
	siblings func(did string) []*Endpoint
	hub      *Hub
	now      func() time.Time
}

// NewReconciler returns a reconciler that looks endpoints up through
// siblings and publishes to hub.
func NewReconciler(siblings func(did string) []*Endpoint, hub *Hub, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{siblings: siblings, hub: hub, now: now}
}

// Observe applies a mode read from the device: the endpoint of that mode
// turns on and every other endpoint of the device turns off. Only views
// that actually change are notified.
func (r *Reconciler) Observe(did string, mode models.Mode) {
	for _, ep := range r.siblings(did) {
		r.push(ep, ep.Mode() == mode, false)
	}
}

// ModeSet applies a mode the bridge just wrote. Every endpoint of the
// device is notified, including those whose view already matched, so a
// host holding its own optimistic state is corrected.
func (r *Reconciler) ModeSet(did string, mode models.Mode) {
	for _, ep := range r.siblings(did) {
		r.push(ep, ep.Mode() == mode, true)
	}
}

func (r *Reconciler) push(ep *Endpoint, on, always bool) {
	changed := ep.setView(on)
	if !changed && !always {
		return
	}
	if r.hub == nil {
		return
	}
	r.hub.Publish(Change{
		Kind:       ChangeState,
		EndpointID: ep.ID(),
		DeviceID:   ep.DeviceID(),
		Name:       ep.Name(),
		Mode:       ep.Mode(),
		On:         on,
		At:         r.now(),
	})
}
