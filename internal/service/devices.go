package service

import (
	"context"
	"time"

	"heatzy_bridge/internal/bridge"
)

// DeviceService groups endpoints per device and triggers re-syncs.
type DeviceService struct {
	platform *bridge.Platform
	now      func() time.Time
}

func NewDeviceService(platform *bridge.Platform) *DeviceService {
	return &DeviceService{platform: platform, now: time.Now}
}

// List returns every device that has at least one endpoint, in endpoint
// order.
func (s *DeviceService) List(ctx context.Context) []DeviceView {
	c := s.platform.Cache()
	now := s.now()

	var (
		out   []DeviceView
		index = make(map[string]int)
	)
	for _, ep := range s.platform.Endpoints() {
		did := ep.DeviceID()
		i, ok := index[did]
		if !ok {
			dv := DeviceView{ID: did, Name: ep.Device().DisplayName(), Stale: true}
			if e, found := c.Get(did); found {
				ts := e.Timestamp
				dv.Mode = e.Mode
				dv.UpdatedAt = &ts
				dv.Stale = c.IsStale(e, now)
			}
			out = append(out, dv)
			i = len(out) - 1
			index[did] = i
		}
		out[i].Switches = append(out[i].Switches, switchView(ep))
	}
	return out
}

// Sync fetches the device list now instead of waiting for the next tick.
func (s *DeviceService) Sync(ctx context.Context) (SyncResult, error) {
	plan, err := s.platform.Sync(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{
		Devices: s.platform.LastSync().Devices,
		Kept:    len(plan.ToKeep),
		Created: len(plan.ToCreate),
		Removed: len(plan.ToRemove),
	}, nil
}
