package service

import (
	"context"
	"errors"

	"heatzy_bridge/internal/bridge"
)

var ErrSwitchNotFound = errors.New("switch not found")

// SwitchService maps the host boundary onto the platform endpoints.
type SwitchService struct {
	platform *bridge.Platform
}

func NewSwitchService(platform *bridge.Platform) *SwitchService {
	return &SwitchService{platform: platform}
}

func (s *SwitchService) List(ctx context.Context) []SwitchView {
	eps := s.platform.Endpoints()
	out := make([]SwitchView, 0, len(eps))
	for _, ep := range eps {
		out = append(out, switchView(ep))
	}
	return out
}

func (s *SwitchService) Get(ctx context.Context, id string) (SwitchView, error) {
	ep, ok := s.platform.Endpoint(id)
	if !ok {
		return SwitchView{}, ErrSwitchNotFound
	}
	return switchView(ep), nil
}

// Set writes the switch through to the device. The returned view reflects
// the state after the write.
func (s *SwitchService) Set(ctx context.Context, id string, on bool) (SwitchView, error) {
	ep, ok := s.platform.Endpoint(id)
	if !ok {
		return SwitchView{}, ErrSwitchNotFound
	}
	if err := ep.Set(ctx, on); err != nil {
		return switchView(ep), err
	}
	return switchView(ep), nil
}

func switchView(ep *bridge.Endpoint) SwitchView {
	d := ep.Device()
	return SwitchView{
		ID:         ep.ID(),
		Name:       ep.Name(),
		DeviceID:   d.ID,
		DeviceName: d.DisplayName(),
		Mode:       ep.Mode(),
		On:         ep.On(),
		Poll:       ep.Status(),
	}
}
