package service

import (
	"context"

	"heatzy_bridge/internal/bridge"
	"heatzy_bridge/internal/session"
)

// SessionState is the read side of the vendor session.
type SessionState interface {
	NeedsAuthentication() bool
	Current() session.Session
}

type StatusService struct {
	platform *bridge.Platform
	session  SessionState
}

func NewStatusService(platform *bridge.Platform, session SessionState) *StatusService {
	return &StatusService{platform: platform, session: session}
}

func (s *StatusService) Status(ctx context.Context) StatusReport {
	eps := s.platform.Endpoints()
	devices := make(map[string]struct{}, len(eps))
	for _, ep := range eps {
		devices[ep.DeviceID()] = struct{}{}
	}

	r := StatusReport{
		Endpoints:   len(eps),
		Devices:     len(devices),
		LastSync:    s.platform.LastSync(),
		Subscribers: s.platform.Hub().Subscribers(),
	}
	if s.session != nil {
		r.Authenticated = !s.session.NeedsAuthentication()
		if cur := s.session.Current(); !cur.ExpiresAt.IsZero() {
			exp := cur.ExpiresAt
			r.SessionExpires = &exp
		}
	}
	return r
}
