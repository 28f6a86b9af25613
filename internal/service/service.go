package service

import (
	"context"

	"heatzy_bridge/internal/bridge"
	"heatzy_bridge/internal/models"
	"heatzy_bridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Switches exposes the per-endpoint on/off operations.
type Switches interface {
	List(ctx context.Context) []SwitchView
	Get(ctx context.Context, id string) (SwitchView, error)
	Set(ctx context.Context, id string, on bool) (SwitchView, error)
}

// Devices exposes the known devices and the device list reconciliation.
type Devices interface {
	List(ctx context.Context) []DeviceView
	Sync(ctx context.Context) (SyncResult, error)
}

// EventLog exposes the audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ModeEvent, error)
}

// Notifications streams endpoint changes.
type Notifications interface {
	Subscribe(buffer int) (<-chan bridge.Change, func())
}

// Status reports the health of the bridge.
type Status interface {
	Status(ctx context.Context) StatusReport
}

// Service aggregates all sub-services.
type Service struct {
	Switches
	Devices
	EventLog
	Notifications
	Status
	Authorization
}

// NewService wires the repositories and the running platform into the
// concrete services.
func NewService(repos *repository.Repository, platform *bridge.Platform, session SessionState, auth AuthOptions) *Service {
	return &Service{
		Switches:      NewSwitchService(platform),
		Devices:       NewDeviceService(platform),
		EventLog:      NewEventLogService(repos.EventRepo),
		Notifications: platform.Hub(),
		Status:        NewStatusService(platform, session),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
