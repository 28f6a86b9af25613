package service

import (
	"time"

	"heatzy_bridge/internal/bridge"
	"heatzy_bridge/internal/models"
)

// SwitchView is the host-facing state of one endpoint.
type SwitchView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	DeviceID   string            `json:"device_id"`
	DeviceName string            `json:"device_name"`
	Mode       models.Mode       `json:"mode"`
	On         bool              `json:"on"`
	Poll       bridge.PollStatus `json:"poll"`
}

// DeviceView is a device together with its cached mode and endpoints.
type DeviceView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Mode      models.Mode  `json:"mode,omitempty"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
	Stale     bool         `json:"stale"`
	Switches  []SwitchView `json:"switches"`
}

// SyncResult summarises a device list reconciliation.
type SyncResult struct {
	Devices int `json:"devices"`
	Kept    int `json:"kept"`
	Created int `json:"created"`
	Removed int `json:"removed"`
}

// StatusReport describes the bridge at a glance.
type StatusReport struct {
	Endpoints      int               `json:"endpoints"`
	Devices        int               `json:"devices"`
	Authenticated  bool              `json:"authenticated"`
	SessionExpires *time.Time        `json:"session_expires_at,omitempty"`
	LastSync       bridge.SyncStatus `json:"last_sync"`
	Subscribers    int               `json:"subscribers"`
}

// LogFilter supports history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "MODE_CHANGE", "MODE_SET", "WRITE_FAILED", ...
	DeviceID string
	Limit    int
}
