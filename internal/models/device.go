package models

import (
	"time"

	"github.com/google/uuid"
)

// UnnamedDevice is used when the vendor reports an empty alias.
const UnnamedDevice = "Unnamed Device"

// endpointNamespace seeds the name-based UUIDs of endpoints.
var endpointNamespace = uuid.MustParse("5b0f7f3e-8d41-4c36-9d1e-2a6a1c0e4f11")

// Device is a physical heater reported by the vendor cloud.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName returns the alias or a placeholder when the alias is empty.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return UnnamedDevice
	}
	return d.Name
}

// EndpointKey identifies an endpoint by the (device, mode) pair it exposes.
type EndpointKey struct {
	DeviceID string
	Mode     Mode
}

func (k EndpointKey) String() string {
	return k.DeviceID + " " + string(k.Mode)
}

// ID derives the stable endpoint identifier. The same pair always yields
// the same identifier across restarts.
func (k EndpointKey) ID() string {
	return uuid.NewSHA1(endpointNamespace, []byte(k.String())).String()
}

// EndpointRecord is the persisted form of a known endpoint.
type EndpointRecord struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	DeviceName  string    `json:"device_name"`
	Mode        Mode      `json:"mode"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the (device, mode) pair of the record.
func (r EndpointRecord) Key() EndpointKey {
	return EndpointKey{DeviceID: r.DeviceID, Mode: r.Mode}
}

// Device rebuilds the device the record was created from.
func (r EndpointRecord) Device() Device {
	return Device{ID: r.DeviceID, Name: r.DeviceName}
}

// NewEndpointRecord builds the record for device d and mode m.
func NewEndpointRecord(d Device, m Mode, createdAt time.Time) EndpointRecord {
	key := EndpointKey{DeviceID: d.ID, Mode: m}
	return EndpointRecord{
		ID:          key.ID(),
		DeviceID:    d.ID,
		DeviceName:  d.Name,
		Mode:        m,
		DisplayName: d.DisplayName() + " " + string(m),
		CreatedAt:   createdAt,
	}
}
