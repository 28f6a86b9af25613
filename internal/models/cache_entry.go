package models

import "time"

// CacheEntry is the last known mode of a device and when it was recorded.
type CacheEntry struct {
	DeviceID  string    `json:"device_id"`
	Mode      Mode      `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// Age returns how long ago the entry was recorded relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}
