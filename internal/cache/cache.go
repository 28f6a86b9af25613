// Package cache holds the last known mode of every device.
package cache

import (
	"sort"
	"sync"
	"time"

	"heatzy_bridge/internal/models"
)

// DefaultFreshness is how long an entry shields itself from unforced writes.
const DefaultFreshness = 60 * time.Second

// Store is a concurrency-safe map of device id to last known mode. Entries
// are never evicted by age; staleness only gates conditional writes.
type Store struct {
	freshness time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]models.CacheEntry
}

// New returns an empty store. A non-positive freshness uses DefaultFreshness.
func New(freshness time.Duration) *Store {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Store{
		freshness: freshness,
		now:       time.Now,
		entries:   make(map[string]models.CacheEntry),
	}
}

// Freshness returns the configured freshness window.
func (s *Store) Freshness() time.Duration { return s.freshness }

// Get returns the entry of did, if any.
func (s *Store) Get(did string) (models.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[did]
	return e, ok
}

// Set overwrites the entry of did unconditionally.
func (s *Store) Set(did string, mode models.Mode, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[did] = models.CacheEntry{DeviceID: did, Mode: mode, Timestamp: ts}
}

// SetIfStaleOrForced writes mode for did when force is set, when no entry
// exists, or when the existing entry is older than the freshness window.
// It returns the previous entry and whether the write happened.
func (s *Store) SetIfStaleOrForced(did string, mode models.Mode, force bool) (models.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prev, ok := s.entries[did]
	if ok && !force && !s.isStale(prev, now) {
		return prev, false
	}
	s.entries[did] = models.CacheEntry{DeviceID: did, Mode: mode, Timestamp: now}
	return prev, true
}

// SetObserved is SetIfStaleOrForced for a mode read that started at since.
// An entry written at or after since, such as a confirmed write, is newer
// than the read and is never overwritten, forced or not.
func (s *Store) SetObserved(did string, mode models.Mode, force bool, since time.Time) (models.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prev, ok := s.entries[did]
	if ok && !prev.Timestamp.Before(since) {
		return prev, false
	}
	if ok && !force && !s.isStale(prev, now) {
		return prev, false
	}
	s.entries[did] = models.CacheEntry{DeviceID: did, Mode: mode, Timestamp: now}
	return prev, true
}

// IsStale reports whether e is older than the freshness window at now.
func (s *Store) IsStale(e models.CacheEntry, now time.Time) bool {
	return s.isStale(e, now)
}

func (s *Store) isStale(e models.CacheEntry, now time.Time) bool {
	return e.Age(now) > s.freshness
}

// Delete drops the entry of did.
func (s *Store) Delete(did string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, did)
}

// Snapshot returns every entry ordered by device id.
func (s *Store) Snapshot() []models.CacheEntry {
	s.mu.RLock()
	out := make([]models.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}
