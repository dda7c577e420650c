package location

import (
	"sync"
	"time"

	"manhunt/internal/model"
)

const (
	// DefaultHistorySize bounds how many recent fixes are retained per player.
	DefaultHistorySize = 3

	// DefaultHistoryTTL controls when idle player histories are evicted.
	DefaultHistoryTTL = 10 * time.Minute

	sweepInterval = time.Minute
)

type locationFix struct {
	Latitude  float64
	Longitude float64
	At        time.Time
}

// HistoryManager keeps a bounded window of recent location fixes per player
// and produces smoothed coordinates to dampen GPS jitter.
type HistoryManager struct {
	mu        sync.RWMutex
	histories map[string][]locationFix
	capacity  int
	ttl       time.Duration
	lastSweep time.Time

	now func() time.Time
}

// NewHistoryManager creates a manager retaining up to capacity fixes per
// player. Histories untouched for ttl are evicted lazily on writes.
func NewHistoryManager(capacity int, ttl time.Duration) *HistoryManager {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryManager{
		histories: make(map[string][]locationFix),
		capacity:  capacity,
		ttl:       ttl,
		now:       time.Now,
	}
}

// AddLocation records a fix for the player stamped with the current time.
func (m *HistoryManager) AddLocation(playerID string, lat, lng float64) {
	m.AddLocationAt(playerID, lat, lng, m.now())
}

// AddLocationAt records a fix with an explicit timestamp. The oldest fix is
// dropped once the per-player window is full.
func (m *HistoryManager) AddLocationAt(playerID string, lat, lng float64, at time.Time) {
	if playerID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.histories[playerID], locationFix{Latitude: lat, Longitude: lng, At: at})
	if len(history) > m.capacity {
		history = history[len(history)-m.capacity:]
	}
	m.histories[playerID] = history

	m.sweepLocked(at)
}

// SmoothedLocation blends the retained history with the current raw fix by
// averaging coordinates. With no history the raw fix is returned unchanged.
// The call does not mutate history, so identical inputs always produce
// identical output.
func (m *HistoryManager) SmoothedLocation(playerID string, rawLat, rawLng float64) model.Coordinate {
	m.mu.RLock()
	history := m.histories[playerID]

	sumLat, sumLng := rawLat, rawLng
	for _, fix := range history {
		sumLat += fix.Latitude
		sumLng += fix.Longitude
	}
	n := float64(len(history) + 1)
	m.mu.RUnlock()

	return model.Coordinate{Latitude: sumLat / n, Longitude: sumLng / n}
}

// HistorySize returns the number of retained fixes for the player.
func (m *HistoryManager) HistorySize(playerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.histories[playerID])
}

// LastFixTime returns the timestamp of the player's newest retained fix and
// whether any history exists.
func (m *HistoryManager) LastFixTime(playerID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.histories[playerID]
	if len(history) == 0 {
		return time.Time{}, false
	}
	return history[len(history)-1].At, true
}

// ClearHistory drops all retained fixes for the player.
func (m *HistoryManager) ClearHistory(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, playerID)
}

// ClearAll drops every player's history.
func (m *HistoryManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories = make(map[string][]locationFix)
}

// sweepLocked evicts players whose newest fix is older than the TTL. Runs at
// most once per sweepInterval; caller must hold the write lock.
func (m *HistoryManager) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now

	cutoff := now.Add(-m.ttl)
	for playerID, history := range m.histories {
		if history[len(history)-1].At.Before(cutoff) {
			delete(m.histories, playerID)
		}
	}
}
