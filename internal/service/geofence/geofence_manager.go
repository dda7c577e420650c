package geofence

import (
	"context"
	"log"
	"sync"
	"time"

	"manhunt/internal/model"
)

// EventType classifies a boundary-relative transition.
type EventType int

const (
	EventEnterBoundary EventType = iota
	EventExitBoundary
	EventApproachingBoundary
)

func (t EventType) String() string {
	switch t {
	case EventEnterBoundary:
		return "ENTER_BOUNDARY"
	case EventExitBoundary:
		return "EXIT_BOUNDARY"
	case EventApproachingBoundary:
		return "APPROACHING_BOUNDARY"
	default:
		return "UNKNOWN"
	}
}

// Event describes a detected boundary transition for one player.
// DistanceToBoundaryMeters is signed: positive inside, negative outside.
type Event struct {
	GameID                   string
	PlayerID                 string
	Location                 model.Coordinate
	Type                     EventType
	DistanceToBoundaryMeters float64
	At                       time.Time
}

// Listener receives boundary events synchronously as they are detected.
type Listener func(Event)

// ContainmentOracle answers whether a coordinate lies inside a game's
// boundary and how far it is from the boundary edge.
type ContainmentOracle interface {
	ContainsLocation(ctx context.Context, gameID string, loc model.Coordinate) (bool, error)
	// DistanceToBoundary returns a signed distance in meters: positive
	// inside the boundary, negative outside.
	DistanceToBoundary(ctx context.Context, gameID string, loc model.Coordinate) (float64, error)
}

type stateKey struct {
	gameID   string
	playerID string
}

type playerState struct {
	inside       bool
	lastApproach time.Time
}

// Manager tracks per-(game, player) boundary containment and emits
// enter/exit/approaching events on observed transitions.
type Manager struct {
	oracle ContainmentOracle

	approachThresholdMeters float64
	suppressWindow          time.Duration

	mu        sync.Mutex
	states    map[stateKey]*playerState
	listeners map[stateKey]Listener

	now func() time.Time
}

// NewManager creates a geofence manager. approachThresholdMeters is the
// inside-distance below which APPROACHING_BOUNDARY fires; suppressWindow
// is the minimum interval between repeated approach events for the same
// player.
func NewManager(oracle ContainmentOracle, approachThresholdMeters float64, suppressWindow time.Duration) *Manager {
	return &Manager{
		oracle:                  oracle,
		approachThresholdMeters: approachThresholdMeters,
		suppressWindow:          suppressWindow,
		states:                  make(map[stateKey]*playerState),
		listeners:               make(map[stateKey]Listener),
		now:                     time.Now,
	}
}

// RegisterListener installs the callback for a (game, player) pair,
// replacing any previous one.
func (m *Manager) RegisterListener(gameID, playerID string, listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[stateKey{gameID, playerID}] = listener
}

// UnregisterListener removes the pair's callback.
func (m *Manager) UnregisterListener(gameID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, stateKey{gameID, playerID})
}

// ClearGame drops all baseline state and listeners for a game. The next
// update for each of its players behaves as a first observation.
func (m *Manager) ClearGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.states {
		if key.gameID == gameID {
			delete(m.states, key)
		}
	}
	for key := range m.listeners {
		if key.gameID == gameID {
			delete(m.listeners, key)
		}
	}
}

// UpdatePlayerLocation records a new observation and returns the event
// it triggered, if any. The first observation for a pair only records
// the baseline. A registered listener is invoked synchronously before
// the call returns.
func (m *Manager) UpdatePlayerLocation(ctx context.Context, gameID, playerID string, loc model.Coordinate) (*Event, error) {
	inside, err := m.oracle.ContainsLocation(ctx, gameID, loc)
	if err != nil {
		return nil, err
	}
	distance, distanceKnown := m.signedDistance(ctx, gameID, loc)

	key := stateKey{gameID, playerID}
	now := m.now()

	m.mu.Lock()
	st, seen := m.states[key]
	if !seen {
		m.states[key] = &playerState{inside: inside}
		m.mu.Unlock()
		return nil, nil
	}

	var eventType EventType
	fire := false
	switch {
	case inside && !st.inside:
		eventType = EventEnterBoundary
		fire = true
	case !inside && st.inside:
		eventType = EventExitBoundary
		fire = true
	case inside:
		if distanceKnown && distance >= 0 && distance <= m.approachThresholdMeters &&
			now.Sub(st.lastApproach) >= m.suppressWindow {
			eventType = EventApproachingBoundary
			fire = true
			st.lastApproach = now
		}
	}
	st.inside = inside

	if !fire {
		m.mu.Unlock()
		return nil, nil
	}
	listener := m.listeners[key]
	m.mu.Unlock()

	event := &Event{
		GameID:                   gameID,
		PlayerID:                 playerID,
		Location:                 loc,
		Type:                     eventType,
		DistanceToBoundaryMeters: distance,
		At:                       now,
	}

	if listener != nil {
		listener(*event)
	}
	return event, nil
}

// signedDistance resolves the distance to the boundary, degrading to
// "unknown" on oracle failure instead of failing the update.
func (m *Manager) signedDistance(ctx context.Context, gameID string, loc model.Coordinate) (float64, bool) {
	d, err := m.oracle.DistanceToBoundary(ctx, gameID, loc)
	if err != nil {
		log.Printf("geofence: distance resolution failed for game %s: %v", gameID, err)
		return 0, false
	}
	return d, true
}
