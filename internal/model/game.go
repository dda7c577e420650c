package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// GameStatus represents the lifecycle state of a game.
type GameStatus int

const (
	GameStatusPending GameStatus = iota
	GameStatusActive
	GameStatusCompleted
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusPending:
		return "PENDING"
	case GameStatusActive:
		return "ACTIVE"
	case GameStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

func (s GameStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *GameStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "PENDING":
		*s = GameStatusPending
	case "ACTIVE":
		*s = GameStatusActive
	case "COMPLETED":
		*s = GameStatusCompleted
	default:
		return fmt.Errorf("unknown game status %q", raw)
	}
	return nil
}

// ShrinkingZoneStage is one wait-then-shrink step of the play-area
// reduction schedule. Immutable configuration data.
type ShrinkingZoneStage struct {
	StageIndex            int     `json:"stage_index"`
	WaitTimeSeconds       int64   `json:"wait_time_seconds"`
	TransitionTimeSeconds int64   `json:"transition_time_seconds"`
	EndRadiusMeters       float64 `json:"end_radius_meters"`
}

// GameSettings holds the per-game tunables consumed by the core engine.
type GameSettings struct {
	UseSmoothedLocations      bool                 `json:"use_smoothed_locations"`
	LocationStalenessSeconds  int64                `json:"location_staleness_seconds"`
	EliminationDistanceMeters *float64             `json:"elimination_distance_meters,omitempty"`
	ShrinkingZoneEnabled      bool                 `json:"shrinking_zone_enabled"`
	InitialRadiusMeters       *float64             `json:"initial_radius_meters,omitempty"`
	Stages                    []ShrinkingZoneStage `json:"stages,omitempty"`
}

// Game is the unified model for a game entity.
type Game struct {
	ID       string       `json:"id" gorm:"primaryKey"`
	Name     string       `json:"name" gorm:"size:255;not null"`
	MapID    string       `json:"map_id" gorm:"index;size:255"`
	Status   GameStatus   `json:"status" gorm:"not null"`
	Boundary []Coordinate `json:"boundary" gorm:"serializer:json;type:jsonb"`
	Settings GameSettings `json:"settings" gorm:"serializer:json;type:jsonb"`

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"-" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`

	// Cached geometry for quick containment checks. Built at most once;
	// concurrent location updates hit this from many goroutines.
	geomOnce sync.Once
	polygon  *orb.Polygon
	bound    *orb.Bound
}

// TableName overrides the table name.
func (Game) TableName() string {
	return "games"
}

// BoundaryPolygon returns the boundary as an orb.Polygon, cached after
// the first call. Returns nil for boundaries with fewer than 3 vertices.
// Safe for concurrent callers.
func (g *Game) BoundaryPolygon() *orb.Polygon {
	g.geomOnce.Do(g.buildGeometry)
	return g.polygon
}

// BoundaryBound returns the bounding box of the boundary polygon. Safe
// for concurrent callers.
func (g *Game) BoundaryBound() *orb.Bound {
	g.geomOnce.Do(g.buildGeometry)
	return g.bound
}

func (g *Game) buildGeometry() {
	if len(g.Boundary) < 3 {
		return
	}
	ring := make(orb.Ring, 0, len(g.Boundary)+1)
	for _, c := range g.Boundary {
		ring = append(ring, orb.Point{c.Longitude, c.Latitude})
	}
	// Close the ring
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	polygon := orb.Polygon{ring}
	bound := polygon.Bound()
	g.polygon = &polygon
	g.bound = &bound
}
