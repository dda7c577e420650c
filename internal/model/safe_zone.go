package model

import (
	"time"

	"gorm.io/gorm"
)

// SafeZoneType distinguishes how a safe zone's protection applies.
type SafeZoneType int

const (
	// SafeZoneTypePublic protects every player inside it.
	SafeZoneTypePublic SafeZoneType = iota
	// SafeZoneTypePrivate protects only its authorized players.
	SafeZoneTypePrivate
	// SafeZoneTypeTimed protects everyone, but only inside its active window.
	SafeZoneTypeTimed
)

// SafeZone is a circular protected area inside a game.
type SafeZone struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	GameID       string       `json:"game_id" gorm:"size:64;index"`
	Name         string       `json:"name" gorm:"size:255"`
	Type         SafeZoneType `json:"type" gorm:"not null"`
	CenterLat    float64      `json:"center_lat" gorm:"not null"`
	CenterLng    float64      `json:"center_lng" gorm:"not null"`
	RadiusMeters float64      `json:"radius_meters" gorm:"not null"`

	// Active window for timed zones, epoch millis. Zero means unbounded.
	StartTimeMillis int64 `json:"start_time_millis"`
	EndTimeMillis   int64 `json:"end_time_millis"`

	// Players covered by a private zone.
	AuthorizedPlayerIDs []string `json:"authorized_player_ids,omitempty" gorm:"serializer:json;type:jsonb"`

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"-" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`
}

// TableName overrides the table name.
func (SafeZone) TableName() string {
	return "safe_zones"
}

// Center returns the zone center as a Coordinate.
func (z *SafeZone) Center() Coordinate {
	return Coordinate{Latitude: z.CenterLat, Longitude: z.CenterLng}
}

// ActiveAt reports whether the zone's window covers the given instant.
// Non-timed zones are always active.
func (z *SafeZone) ActiveAt(atMillis int64) bool {
	if z.Type != SafeZoneTypeTimed {
		return true
	}
	if z.StartTimeMillis != 0 && atMillis < z.StartTimeMillis {
		return false
	}
	if z.EndTimeMillis != 0 && atMillis > z.EndTimeMillis {
		return false
	}
	return true
}

// Protects reports whether the zone shields the given player at the
// given instant, position aside.
func (z *SafeZone) Protects(playerID string, atMillis int64) bool {
	if !z.ActiveAt(atMillis) {
		return false
	}
	if z.Type != SafeZoneTypePrivate {
		return true
	}
	for _, id := range z.AuthorizedPlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}
