package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PlayerStatus represents the lifecycle state of a player in a game.
type PlayerStatus int

const (
	PlayerStatusPending PlayerStatus = iota
	PlayerStatusActive
	PlayerStatusPendingDeath
	PlayerStatusDead
	PlayerStatusInactive
)

func (s PlayerStatus) String() string {
	switch s {
	case PlayerStatusPending:
		return "pending"
	case PlayerStatusActive:
		return "active"
	case PlayerStatusPendingDeath:
		return "pending_death"
	case PlayerStatusDead:
		return "dead"
	case PlayerStatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes PlayerStatus as a string.
func (s PlayerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes PlayerStatus from a string.
func (s *PlayerStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "active":
		*s = PlayerStatusActive
	case "pending_death":
		*s = PlayerStatusPendingDeath
	case "dead":
		*s = PlayerStatusDead
	case "inactive":
		*s = PlayerStatusInactive
	default:
		*s = PlayerStatusPending
	}
	return nil
}

// Player is the unified model for a player entity, shared between
// PostgreSQL and Redis.
type Player struct {
	ID     string       `json:"id" gorm:"primaryKey"`
	Name   string       `json:"name" gorm:"size:255;not null"`
	GameID string       `json:"game_id" gorm:"size:64;index"`
	Status PlayerStatus `json:"status" gorm:"not null"`

	// Last reported GPS fix. Nil pointers mean no fix reported yet.
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	LocationTimestamp time.Time `json:"location_timestamp"`

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"-" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`
}

// TableName overrides the table name.
func (Player) TableName() string {
	return "players"
}

// HasLocation reports whether the player has reported a GPS fix.
func (p *Player) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Location returns the player's raw coordinate. Only meaningful when
// HasLocation is true.
func (p *Player) Location() Coordinate {
	if !p.HasLocation() {
		return Coordinate{}
	}
	return Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
}
