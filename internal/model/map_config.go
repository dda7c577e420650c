package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// WeaponKey is a case-folded weapon identifier. All lookups normalize
// at the boundary so storage never needs case-insensitive comparison.
type WeaponKey string

// NormalizeWeaponKey folds an arbitrary weapon identifier to its
// canonical key form.
func NormalizeWeaponKey(raw string) WeaponKey {
	return WeaponKey(strings.ToLower(strings.TrimSpace(raw)))
}

// MapConfig holds per-map gameplay tuning. A game references its map by
// MapID; absent values fall through to the global defaults.
type MapConfig struct {
	ID    string `gorm:"primaryKey" json:"id"`
	MapID string `gorm:"uniqueIndex;size:255;not null" json:"map_id"`
	Name  string `gorm:"size:255" json:"name"`

	// EliminationDistanceMeters is the map-wide default; nil defers to
	// the global constant.
	EliminationDistanceMeters *float64 `json:"elimination_distance_meters,omitempty"`

	// WeaponDistances maps normalized weapon keys to their elimination
	// distance in meters.
	WeaponDistances map[WeaponKey]float64 `gorm:"serializer:json;type:jsonb" json:"weapon_distances,omitempty"`

	// AwarenessBufferMeters widens the comparison distance to absorb
	// GPS error; nil defers to the global default.
	AwarenessBufferMeters *float64 `json:"awareness_buffer_meters,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the GORM table name
func (MapConfig) TableName() string {
	return "map_configs"
}

// WeaponDistance returns the configured distance for the weapon, if any.
func (c *MapConfig) WeaponDistance(weapon WeaponKey) (float64, bool) {
	if c == nil || len(c.WeaponDistances) == 0 {
		return 0, false
	}
	d, ok := c.WeaponDistances[weapon]
	return d, ok
}
