package mapconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"manhunt/internal/model"
	pg "manhunt/internal/postgres"
)

// Defaults are the global fallbacks used when neither the weapon, the
// map, nor the game configures a value.
type Defaults struct {
	EliminationDistanceMeters float64
	AwarenessBufferMeters     float64
}

// EffectiveConfig is the merged view of global, map and game level
// distance configuration for one game.
type EffectiveConfig struct {
	DefaultEliminationDistanceMeters float64
	WeaponDistances                  map[model.WeaponKey]float64
	AwarenessBufferMeters            float64
}

// EliminationDistance resolves the distance for a weapon: the weapon's
// configured distance when present, else the map/game default.
func (c EffectiveConfig) EliminationDistance(weapon model.WeaponKey) float64 {
	if d, ok := c.WeaponDistances[weapon]; ok {
		return d
	}
	return c.DefaultEliminationDistanceMeters
}

// ComparisonDistance is the elimination distance widened by the
// awareness buffer.
func (c EffectiveConfig) ComparisonDistance(weapon model.WeaponKey) float64 {
	return c.EliminationDistance(weapon) + c.AwarenessBufferMeters
}

// Loader fetches raw map configurations from their source of truth.
type Loader interface {
	LoadMapConfig(ctx context.Context, mapID string) (*model.MapConfig, error)
}

// PGLoader loads map configurations from PostgreSQL.
type PGLoader struct{}

func (PGLoader) LoadMapConfig(ctx context.Context, mapID string) (*model.MapConfig, error) {
	db := pg.GetDB()
	var config model.MapConfig

	result := db.WithContext(ctx).Where("map_id = ?", mapID).First(&config)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: map %s", model.ErrMapConfigNotFound, mapID)
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &config, nil
}

// Service resolves effective distance configuration per game, caching
// loaded map configurations with a TTL.
type Service struct {
	loader   Loader
	cache    *ttlCache
	defaults Defaults
}

// NewService creates a map configuration service.
func NewService(loader Loader, cacheTTL time.Duration, defaults Defaults) *Service {
	return &Service{
		loader:   loader,
		cache:    newTTLCache(cacheTTL),
		defaults: defaults,
	}
}

// GetMapConfig returns the map's configuration, from cache when fresh.
// Missing maps fail with ErrMapConfigNotFound.
func (s *Service) GetMapConfig(ctx context.Context, mapID string) (*model.MapConfig, error) {
	if config, ok := s.cache.Get(mapID); ok {
		return config, nil
	}

	config, err := s.loader.LoadMapConfig(ctx, mapID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(mapID, config)
	return config, nil
}

// Invalidate drops the cached configuration for a map. Call after a
// settings change so the next resolution reloads.
func (s *Service) Invalidate(mapID string) {
	s.cache.Invalidate(mapID)
}

// EffectiveConfig merges map and game level configuration into the
// resolved view. Precedence for the default distance: game setting >
// map setting > global default. A game without a map, or a map without
// a configuration, resolves to the remaining layers; loader failures
// propagate so the caller can decide how to degrade.
func (s *Service) EffectiveConfig(ctx context.Context, game *model.Game) (EffectiveConfig, error) {
	effective := EffectiveConfig{
		DefaultEliminationDistanceMeters: s.defaults.EliminationDistanceMeters,
		AwarenessBufferMeters:            s.defaults.AwarenessBufferMeters,
	}

	if game.MapID != "" {
		config, err := s.GetMapConfig(ctx, game.MapID)
		switch {
		case errors.Is(err, model.ErrMapConfigNotFound):
			// Map without tuning: fall through to game/global layers.
		case err != nil:
			return effective, err
		default:
			if config.EliminationDistanceMeters != nil {
				effective.DefaultEliminationDistanceMeters = *config.EliminationDistanceMeters
			}
			if config.AwarenessBufferMeters != nil {
				effective.AwarenessBufferMeters = *config.AwarenessBufferMeters
			}
			effective.WeaponDistances = normalizeWeaponDistances(config.WeaponDistances)
		}
	}

	if game.Settings.EliminationDistanceMeters != nil {
		effective.DefaultEliminationDistanceMeters = *game.Settings.EliminationDistanceMeters
	}
	return effective, nil
}

// normalizeWeaponDistances folds stored weapon keys to canonical form,
// so rows ingested with arbitrary casing still match normalized lookups.
func normalizeWeaponDistances(raw map[model.WeaponKey]float64) map[model.WeaponKey]float64 {
	if len(raw) == 0 {
		return raw
	}
	normalized := make(map[model.WeaponKey]float64, len(raw))
	for key, distance := range raw {
		normalized[model.NormalizeWeaponKey(string(key))] = distance
	}
	return normalized
}
