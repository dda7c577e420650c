package proximity

import (
	"context"
	"log"
	"time"

	"manhunt/internal/model"
	"manhunt/internal/service/mapconfig"
	"manhunt/internal/util"
)

// DefaultLocationStaleness bounds how old a fix may be and still count
// for an elimination decision.
const DefaultLocationStaleness = 60 * time.Second

// PlayerLookup resolves players by id.
type PlayerLookup interface {
	GetPlayer(ctx context.Context, playerID string) (*model.Player, error)
}

// GameLookup resolves games by id.
type GameLookup interface {
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
}

// ConfigResolver produces the merged distance configuration for a game.
type ConfigResolver interface {
	EffectiveConfig(ctx context.Context, game *model.Game) (mapconfig.EffectiveConfig, error)
}

// SafeZoneOracle answers whether a position is shielded for a player.
type SafeZoneOracle interface {
	IsPlayerProtected(ctx context.Context, gameID, playerID string, lat, lng float64, atMillis int64) (bool, error)
}

// LocationSmoother blends a raw fix with recent history.
type LocationSmoother interface {
	SmoothedLocation(playerID string, rawLat, rawLng float64) model.Coordinate
}

// Service decides elimination eligibility. It is a pure decision
// function over its collaborators: no side effects, and every negative
// outcome except a missing player/game is a plain false.
type Service struct {
	players   PlayerLookup
	games     GameLookup
	configs   ConfigResolver
	safeZones SafeZoneOracle
	history   LocationSmoother

	defaults mapconfig.Defaults

	now func() time.Time
}

// NewService wires the elimination decision to its collaborators.
// defaults are the global fallbacks used when configuration resolution
// fails mid-call.
func NewService(players PlayerLookup, games GameLookup, configs ConfigResolver, safeZones SafeZoneOracle, history LocationSmoother, defaults mapconfig.Defaults) *Service {
	return &Service{
		players:   players,
		games:     games,
		configs:   configs,
		safeZones: safeZones,
		history:   history,
		defaults:  defaults,
		now:       time.Now,
	}
}

// CanEliminateTarget reports whether the killer may eliminate the
// target right now. Checks run cheapest-first and short-circuit.
// Missing players or games are errors; everything else is false.
func (s *Service) CanEliminateTarget(ctx context.Context, gameID, killerID, targetID, weaponID string) (bool, error) {
	// Self-elimination is never allowed; decided before any lookup.
	if killerID == targetID {
		return false, nil
	}

	killer, err := s.players.GetPlayer(ctx, killerID)
	if err != nil {
		return false, err
	}
	target, err := s.players.GetPlayer(ctx, targetID)
	if err != nil {
		return false, err
	}

	// Status gates precede any game or configuration lookup.
	if killer.Status != model.PlayerStatusActive || target.Status != model.PlayerStatusActive {
		return false, nil
	}

	if !killer.HasLocation() || !target.HasLocation() {
		return false, nil
	}

	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}

	comparisonDistance := s.resolveComparisonDistance(ctx, game, weaponID)

	now := s.now()
	staleness := stalenessThreshold(game.Settings)
	if now.Sub(killer.LocationTimestamp) > staleness {
		return false, nil
	}
	if now.Sub(target.LocationTimestamp) > staleness {
		return false, nil
	}

	killerLoc := s.comparisonCoordinate(killer, game.Settings.UseSmoothedLocations)
	targetLoc := s.comparisonCoordinate(target, game.Settings.UseSmoothedLocations)

	atMillis := now.UnixMilli()
	if s.isProtected(ctx, gameID, killerID, killerLoc, atMillis) {
		return false, nil
	}
	if s.isProtected(ctx, gameID, targetID, targetLoc, atMillis) {
		return false, nil
	}

	d := util.HaversineDistance(killerLoc.Latitude, killerLoc.Longitude, targetLoc.Latitude, targetLoc.Longitude)
	return d <= comparisonDistance, nil
}

// resolveComparisonDistance resolves weapon > map > game > global and
// widens by the awareness buffer. Resolution failures are logged and
// degrade to the global defaults instead of failing the decision.
func (s *Service) resolveComparisonDistance(ctx context.Context, game *model.Game, weaponID string) float64 {
	weapon := model.NormalizeWeaponKey(weaponID)

	effective, err := s.configs.EffectiveConfig(ctx, game)
	if err != nil {
		log.Printf("proximity: config resolution failed for game %s, using defaults: %v", game.ID, err)
		return s.defaults.EliminationDistanceMeters + s.defaults.AwarenessBufferMeters
	}
	return effective.ComparisonDistance(weapon)
}

// comparisonCoordinate is the raw fix, or the smoothed estimate seeded
// with it when the game opts into smoothing.
func (s *Service) comparisonCoordinate(player *model.Player, smoothed bool) model.Coordinate {
	raw := player.Location()
	if !smoothed || s.history == nil {
		return raw
	}
	return s.history.SmoothedLocation(player.ID, raw.Latitude, raw.Longitude)
}

// isProtected treats oracle failures as unprotected so a flaky zone
// backend cannot veto the whole decision.
func (s *Service) isProtected(ctx context.Context, gameID, playerID string, loc model.Coordinate, atMillis int64) bool {
	protected, err := s.safeZones.IsPlayerProtected(ctx, gameID, playerID, loc.Latitude, loc.Longitude, atMillis)
	if err != nil {
		log.Printf("proximity: safe zone check failed for player %s: %v", playerID, err)
		return false
	}
	return protected
}

func stalenessThreshold(settings model.GameSettings) time.Duration {
	if settings.LocationStalenessSeconds > 0 {
		return time.Duration(settings.LocationStalenessSeconds) * time.Second
	}
	return DefaultLocationStaleness
}
