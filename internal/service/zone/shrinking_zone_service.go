package zone

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/paulmach/orb"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// GameLookup resolves games for zone configuration.
type GameLookup interface {
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
}

// Service drives the per-game shrinking zone state machine:
// WAITING(stage) -> SHRINKING(stage) -> WAITING(stage+1) -> ... -> FINISHED.
type Service struct {
	games GameLookup
	store StateStore

	now func() time.Time
}

// NewService creates a shrinking zone service backed by the given state
// store.
func NewService(games GameLookup, store StateStore) *Service {
	return &Service{
		games: games,
		store: store,
		now:   time.Now,
	}
}

// ClearZoneState drops any persisted state for a game, for cleanup when
// the game ends.
func (s *Service) ClearZoneState(ctx context.Context, gameID string) error {
	return s.store.Delete(ctx, gameID)
}

// IsShrinkingEnabled reports the game's configured flag, defaulting to
// false when unset. Fails when the game does not exist.
func (s *Service) IsShrinkingEnabled(ctx context.Context, gameID string) (bool, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	return game.Settings.ShrinkingZoneEnabled, nil
}

// InitializeZoneState creates the initial WAITING state for a game.
// Idempotent: existing state is returned unchanged. Returns nil for
// games without the shrinking zone enabled. A shrinking-enabled game
// without a stage list is a configuration error.
func (s *Service) InitializeZoneState(ctx context.Context, game *model.Game) (*model.GameZoneState, error) {
	if !game.Settings.ShrinkingZoneEnabled {
		return nil, nil
	}

	existing, err := s.store.Load(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stages := game.Settings.Stages
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: game %s has shrinking enabled but no stages", model.ErrZoneConfigMissing, game.ID)
	}

	now := s.now()
	state := &model.GameZoneState{
		GameID:                  game.ID,
		CurrentStageIndex:       0,
		Phase:                   model.ZonePhaseWaiting,
		CurrentCenter:           zoneCenter(game),
		CurrentRadiusMeters:     initialRadius(game.Settings),
		ShrinkStartRadiusMeters: initialRadius(game.Settings),
		PhaseEndTime:            now.Add(time.Duration(stages[0].WaitTimeSeconds) * time.Second),
		UpdatedAt:               now,
	}
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// AdvanceZoneState processes any phase transitions whose end time has
// passed and returns the resulting state. Idempotent and safe under
// concurrent callers: the transition is a pure function of (now, stored
// state, stage config), so concurrent callers converge on the same
// state and the persisted overwrite is last-writer-wins. Each new phase
// end extends the previously stored end time, not the observation time,
// so a delayed tick replays every elapsed transition at its scheduled
// instant instead of stretching the timeline. Returns nil for games
// without the shrinking zone enabled.
func (s *Service) AdvanceZoneState(ctx context.Context, gameID string) (*model.GameZoneState, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.Settings.ShrinkingZoneEnabled {
		return nil, nil
	}

	state, err := s.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return s.InitializeZoneState(ctx, game)
	}

	stages := game.Settings.Stages
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: game %s", model.ErrZoneConfigMissing, gameID)
	}

	dirty := false
	for state.Phase != model.ZonePhaseFinished {
		// A stage list shortened after the state was persisted leaves the
		// stored index dangling; treat the schedule as exhausted.
		if state.CurrentStageIndex >= len(stages) {
			state.Phase = model.ZonePhaseFinished
			state.UpdatedAt = s.now()
			dirty = true
			break
		}
		now := s.now()
		if now.Before(state.PhaseEndTime) {
			break
		}
		stage := stages[state.CurrentStageIndex]

		switch state.Phase {
		case model.ZonePhaseWaiting:
			if stage.TransitionTimeSeconds == 0 {
				// Instant stage: no observable SHRINKING phase.
				state.CurrentRadiusMeters = stage.EndRadiusMeters
				state.ShrinkStartRadiusMeters = stage.EndRadiusMeters
				s.moveToNextStage(state, stages, state.PhaseEndTime)
			} else {
				state.ShrinkStartRadiusMeters = state.CurrentRadiusMeters
				state.Phase = model.ZonePhaseShrinking
				state.PhaseEndTime = state.PhaseEndTime.Add(time.Duration(stage.TransitionTimeSeconds) * time.Second)
			}
		case model.ZonePhaseShrinking:
			state.CurrentRadiusMeters = stage.EndRadiusMeters
			state.ShrinkStartRadiusMeters = stage.EndRadiusMeters
			s.moveToNextStage(state, stages, state.PhaseEndTime)
		}
		state.UpdatedAt = now
		dirty = true
	}

	if dirty {
		if err := s.store.Save(ctx, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// moveToNextStage transitions to WAITING at the next stage, or to
// FINISHED after the last one. from is the instant the previous phase
// ended, so queued-up transitions replay deterministically.
func (s *Service) moveToNextStage(state *model.GameZoneState, stages []model.ShrinkingZoneStage, from time.Time) {
	next := state.CurrentStageIndex + 1
	if next >= len(stages) {
		state.Phase = model.ZonePhaseFinished
		state.PhaseEndTime = from
		return
	}
	state.CurrentStageIndex = next
	state.Phase = model.ZonePhaseWaiting
	state.PhaseEndTime = from.Add(time.Duration(stages[next].WaitTimeSeconds) * time.Second)
}

// CurrentState advances the machine and returns a snapshot with the
// radius projected for the current instant. Nil when the game has no
// shrinking zone.
func (s *Service) CurrentState(ctx context.Context, gameID string) (*model.GameZoneState, error) {
	state, err := s.AdvanceZoneState(ctx, gameID)
	if err != nil || state == nil {
		return nil, err
	}

	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	snapshot := state.Clone()
	snapshot.CurrentRadiusMeters = s.effectiveRadius(state, game.Settings.Stages)
	return snapshot, nil
}

// CurrentZoneRadius returns the radius in meters for the current
// instant. ok is false when the game has no shrinking zone.
func (s *Service) CurrentZoneRadius(ctx context.Context, gameID string) (float64, bool, error) {
	state, err := s.CurrentState(ctx, gameID)
	if err != nil || state == nil {
		return 0, false, err
	}
	return state.CurrentRadiusMeters, true, nil
}

// CurrentZoneCenter returns the zone center. ok is false when the game
// has no shrinking zone.
func (s *Service) CurrentZoneCenter(ctx context.Context, gameID string) (model.Coordinate, bool, error) {
	state, err := s.CurrentState(ctx, gameID)
	if err != nil || state == nil {
		return model.Coordinate{}, false, err
	}
	return state.CurrentCenter, true, nil
}

// IsOutsideZone reports whether the coordinate currently lies outside
// the shrinking zone circle. Games without a zone never report outside.
func (s *Service) IsOutsideZone(ctx context.Context, gameID string, loc model.Coordinate) (bool, error) {
	state, err := s.CurrentState(ctx, gameID)
	if err != nil || state == nil {
		return false, err
	}
	d := util.HaversineDistance(loc.Latitude, loc.Longitude, state.CurrentCenter.Latitude, state.CurrentCenter.Longitude)
	return d > state.CurrentRadiusMeters, nil
}

// AdvanceGames ticks every given game, logging failures instead of
// aborting the batch.
func (s *Service) AdvanceGames(ctx context.Context, gameIDs []string) {
	for _, id := range gameIDs {
		if _, err := s.AdvanceZoneState(ctx, id); err != nil {
			log.Printf("zone: advancing game %s failed: %v", id, err)
		}
	}
}

// effectiveRadius interpolates the radius during SHRINKING; in every
// other phase the persisted radius is exact. WAITING never mutates the
// radius and the sequence is non-increasing over the game's lifetime.
func (s *Service) effectiveRadius(state *model.GameZoneState, stages []model.ShrinkingZoneStage) float64 {
	if state.Phase != model.ZonePhaseShrinking || state.CurrentStageIndex >= len(stages) {
		return state.CurrentRadiusMeters
	}
	stage := stages[state.CurrentStageIndex]
	total := time.Duration(stage.TransitionTimeSeconds) * time.Second
	if total <= 0 {
		return stage.EndRadiusMeters
	}

	remaining := state.PhaseEndTime.Sub(s.now())
	if remaining <= 0 {
		return stage.EndRadiusMeters
	}
	fraction := 1 - float64(remaining)/float64(total)
	if fraction < 0 {
		fraction = 0
	}
	start := state.ShrinkStartRadiusMeters
	return start + (stage.EndRadiusMeters-start)*fraction
}

// initialRadius is the radius before any stage has shrunk: the
// configured initial zone radius when present, else the first stage's
// end radius as a degenerate start.
func initialRadius(settings model.GameSettings) float64 {
	if settings.InitialRadiusMeters != nil {
		return *settings.InitialRadiusMeters
	}
	return settings.Stages[0].EndRadiusMeters
}

// zoneCenter is the centroid of the game boundary polygon, or the zero
// coordinate when no usable boundary exists.
func zoneCenter(game *model.Game) model.Coordinate {
	if len(game.Boundary) < 3 {
		return model.Coordinate{}
	}
	points := make([]orb.Point, 0, len(game.Boundary))
	for _, c := range game.Boundary {
		points = append(points, orb.Point{c.Longitude, c.Latitude})
	}
	centroid, ok := util.PolygonCentroid(points)
	if !ok {
		return model.Coordinate{}
	}
	return model.Coordinate{Latitude: centroid[1], Longitude: centroid[0]}
}
