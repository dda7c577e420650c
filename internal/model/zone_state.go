package model

import (
	"encoding/json"
	"time"
)

// ZonePhase is the phase of a game's shrinking zone state machine.
type ZonePhase int

const (
	ZonePhaseWaiting ZonePhase = iota
	ZonePhaseShrinking
	ZonePhaseFinished
)

func (p ZonePhase) String() string {
	switch p {
	case ZonePhaseWaiting:
		return "waiting"
	case ZonePhaseShrinking:
		return "shrinking"
	case ZonePhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes ZonePhase as a string.
func (p ZonePhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON deserializes ZonePhase from a string.
func (p *ZonePhase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "shrinking":
		*p = ZonePhaseShrinking
	case "finished":
		*p = ZonePhaseFinished
	default:
		*p = ZonePhaseWaiting
	}
	return nil
}

// GameZoneState is the live shrinking-zone state of one game. One
// instance per shrinking-enabled game, created on first initialize and
// mutated on every phase transition. Terminal at FINISHED.
type GameZoneState struct {
	GameID            string     `json:"game_id"`
	CurrentStageIndex int        `json:"current_stage_index"`
	Phase             ZonePhase  `json:"phase"`
	CurrentCenter     Coordinate `json:"current_center"`

	// CurrentRadiusMeters is the radius persisted at the last
	// transition; during SHRINKING the effective radius is interpolated
	// on read between ShrinkStartRadiusMeters and the stage end radius.
	CurrentRadiusMeters     float64 `json:"current_radius_meters"`
	ShrinkStartRadiusMeters float64 `json:"shrink_start_radius_meters"`

	PhaseEndTime time.Time `json:"phase_end_time"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy of the state.
func (s *GameZoneState) Clone() *GameZoneState {
	cp := *s
	return &cp
}
