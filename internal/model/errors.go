package model

import "errors"

// Domain errors. NotFound errors are fatal to the calling operation and
// propagate to the caller; everything else about eligibility is a plain
// boolean result, never an error.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrMapConfigNotFound = errors.New("map configuration not found")

	// ErrZoneConfigMissing signals a shrinking-zone game without a stage list.
	ErrZoneConfigMissing = errors.New("shrinking zone configuration missing")
)
