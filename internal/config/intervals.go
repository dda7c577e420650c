package config

import "time"

// Worker intervals
const (
	// ZoneTickInterval defines how often the zone worker advances
	// shrinking zone state machines
	ZoneTickInterval = 1 * time.Second

	// RedisBackupInterval defines how often to save changes to Redis
	RedisBackupInterval = 10 * time.Second

	// PostgresBackupInterval defines how often to save changes to PostgreSQL
	PostgresBackupInterval = 60 * time.Second
)
