package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	// Game tuning. Values are global defaults; per-map and per-game
	// settings override them at resolution time.
	DefaultEliminationDistanceMeters float64 `mapstructure:"DEFAULT_ELIMINATION_DISTANCE_METERS"`
	ProximityAwarenessBufferMeters   float64 `mapstructure:"PROXIMITY_AWARENESS_BUFFER_METERS"`
	LocationStalenessMillis          int64   `mapstructure:"LOCATION_STALENESS_MILLIS"`
	LocationHistorySize              int     `mapstructure:"LOCATION_HISTORY_SIZE"`
	GeofenceApproachThresholdMeters  float64 `mapstructure:"GEOFENCE_APPROACH_THRESHOLD_METERS"`
	GeofenceApproachSuppressSeconds  int     `mapstructure:"GEOFENCE_APPROACH_SUPPRESS_SECONDS"`
	MapConfigCacheTTLSeconds         int     `mapstructure:"MAP_CONFIG_CACHE_TTL_SECONDS"`
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("DEFAULT_ELIMINATION_DISTANCE_METERS", 10.0)
	viper.SetDefault("PROXIMITY_AWARENESS_BUFFER_METERS", 5.0)
	viper.SetDefault("LOCATION_STALENESS_MILLIS", 60000)
	viper.SetDefault("LOCATION_HISTORY_SIZE", 3)
	viper.SetDefault("GEOFENCE_APPROACH_THRESHOLD_METERS", 50.0)
	viper.SetDefault("GEOFENCE_APPROACH_SUPPRESS_SECONDS", 10)
	viper.SetDefault("MAP_CONFIG_CACHE_TTL_SECONDS", 300)

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = viper.Unmarshal(&c)
	return
}
