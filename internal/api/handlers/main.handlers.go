package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manhunt/internal/model"
	"manhunt/internal/service/game"
	"manhunt/internal/service/geofence"
	"manhunt/internal/service/player"
	"manhunt/internal/service/proximity"
	"manhunt/internal/service/safezone"
	"manhunt/internal/service/zone"
)

// Deps holds the services the handlers route requests to.
type Deps struct {
	Players   *player.Service
	Games     *game.Service
	Zones     *zone.Service
	SafeZones *safezone.Service
	Proximity *proximity.Service
	Geofence  *geofence.Manager
}

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, config map[string]string) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "manhunt",
			"port":    config["port"],
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrPlayerNotFound),
		errors.Is(err, model.ErrGameNotFound),
		errors.Is(err, model.ErrMapConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrZoneConfigMissing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}
