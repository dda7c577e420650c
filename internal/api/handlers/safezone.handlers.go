package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// SetupSafeZoneHandlers registers the safe zone management endpoints
func SetupSafeZoneHandlers(router *gin.RouterGroup, deps *Deps) {
	zoneGroup := router.Group("/safezone")

	zoneGroup.POST("", func(c *gin.Context) { CreateSafeZone(c, deps) })
	zoneGroup.GET("/:id", func(c *gin.Context) { GetSafeZone(c, deps) })
	zoneGroup.DELETE("/:id", func(c *gin.Context) { DeleteSafeZone(c, deps) })
}

type createSafeZoneRequest struct {
	ID     string             `json:"id"`
	GameID string             `json:"game_id" binding:"required"`
	Name   string             `json:"name"`
	Type   model.SafeZoneType `json:"type"`
	// Pointer fields so 0.0 coordinates pass validation.
	CenterLat           *float64 `json:"center_lat" binding:"required"`
	CenterLng           *float64 `json:"center_lng" binding:"required"`
	RadiusMeters        float64  `json:"radius_meters" binding:"required,gt=0"`
	StartTimeMillis     int64    `json:"start_time_millis"`
	EndTimeMillis       int64    `json:"end_time_millis"`
	AuthorizedPlayerIDs []string `json:"authorized_player_ids"`
}

// CreateSafeZone registers a protected circle inside a game
func CreateSafeZone(c *gin.Context, deps *Deps) {
	var req createSafeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if _, err := deps.Games.GetGame(c.Request.Context(), req.GameID); err != nil {
		abortWithError(c, err)
		return
	}

	if req.ID == "" {
		req.ID = util.ShortUUID()
	}
	zone := &model.SafeZone{
		ID:                  req.ID,
		GameID:              req.GameID,
		Name:                req.Name,
		Type:                req.Type,
		CenterLat:           *req.CenterLat,
		CenterLng:           *req.CenterLng,
		RadiusMeters:        req.RadiusMeters,
		StartTimeMillis:     req.StartTimeMillis,
		EndTimeMillis:       req.EndTimeMillis,
		AuthorizedPlayerIDs: req.AuthorizedPlayerIDs,
	}
	deps.SafeZones.AddZone(zone)
	c.JSON(http.StatusCreated, zone)
}

// GetSafeZone returns a safe zone by id
func GetSafeZone(c *gin.Context, deps *Deps) {
	zone, ok := deps.SafeZones.GetZone(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "safe zone not found"})
		return
	}
	c.JSON(http.StatusOK, zone)
}

// DeleteSafeZone removes a safe zone
func DeleteSafeZone(c *gin.Context, deps *Deps) {
	if !deps.SafeZones.RemoveZone(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "safe zone not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
