package routes

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// SetupPlayerHandlers registers the player management endpoints
func SetupPlayerHandlers(router *gin.RouterGroup, deps *Deps) {
	playerGroup := router.Group("/player")

	playerGroup.POST("", func(c *gin.Context) { CreatePlayer(c, deps) })
	playerGroup.GET("/:id", func(c *gin.Context) { GetPlayer(c, deps) })
	playerGroup.DELETE("/:id", func(c *gin.Context) { RemovePlayer(c, deps) })
	playerGroup.PUT("/:id/status", func(c *gin.Context) { SetPlayerStatus(c, deps) })
	playerGroup.POST("/:id/location", func(c *gin.Context) { UpdatePlayerLocation(c, deps) })
	playerGroup.GET("/:id/nearby", func(c *gin.Context) { NearbyPlayers(c, deps) })
	playerGroup.POST("/:id/eliminate", func(c *gin.Context) { EliminateTarget(c, deps) })
}

type createPlayerRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name" binding:"required"`
	GameID string `json:"game_id" binding:"required"`
}

// CreatePlayer registers a new player in a game
func CreatePlayer(c *gin.Context, deps *Deps) {
	var req createPlayerRequest
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
	p := &model.Player{
		ID:     req.ID,
		Name:   req.Name,
		GameID: req.GameID,
		Status: model.PlayerStatusPending,
	}
	deps.Players.AddPlayer(p)
	c.JSON(http.StatusCreated, p)
}

// GetPlayer returns a player by id
func GetPlayer(c *gin.Context, deps *Deps) {
	p, err := deps.Players.GetPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemovePlayer deletes a player and its location history
func RemovePlayer(c *gin.Context, deps *Deps) {
	if !deps.Players.RemovePlayer(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "player not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type setStatusRequest struct {
	Status model.PlayerStatus `json:"status"`
}

// SetPlayerStatus updates a player's lifecycle status
func SetPlayerStatus(c *gin.Context, deps *Deps) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := deps.Players.SetPlayerStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Pointer fields so 0.0 (equator, prime meridian) passes validation.
type locationUpdateRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// UpdatePlayerLocation ingests a GPS fix and reports any boundary event
// it triggered
func UpdatePlayerLocation(c *gin.Context, deps *Deps) {
	var req locationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	event, err := deps.Players.UpdatePlayerLocation(c.Request.Context(), c.Param("id"), *req.Latitude, *req.Longitude)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := gin.H{"status": "success"}
	if event != nil {
		resp["boundary_event"] = gin.H{
			"type":                        event.Type.String(),
			"distance_to_boundary_meters": event.DistanceToBoundaryMeters,
			"at":                          event.At,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// NearbyPlayers lists players within a radius of the given player
func NearbyPlayers(c *gin.Context, deps *Deps) {
	p, err := deps.Players.GetPlayer(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !p.HasLocation() {
		c.JSON(http.StatusOK, gin.H{"players": []*model.Player{}})
		return
	}

	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "100"), 64)
	if err != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid radius"})
		return
	}

	nearby := deps.Players.NearbyPlayers(p.GameID, p.Location(), radius)
	others := make([]*model.Player, 0, len(nearby))
	for _, n := range nearby {
		if n.ID != p.ID {
			others = append(others, n)
		}
	}
	c.JSON(http.StatusOK, gin.H{"players": others})
}

type eliminateRequest struct {
	TargetID string `json:"target_id" binding:"required"`
	WeaponID string `json:"weapon_id"`
}

// EliminateTarget checks whether the player may eliminate the target
// right now
func EliminateTarget(c *gin.Context, deps *Deps) {
	var req eliminateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	killerID := c.Param("id")
	killer, err := deps.Players.GetPlayer(c.Request.Context(), killerID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	eligible, err := deps.Proximity.CanEliminateTarget(c.Request.Context(), killer.GameID, killerID, req.TargetID, req.WeaponID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	log.Printf("Elimination check: game=%s killer=%s target=%s eligible=%t", killer.GameID, killerID, req.TargetID, eligible)
	c.JSON(http.StatusOK, gin.H{"eligible": eligible})
}
