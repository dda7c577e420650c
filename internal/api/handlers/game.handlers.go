package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// SetupGameHandlers registers the game management endpoints
func SetupGameHandlers(router *gin.RouterGroup, deps *Deps) {
	gameGroup := router.Group("/game")

	gameGroup.POST("", func(c *gin.Context) { CreateGame(c, deps) })
	gameGroup.GET("/:id", func(c *gin.Context) { GetGame(c, deps) })
	gameGroup.PUT("/:id/status", func(c *gin.Context) { SetGameStatus(c, deps) })
	gameGroup.GET("/:id/players", func(c *gin.Context) { GamePlayers(c, deps) })
	gameGroup.GET("/:id/zone", func(c *gin.Context) { GameZoneState(c, deps) })
	gameGroup.GET("/:id/safezones", func(c *gin.Context) { GameSafeZones(c, deps) })
}

type createGameRequest struct {
	ID       string             `json:"id"`
	Name     string             `json:"name" binding:"required"`
	MapID    string             `json:"map_id"`
	Boundary []model.Coordinate `json:"boundary"`
	Settings model.GameSettings `json:"settings"`
}

// CreateGame registers a new game
func CreateGame(c *gin.Context, deps *Deps) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if req.ID == "" {
		req.ID = util.ShortUUID()
	}
	g := &model.Game{
		ID:       req.ID,
		Name:     req.Name,
		MapID:    req.MapID,
		Status:   model.GameStatusPending,
		Boundary: req.Boundary,
		Settings: req.Settings,
	}
	deps.Games.AddGame(g)
	c.JSON(http.StatusCreated, g)
}

// GetGame returns a game by id
func GetGame(c *gin.Context, deps *Deps) {
	g, err := deps.Games.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type setGameStatusRequest struct {
	Status model.GameStatus `json:"status"`
}

// SetGameStatus updates a game's lifecycle status. Activating a game
// with a shrinking zone configured also starts its zone clock;
// completing a game clears its geofence baselines, zone state and
// spatial index.
func SetGameStatus(c *gin.Context, deps *Deps) {
	var req setGameStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	gameID := c.Param("id")
	if err := deps.Games.SetGameStatus(ctx, gameID, req.Status); err != nil {
		abortWithError(c, err)
		return
	}

	switch req.Status {
	case model.GameStatusActive:
		g, err := deps.Games.GetGame(ctx, gameID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if _, err := deps.Zones.InitializeZoneState(ctx, g); err != nil {
			abortWithError(c, err)
			return
		}
	case model.GameStatusCompleted:
		// Drop live per-game state; persisted records remain.
		if deps.Geofence != nil {
			deps.Geofence.ClearGame(gameID)
		}
		if err := deps.Zones.ClearZoneState(ctx, gameID); err != nil {
			abortWithError(c, err)
			return
		}
		deps.Players.DropGameIndex(gameID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GamePlayers lists the players registered in a game
func GamePlayers(c *gin.Context, deps *Deps) {
	if _, err := deps.Games.GetGame(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": deps.Players.PlayersInGame(c.Param("id"))})
}

// GameZoneState returns the current shrinking zone snapshot
func GameZoneState(c *gin.Context, deps *Deps) {
	state, err := deps.Zones.CurrentState(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "game has no shrinking zone"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GameSafeZones lists a game's safe zones
func GameSafeZones(c *gin.Context, deps *Deps) {
	if _, err := deps.Games.GetGame(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"safe_zones": deps.SafeZones.ZonesForGame(c.Param("id"))})
}
