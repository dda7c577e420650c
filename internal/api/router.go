package api

import (
	routes "manhunt/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, config map[string]string, deps *routes.Deps) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""), config)

	// Setup domain handlers
	routes.SetupPlayerHandlers(api, deps)
	routes.SetupGameHandlers(api, deps)
	routes.SetupSafeZoneHandlers(api, deps)
}
