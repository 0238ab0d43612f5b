package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title notesyncd API
// @version 1.0
// @description Sync service keeping a local git-backed note tree consistent with its remote
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		connection := v1.Group("/connection")
		{
			// @Summary Connect a repository
			// @Description Open the local working copy or clone the remote into it
			// @Tags connection
			// @Accept json
			// @Produce json
			// @Param request body ConnectRequest true "Connection details"
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Failure 401 {object} ErrorResponse
			// @Failure 404 {object} ErrorResponse
			// @Router /connection [post]
			connection.POST("", h.Connect)

			// @Summary Validate connection details
			// @Description Probe the remote with a shallow throwaway clone; no local state changes
			// @Tags connection
			// @Accept json
			// @Produce json
			// @Param request body ConnectRequest true "Connection details"
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Failure 401 {object} ErrorResponse
			// @Router /connection/validate [post]
			connection.POST("/validate", h.ValidateConnection)

			// @Summary Connection status
			// @Tags connection
			// @Produce json
			// @Success 200 {object} map[string]bool
			// @Router /connection [get]
			connection.GET("", h.ConnectionStatus)
		}

		sync := v1.Group("/sync")
		{
			// @Summary Trigger a manual sync
			// @Description Run one stage-commit-pull-push pass; rejected while another pass runs
			// @Tags sync
			// @Produce json
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Failure 409 {object} ErrorResponse
			// @Router /sync [post]
			sync.POST("", h.TriggerSync)

			// @Summary Current sync status
			// @Description Safe to poll at sub-second intervals
			// @Tags sync
			// @Produce json
			// @Success 200 {object} models.SyncStatus
			// @Router /sync/status [get]
			sync.GET("/status", h.SyncStatus)

			// @Summary Sync history
			// @Description Past sync runs, newest last, capped at 100 entries
			// @Tags sync
			// @Produce json
			// @Success 200 {array} models.HistoryEntry
			// @Router /sync/history [get]
			sync.GET("/history", h.SyncHistory)

			// @Summary Start automatic sync
			// @Tags sync
			// @Accept json
			// @Produce json
			// @Param request body AutoSyncRequest false "Interval; non-positive uses the default"
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Router /sync/auto [post]
			sync.POST("/auto", h.StartAutoSync)

			// @Summary Stop automatic sync
			// @Tags sync
			// @Success 204
			// @Router /sync/auto [delete]
			sync.DELETE("/auto", h.StopAutoSync)

			// @Summary Automatic sync status
			// @Tags sync
			// @Produce json
			// @Success 200 {object} map[string]bool
			// @Router /sync/auto [get]
			sync.GET("/auto", h.AutoSyncStatus)

			// @Summary Abort a conflicted or failed sync
			// @Tags sync
			// @Produce json
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Router /sync/abort [post]
			sync.POST("/abort", h.AbortSync)
		}

		conflicts := v1.Group("/conflicts")
		{
			// @Summary Detect conflicts
			// @Description Scan the working copy for conflict markers
			// @Tags conflicts
			// @Produce json
			// @Success 200 {object} map[string][]string
			// @Failure 400 {object} ErrorResponse
			// @Router /conflicts [get]
			conflicts.GET("", h.DetectConflicts)

			// @Summary Conflict details
			// @Tags conflicts
			// @Produce json
			// @Success 200 {object} models.ConflictDetails
			// @Router /conflicts/details [get]
			conflicts.GET("/details", h.ConflictDetails)

			// @Summary Set the conflict resolution strategy
			// @Tags conflicts
			// @Accept json
			// @Produce json
			// @Param request body StrategyRequest true "Strategy name"
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Router /conflicts/strategy [put]
			conflicts.PUT("/strategy", h.SetStrategy)

			// @Summary Resolve conflicts with a strategy
			// @Description Applies ours, theirs or both; manual is rejected
			// @Tags conflicts
			// @Accept json
			// @Produce json
			// @Param request body StrategyRequest true "Strategy name"
			// @Success 200 {object} map[string]string
			// @Failure 400 {object} ErrorResponse
			// @Failure 409 {object} ErrorResponse
			// @Router /conflicts/resolve [post]
			conflicts.POST("/resolve", h.ResolveConflicts)
		}

		// @Summary Last classified error
		// @Description Human-readable detail of the most recent failure
		// @Tags errors
		// @Produce json
		// @Success 200 {object} map[string]string
		// @Router /errors/last [get]
		v1.GET("/errors/last", h.LastError)
	}

	return r
}
