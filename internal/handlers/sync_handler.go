package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

// SyncHandler handles reservation sync and team settings requests.
type SyncHandler struct {
	sync     services.SyncService
	settings services.SettingsService
}

// NewSyncHandler creates a new SyncHandler instance.
func NewSyncHandler(sync services.SyncService, settings services.SettingsService) *SyncHandler {
	return &SyncHandler{
		sync:     sync,
		settings: settings,
	}
}

// SettingsRequest is the body of PUT /settings. Omitted fields are unchanged.
type SettingsRequest struct {
	APIKey           *string `json:"apiKey"`
	AutoSyncInterval *int    `json:"autoSyncInterval" binding:"omitempty,min=0,max=1440"`
}

// Register mounts the handler's routes on a team group.
func (h *SyncHandler) Register(team *gin.RouterGroup) {
	team.POST("/sync", h.Sync)
	team.GET("/settings", h.GetSettings)
	team.PUT("/settings", h.UpdateSettings)
}

// Sync handles POST /sync. The sync outcome is always returned with 200;
// a failed run has success=false and the reason in message.
func (h *SyncHandler) Sync(c *gin.Context) {
	teamID := c.Param(teamParam)
	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing sync request", map[string]interface{}{"team_id": teamID})
	}

	result := h.sync.Sync(c.Request.Context(), teamID)
	c.JSON(http.StatusOK, result)
}

// GetSettings handles GET /settings. The API key is redacted.
func (h *SyncHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), c.Param(teamParam))
	if err != nil {
		respondServiceError(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, settings.Redacted())
}

// UpdateSettings handles PUT /settings and reschedules auto-sync.
func (h *SyncHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid settings body")
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), c.Param(teamParam), services.SettingsEdit{
		APIKey:                  req.APIKey,
		AutoSyncIntervalMinutes: req.AutoSyncInterval,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to save settings")
		return
	}
	c.JSON(http.StatusOK, settings.Redacted())
}
