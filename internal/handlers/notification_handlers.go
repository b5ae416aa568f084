package handlers

import (
	"net/http"

	"github.com/01moynul/cancelbuddy/internal/middleware"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Notification Settings Handlers ---
//

// GetSettings is the handler for GET /api/settings
// An anonymous caller gets null; the first call for a session creates the defaults.
func (h *Handlers) GetSettings(c *gin.Context) {
	key := middleware.SessionKeyFrom(c)
	if key == "" {
		c.JSON(http.StatusOK, nil)
		return
	}

	settings, err := h.Store.GetOrCreateSettings(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, "Settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings is the handler for PATCH /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if !bindJSON(c, &patch) {
		return
	}

	settings, err := h.Store.UpdateSettings(c.Request.Context(), middleware.SessionKeyFrom(c), patch)
	if err != nil {
		h.respondError(c, "Settings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
