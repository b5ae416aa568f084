package handlers

import (
	"net/http"
	"time"

	"github.com/01moynul/cancelbuddy/internal/middleware"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetCosts is the handler for GET /api/costs
// It totals the caller's subscriptions per currency over one, six and twelve months.
func (h *Handlers) GetCosts(c *gin.Context) {
	subs, err := h.Store.ListSubscriptions(c.Request.Context(), middleware.SessionKeyFrom(c))
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}
	c.JSON(http.StatusOK, models.ForecastCosts(subs))
}

// ListCatalogServices is the handler for GET /api/catalog/services
func (h *Handlers) ListCatalogServices(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.All())
}

// GetCatalogService is the handler for GET /api/catalog/services/:slug
func (h *Handlers) GetCatalogService(c *gin.Context) {
	svc, ok := h.Catalog.Lookup(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// Health is the handler for GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "cancelbuddy",
		"version":   h.Version,
	})
}

// Ready is the handler for GET /ready
// It reports not-ready while the database does not answer.
func (h *Handlers) Ready(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Log.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not-ready", "error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
