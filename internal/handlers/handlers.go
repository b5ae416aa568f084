package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/01moynul/cancelbuddy/internal/catalog"
	"github.com/01moynul/cancelbuddy/internal/metrics"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/01moynul/cancelbuddy/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store   *storage.Store
	Catalog *catalog.Catalog
	Metrics *metrics.Collector
	Log     *zap.Logger
	Cookie  CookieConfig
	Version string
}

// CookieConfig describes the session cookie issued on session creation.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
}

// respondError maps a storage or validation error to a response. what names the
// resource for the not found message.
func (h *Handlers) respondError(c *gin.Context, what string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  verr.Error(),
			"errors": []models.ValidationError{*verr},
		})
	case errors.Is(err, storage.ErrNotActivated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session is not activated"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, storage.ErrUnavailable):
		h.Log.Error("storage unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is temporarily unavailable"})
	default:
		h.Log.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
