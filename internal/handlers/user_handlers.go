package handlers

import (
	"net/http"

	"github.com/01moynul/cancelbuddy/internal/middleware"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Session Handlers ---
//

type sessionResponse struct {
	SessionKey *string             `json:"sessionKey"`
	Session    *models.UserSession `json:"session"`
}

// CreateSession is the handler for POST /api/session/create
// It issues a fresh, not yet activated session and sets the session cookie.
func (h *Handlers) CreateSession(c *gin.Context) {
	// 1. --- Create the session ---
	sess, err := h.Store.CreateSession(c.Request.Context())
	if err != nil {
		h.respondError(c, "Session", err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordSessionCreated()
	}

	// 2. --- Hand the key to the browser ---
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, sess.SessionKey, int(h.Cookie.MaxAge.Seconds()), "/", "", c.Request.TLS != nil, true)

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, sessionResponse{SessionKey: &sess.SessionKey, Session: sess})
}

// GetSession is the handler for GET /api/session
// An anonymous caller gets nulls; an unknown key gets a null session.
func (h *Handlers) GetSession(c *gin.Context) {
	key := middleware.SessionKeyFrom(c)
	if key == "" {
		c.JSON(http.StatusOK, sessionResponse{})
		return
	}

	sess, err := h.Store.GetSession(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, "Session", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionKey: &key, Session: sess})
}

// ActivateSession is the handler for POST /api/session/activate
func (h *Handlers) ActivateSession(c *gin.Context) {
	// 1. --- Get Session Key ---
	key := middleware.SessionKeyFrom(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No session key provided"})
		return
	}

	// 2. --- Activate ---
	sess, err := h.Store.ActivateSession(c.Request.Context(), key)
	if err != nil {
		h.respondError(c, "Session", err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusOK, sess)
}
