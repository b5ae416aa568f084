package handlers

import (
	"net/http"

	"github.com/01moynul/cancelbuddy/internal/middleware"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Subscription Handlers ---
//

// ListSubscriptions is the handler for GET /api/subscriptions
// Callers without an activated session get an empty list.
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	subs, err := h.Store.ListSubscriptions(c.Request.Context(), middleware.SessionKeyFrom(c))
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// GetSubscription is the handler for GET /api/subscriptions/:id
func (h *Handlers) GetSubscription(c *gin.Context) {
	sub, err := h.Store.GetSubscription(c.Request.Context(), c.Param("id"), middleware.SessionKeyFrom(c))
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// CreateSubscription is the handler for POST /api/subscriptions
func (h *Handlers) CreateSubscription(c *gin.Context) {
	// 1. --- Bind and validate input ---
	var input models.NewSubscription
	if !bindJSON(c, &input) {
		return
	}

	// 2. --- Fill the cancellation link for well-known services ---
	// An explicit null keeps the link empty.
	if !input.CancelURL.Set && h.Catalog != nil {
		if svc, ok := h.Catalog.Match(input.Name); ok {
			input.CancelURL = models.Some(svc.CancelURL)
		}
	}

	// 3. --- Create ---
	sub, err := h.Store.CreateSubscription(c.Request.Context(), middleware.SessionKeyFrom(c), input)
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}

	// 4. --- Send Success Response ---
	c.JSON(http.StatusCreated, sub)
}

// UpdateSubscription is the handler for PATCH /api/subscriptions/:id
// Only the fields present in the body change; nullable fields are cleared with null.
func (h *Handlers) UpdateSubscription(c *gin.Context) {
	var patch models.SubscriptionPatch
	if !bindJSON(c, &patch) {
		return
	}

	sub, err := h.Store.UpdateSubscription(c.Request.Context(), c.Param("id"), middleware.SessionKeyFrom(c), patch)
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// DeleteSubscription is the handler for DELETE /api/subscriptions/:id
func (h *Handlers) DeleteSubscription(c *gin.Context) {
	removed, err := h.Store.DeleteSubscription(c.Request.Context(), c.Param("id"), middleware.SessionKeyFrom(c))
	if err != nil {
		h.respondError(c, "Subscription", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
