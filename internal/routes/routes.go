package routes

import (
	"net/http"

	"github.com/01moynul/cancelbuddy/internal/handlers"
	"github.com/01moynul/cancelbuddy/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Options are the router settings that come from configuration.
type Options struct {
	AllowedOrigin string
	SessionHeader string
}

// CORSMiddleware lets the configured frontend origin call the API with credentials.
func CORSMiddleware(allowedOrigin, sessionHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Vary", "Origin")

		// 2. Cookies carry the session key
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use, including the session key header
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, "+sessionHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE, PATCH")

		// 4. Answer the preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	handlers.ConfigureBinding()

	router := gin.New()
	router.Use(gin.Recovery())

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.AllowedOrigin, opts.SessionHeader))
	if h.Metrics != nil {
		router.Use(middleware.Metrics(h.Metrics))
	}
	router.Use(middleware.RequestLogger(h.Log, "/api"))

	// --- Operational Routes (Public) ---
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := router.Group("/api")
	api.Use(middleware.SessionKey(h.Cookie.Name, opts.SessionHeader))
	{
		// --- Session Routes ---
		api.POST("/session/create", h.CreateSession)
		api.GET("/session", h.GetSession)
		api.POST("/session/activate", h.ActivateSession)

		// --- Catalog Routes ---
		api.GET("/catalog/services", h.ListCatalogServices)
		api.GET("/catalog/services/:slug", h.GetCatalogService)

		// --- Reads that degrade for anonymous callers ---
		api.GET("/subscriptions", h.ListSubscriptions)
		api.GET("/settings", h.GetSettings)
		api.GET("/costs", h.GetCosts)

		// --- Session Key Required ---
		owned := api.Group("/")
		owned.Use(middleware.RequireSessionKey())
		{
			owned.GET("/subscriptions/:id", h.GetSubscription)
			owned.POST("/subscriptions", h.CreateSubscription)
			owned.PATCH("/subscriptions/:id", h.UpdateSubscription)
			owned.DELETE("/subscriptions/:id", h.DeleteSubscription)
			owned.PATCH("/settings", h.UpdateSettings)
		}
	}

	return router
}
