package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/matches", h.listMatches)
		api.POST("/selected_matches", h.saveSelection)
		api.GET("/commands", h.getCommands)
		api.POST("/commands", h.saveCommands)
		api.GET("/upcoming", h.listUpcoming)
		api.POST("/refresh-upcoming", h.refreshUpcoming)
		api.GET("/events", h.streamEvents)
		api.POST("/schedule/image", h.scheduleImage)
		api.GET("/schedule.png", h.scheduleImageFromStore)
		api.GET("/qr", qrHandler)
	}
	// kept at the root for existing operator pages
	r.POST("/save-commands", h.saveCommands)
}

// NewRouter builds the full HTTP handler: request ids, panic recovery, the
// API routes and CORS.
func NewRouter(h *Handler, logger zerolog.Logger) http.Handler {
	r := gin.New()
	r.Use(middleware.RequestID(logger), gin.Recovery())
	RegisterRoutes(r, h)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-Canvas-Width", "X-Canvas-Height", "X-Logos-Resolved"},
	})
	return c.Handler(r)
}
