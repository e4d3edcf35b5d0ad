package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"event-invite/internal/auth"
)

// MaxBodyBytes is the default request body limit.
const MaxBodyBytes = 1 << 20

type RouterConfig struct {
	RSVP      RSVPService
	Documents DocumentStore
	Admin     auth.Admin
	// Limiter throttles RSVP submissions. Nil disables throttling.
	Limiter      *IPRateLimiter
	Log          zerolog.Logger
	MaxBodyBytes int64
}

// NewRouter wires every API route onto a new gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log.With().Str("component", "http").Logger()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxBodyBytes
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}))
	r.Use(RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", auth.HeaderName},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))
	r.Use(BodyLimit(cfg.MaxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rsvps := NewRSVPHandler(cfg.RSVP, log)
	docs := NewDocumentHandler(cfg.Documents, log)
	admin := RequireAdmin(cfg.Admin)

	api := r.Group("/api")
	{
		submit := []gin.HandlerFunc{rsvps.Submit}
		if cfg.Limiter != nil {
			submit = append([]gin.HandlerFunc{RateLimitByIP(cfg.Limiter)}, submit...)
		}
		api.POST("/rsvp", submit...)

		api.GET("/rsvps", admin, rsvps.List)
		api.GET("/rsvps/summary", admin, rsvps.Summary)
		api.DELETE("/rsvps/:id", admin, rsvps.Delete)
		api.GET("/export", admin, rsvps.Export)

		api.GET("/settings", docs.GetSettings)
		api.POST("/settings", admin, docs.PostSettings)
		api.GET("/program", docs.GetProgram)
		api.POST("/program", admin, docs.PostProgram)
		api.GET("/participants", docs.GetParticipants)
		api.POST("/participants", admin, docs.PostParticipants)
	}
	return r
}
