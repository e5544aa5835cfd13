package handlers

import (
	"log/slog"
	"time"

	"petitionhub-backend/identity"
	"petitionhub-backend/metrics"
	"petitionhub-backend/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps is everything the HTTP surface is built from
type RouterDeps struct {
	Petitions   *PetitionHandler
	Files       *FileHandler
	Auth        *AuthHandler
	Health      *HealthHandler
	Identity    identity.Provider
	Profiles    middleware.ProfileSyncer
	Metrics     *metrics.Metrics
	SignLimiter *middleware.IPRateLimiter
	CORSOrigins []string
	Log         *slog.Logger
}

// NewRouter wires middleware and routes onto a new gin engine
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if d.Health != nil {
		d.Health.RegisterRoutes(r)
	}
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	requireAuth := []gin.HandlerFunc{middleware.Auth(d.Identity)}
	if d.Profiles != nil {
		requireAuth = append(requireAuth, middleware.SyncProfile(d.Profiles, d.Log))
	}
	authed := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(requireAuth[:len(requireAuth):len(requireAuth)], h)
	}
	optionalAuth := middleware.OptionalAuth(d.Identity)

	api := r.Group("/api")
	{
		api.GET("/categories", ListCategories)

		// Auth endpoints
		auth := api.Group("/auth")
		auth.POST("/signup", d.Auth.SignUp)
		auth.POST("/signin", d.Auth.SignIn)
		auth.GET("/me", authed(d.Auth.Me)...)

		// Petition endpoints
		api.GET("/petitions", d.Petitions.ListPetitions)
		api.POST("/petitions", authed(d.Petitions.CreatePetition)...)
		api.GET("/petitions/:id", optionalAuth, d.Petitions.GetPetition)
		sign := []gin.HandlerFunc{d.Petitions.SignPetition}
		if d.SignLimiter != nil {
			sign = append([]gin.HandlerFunc{middleware.RateLimit(d.SignLimiter, d.Log)}, sign...)
		}
		api.POST("/petitions/:id/signatures", sign...)
		api.GET("/dashboard", authed(d.Petitions.Dashboard)...)

		// File endpoints
		api.POST("/petitions/:id/attachments", authed(d.Files.UploadAttachment)...)
		api.GET("/files/:id", optionalAuth, d.Files.GetFile)
	}

	return r
}
