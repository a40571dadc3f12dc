package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/krishibandhu/krishibandhu-backend/internal/config"
	"github.com/krishibandhu/krishibandhu-backend/internal/handler"
	"github.com/krishibandhu/krishibandhu-backend/internal/middleware"
	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/repository"
)

// Handlers aggregates all route handlers so that RegisterRoutes has
// a single wiring point.
type Handlers struct {
	Auth       *handler.AuthHandler
	Profile    *handler.ProfileHandler
	Disease    *handler.DiseaseHandler
	Irrigation *handler.IrrigationHandler
	Climate    *handler.ClimateHandler
	Assistant  *handler.AssistantHandler
}

// RegisterRoutes wires up the whole HTTP surface. Public routes are
// rate limited per IP; everything under the protected group is gated
// by the bearer-token verifier. Weather responses are additionally
// served from the Redis response cache.
func RegisterRoutes(e *echo.Echo, h Handlers, tokens *repository.TokenRepo, users *repository.UserRepo, rdb *redis.Client, audioDir string) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	authn := middleware.BearerAuth(tokens, users)

	e.GET("/healthz", handler.Health)

	// Synthesized assistant audio.
	e.Static("/static/audio", audioDir)

	auth := e.Group("/auth", limiter)
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, authn)
	auth.POST("/sweep-tokens", h.Auth.SweepTokens, authn, middleware.RequireRole(model.RoleAdmin))
	auth.GET("/me", h.Auth.Me, authn)

	climate := e.Group("/climate", limiter, cache)
	climate.GET("/current", h.Climate.Current)

	profile := e.Group("/profile", authn)
	profile.GET("/me", h.Profile.Me)
	profile.PUT("/update", h.Profile.Update)
	profile.GET("/recent-activities", h.Profile.RecentActivities)

	disease := e.Group("/disease", authn)
	disease.POST("/predict", h.Disease.Predict)
	disease.GET("/history", h.Disease.History)

	irrigation := e.Group("/irrigation", authn)
	irrigation.POST("/predict", h.Irrigation.Predict)
	irrigation.GET("/metadata", h.Irrigation.Metadata)
	irrigation.GET("/history", h.Irrigation.History)
	irrigation.POST("/events", h.Irrigation.LogEvent)
	irrigation.GET("/schedules", h.Irrigation.Schedules)
	irrigation.POST("/schedules", h.Irrigation.CreateSchedule)
	irrigation.GET("/water-usage", h.Irrigation.WaterUsage)
	irrigation.POST("/generate-schedule", h.Irrigation.GenerateSchedule)

	assistant := e.Group("/assistant", authn)
	assistant.POST("/ask", h.Assistant.Ask)
	assistant.POST("/voice", h.Assistant.Voice)
	assistant.GET("/history", h.Assistant.History)
}
