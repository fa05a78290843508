package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/transport/http/handlers"
	"github.com/arklim/content-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/content-platform-accounts/internal/usecase"
)

// DatabaseChecker reports database connectivity for readiness probes.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker reports cache connectivity for readiness probes.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// ServiceSet bundles the application services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Sessions *usecase.SessionService
	Users    *usecase.UserService
	Deletion *usecase.DeletionService
}

// Dependencies carries everything needed to assemble the router.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
	Metrics  *middleware.HTTPMetrics
}

// Register assembles the Gin engine with middleware, probes, and API routes.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Handler())
	}

	healthOpts := []handlers.HealthOption{}
	if deps.Database != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	health := handlers.NewHealthHandler(deps.Logger, healthOpts...)

	router.GET("/healthz", health.Status)
	router.GET("/readyz", health.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	public := api.Group("")
	protected := api.Group("", middleware.SessionAuth(deps.Services.Sessions, deps.Logger))

	authHandler := handlers.NewAuthHandler(deps.Config, deps.Services.Auth, deps.Services.Sessions, deps.Logger)
	authHandler.RegisterRoutes(public, protected)

	userHandler := handlers.NewUserHandler(deps.Services.Users, deps.Services.Deletion, deps.Logger)
	userHandler.RegisterRoutes(public, protected)

	return router
}
