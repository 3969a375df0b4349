package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidstream/accounts-api/internal/api/handler"
	"github.com/vidstream/accounts-api/internal/api/middleware"
	"github.com/vidstream/accounts-api/internal/core/ports"
	"github.com/vidstream/accounts-api/internal/core/service"
	"github.com/vidstream/accounts-api/internal/infrastructure/config"
	mongostore "github.com/vidstream/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/vidstream/accounts-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, media ports.MediaStore, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	tokenService := service.NewTokenService(userRepo, service.TokenConfig{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
	}, log)
	userService := service.NewUserService(userRepo, log)
	limiter := redisstore.NewLoginLimiter(rdb, cfg.Login.MaxFailures, cfg.Login.Window)
	userHandler := handler.NewUserHandler(userService, tokenService, media, limiter)
	authRequired := middleware.Auth(cfg.Token.AccessSecret)

	// --- User routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh-token", userHandler.RefreshToken)
	users.POST("/logout", userHandler.Logout, authRequired)
	users.POST("/change-password", userHandler.ChangePassword, authRequired)
	users.GET("/current-user", userHandler.CurrentUser, authRequired)
	users.PATCH("/update-account", userHandler.UpdateAccount, authRequired)
	users.PATCH("/avatar", userHandler.UpdateAvatar, authRequired)
	users.PATCH("/cover-image", userHandler.UpdateCoverImage, authRequired)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
