package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rclima/social-network-api/backend/internal/handlers"
	"github.com/rclima/social-network-api/backend/internal/logger"
	"github.com/rclima/social-network-api/backend/internal/mailer"
	"github.com/rclima/social-network-api/backend/internal/middleware"
	"github.com/rclima/social-network-api/backend/internal/models"
	"github.com/rclima/social-network-api/backend/internal/repositories"
	"github.com/rclima/social-network-api/backend/internal/storage"
	"github.com/rclima/social-network-api/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *config.DB, m mailer.Mailer, pictures storage.PictureStore, cfg *config.Config) error {
	if err := db.Postgres.AutoMigrate(&models.User{}, &models.Follow{}); err != nil {
		return err
	}
	logger.Log.Infow("auto-migrations completed")

	e.GET("/health", handlers.HealthCheck)

	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	tokenRepo := repositories.NewRedisTokenRepository(db.Redis)

	// Three tiers: public, authenticated, authenticated + email-confirmed.
	public := e.Group("/api/v1")
	session := e.Group("/api/v1", middleware.TokenAuth(tokenRepo, userRepo))
	confirmed := e.Group("/api/v1",
		middleware.TokenAuth(tokenRepo, userRepo),
		middleware.RequireEmailConfirmed(),
	)

	authHandler := handlers.NewAuthHandler(userRepo, tokenRepo, m, cfg.SecretKey, cfg.Domain)
	authHandler.RegisterAuthRoutes(public, session)

	userHandler := handlers.NewUserHandler(userRepo, followRepo, pictures)
	userHandler.RegisterUserRoutes(confirmed)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo)
	followHandler.RegisterFollowRoutes(confirmed)

	logger.Log.Infow("routes configured")
	return nil
}
