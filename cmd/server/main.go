package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/logger"
	"github.com/rclima/social-network-api/backend/internal/mailer"
	"github.com/rclima/social-network-api/backend/internal/router"
	"github.com/rclima/social-network-api/backend/internal/storage"
	"github.com/rclima/social-network-api/backend/pkg/config"
	"github.com/rclima/social-network-api/backend/validators"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatalw("failed to initialize data stores", "err", err)
	}
	defer db.CloseDB()

	pictures, err := storage.NewMinioPictureStore(context.Background(), storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		logger.Log.Fatalw("failed to initialize picture store", "err", err)
	}

	m := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)

	e := echo.New()
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e)
	if err := router.SetupRoutes(e, db, m, pictures, cfg); err != nil {
		logger.Log.Fatalw("failed to set up routes", "err", err)
	}

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
