package main

import (
	"foodgram/backend/internal/config"
	"foodgram/backend/internal/database"
	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/server"

	"github.com/gin-gonic/gin"
)

// @title           Foodgram API
// @version         1.0
// @description     Recipes, favorites, subscriptions and shopping lists.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.LoadConfig(); err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg := config.AppConfig

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	gin.SetMode(cfg.GinMode)

	// Connect to the database
	database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)

	router := server.NewRouter(cfg.MediaDir)

	logging.Info().Str("addr", cfg.HTTPAddr).Msg("server is running")
	logging.Info().Str("url", "http://localhost"+cfg.HTTPAddr+"/swagger/index.html").Msg("swagger UI available")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}
