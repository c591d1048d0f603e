package main

import (
	"database/sql"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/adapters/handler"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/adapters/repository"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/core/services"
	"github.com/AchilleasB/baby-kliniek/event-log-service/internal/logger"
)

func main() {
	logger.Init()

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	userRepo := repository.NewSQLRepository(db, repository.NewOutboxStore())
	userService := services.NewUserService(userRepo, cfg.Environment)

	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)

	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints
	mux.HandleFunc("/users", userHandler.CreateUser)

	log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("starting api server")
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal().Err(err).Msg("could not start server")
	}
}
