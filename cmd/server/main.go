package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"basketbolista/config"
	"basketbolista/internal/adapters/email"
	httpdelivery "basketbolista/internal/delivery/http"
	"basketbolista/internal/delivery/http/controllers"
	"basketbolista/internal/delivery/http/middleware"
	"basketbolista/internal/repository/postgres"
	"basketbolista/internal/services"
)

const contextTimeout = 10 * time.Second

// @title basketbo-lista API
// @version 1.0
// @description Group event registration with capacity-bound rosters and waitlists.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Error("invalid TIMEZONE", "tz", cfg.Timezone, "err", err)
			os.Exit(1)
		}
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	groupRepo := postgres.NewGroupRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)

	pins := services.NewPinHasher()
	verifier := services.NewTokenVerifier(cfg.JWTSecret)
	notifier := services.NewNotificationService(mailer, groupRepo, cfg.BaseURL)

	groupService := services.NewGroupService(groupRepo, contextTimeout)
	eventService := services.NewEventService(eventRepo, groupService, cfg.BaseURL, loc, contextTimeout)
	registrationService := services.NewRegistrationService(
		eventRepo, registrationRepo, groupRepo,
		notifier, pins, logger, loc, contextTimeout,
	)

	groupController := controllers.NewGroupController(logger, groupService)
	eventController := controllers.NewEventController(logger, eventService, registrationService)
	registrationController := controllers.NewRegistrationController(logger, registrationService)

	mux := httpdelivery.NewRouter(verifier, groupController, eventController, registrationController)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	addr := ":" + cfg.Port
	logger.Info("server listening", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
