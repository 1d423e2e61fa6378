package main

import (
	"athletix/training-app/internal/api"
	"athletix/training-app/internal/config"
	"athletix/training-app/internal/notification"
	"athletix/training-app/internal/repository/mongo"
	"athletix/training-app/internal/service"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Info("Starting Athletix Training Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.WithError(err).Fatal("Could not load config")
	}
	log.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to MongoDB")
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established.")

	// --- Ensure Indexes ---
	// The unique indexes are the authoritative duplicate guards, so index
	// creation runs at startup; failures are logged and retried on restart.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			log.WithError(err).Error("failed to ensure user indexes")
		}
		if err := mongo.EnsureLinkIndexes(ctx, appDB.Collection("coach_links")); err != nil {
			log.WithError(err).Error("failed to ensure coach link indexes")
		}
		if err := mongo.EnsureInviteIndexes(ctx, appDB.Collection("coach_invites")); err != nil {
			log.WithError(err).Error("failed to ensure invite indexes")
		}
		if err := mongo.EnsurePlanIndexes(ctx, appDB.Collection("training_plans")); err != nil {
			log.WithError(err).Error("failed to ensure plan indexes")
		}
		if err := mongo.EnsurePlannedSessionIndexes(ctx, appDB.Collection("planned_sessions")); err != nil {
			log.WithError(err).Error("failed to ensure planned session indexes")
		}
		if err := mongo.EnsureDoneSessionIndexes(ctx, appDB.Collection("done_sessions")); err != nil {
			log.WithError(err).Error("failed to ensure done session indexes")
		}
		log.Info("Index creation process completed.")
	}()

	// --- Initialize Mailer ---
	var mailer notification.Mailer
	if cfg.Email.Sender != "" {
		mailer, err = notification.NewSESMailer(cfg.Email, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize SES mailer")
		}
	} else {
		log.Warn("No email sender configured; notifications will be skipped.")
		mailer = notification.NewNoopMailer(log)
	}
	notifier := notification.NewNotifier(mailer, cfg.Email.AppBaseURL, log)

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	linkRepo := mongo.NewMongoLinkRepository(appDB)
	inviteRepo := mongo.NewMongoInviteRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	plannedRepo := mongo.NewMongoPlannedSessionRepository(appDB)
	doneRepo := mongo.NewMongoDoneSessionRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, inviteRepo, cfg.JWT.Secret, cfg.JWT.Expiration, log)
	inviteService := service.NewInviteService(inviteRepo, linkRepo, userRepo, notifier, log)
	profileService := service.NewProfileService(userRepo)
	planService := service.NewPlanService(planRepo, plannedRepo, doneRepo, linkRepo)
	sessionService := service.NewSessionService(doneRepo, plannedRepo, linkRepo)
	metricsService := service.NewMetricsService(planRepo, plannedRepo, doneRepo, linkRepo, userRepo)

	// --- Initialize Gin Engine ---
	router := gin.New()
	router.Use(gin.Recovery())

	// --- Setup Routes ---
	api.SetupRoutes(
		router,
		log,
		cfg.JWT.Secret,
		authService,
		inviteService,
		profileService,
		planService,
		sessionService,
		metricsService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.WithField("address", cfg.Server.Address).Info("Server starting")

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exiting.")
}
