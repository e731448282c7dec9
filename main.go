package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/config"
	"github.com/mauv0809/sabo-club/internal/database"
	"github.com/mauv0809/sabo-club/internal/handicap"
	server "github.com/mauv0809/sabo-club/internal/http"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier/slack"
	"github.com/mauv0809/sabo-club/internal/processor"
	"github.com/mauv0809/sabo-club/internal/pubsub"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx := context.Background()
	pubsubClient, err := pubsub.New(ctx, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	defer pubsubClient.Close()

	loc := cfg.Location()
	resolver := handicap.Default()
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	clubStore := club.New(db)
	challengeStore := challenge.NewStore(db, clubStore, resolver, metricsSvc, cfg.Challenge.TTL())
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc, loc)
	processor := processor.New(challengeStore, clubStore, notifier, metricsSvc, pubsubClient)

	s := server.NewServer(
		clubStore,
		challengeStore,
		resolver,
		metricsSvc,
		metricsHandler,
		*cfg,
		notifier,
		processor,
		pubsubClient,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "timezone", loc.String())
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
