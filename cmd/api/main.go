package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/auth"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/config"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/db"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/delivery"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/handlers"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/repository"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/router"
	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("cannot reach PostgreSQL, ensure it is running: %w", err)
	}
	slog.Info("Connected to PostgreSQL database")

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("River migrate up: %w", err)
	}
	slog.Info("Schema and River migrations applied")

	jobRepo := repository.NewJobRepo(pool)
	contractorRepo := repository.NewContractorRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	feedbackRepo := repository.NewFeedbackRepo(pool)

	// Notification enqueue is set after the River client is created (breaks init cycle).
	var insertMu sync.Mutex
	var insertFn services.EnqueueNotificationFunc
	enqueue := func(ctx context.Context, tx pgx.Tx, args delivery.NotificationArgs) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			return errors.New("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, delivery.NewNotificationWorker(notificationRepo, cfg.NotifyWebhookURL, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverMaxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return fmt.Errorf("create River client: %w", err)
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args delivery.NotificationArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()

	var scorer services.Scorer = services.HeuristicScorer{}
	if cfg.ScorerURL != "" {
		httpScorer, err := services.NewHTTPScorer(cfg.ScorerURL, cfg.ScorerAPIKey, cfg.ScorerTimeout)
		if err != nil {
			return fmt.Errorf("create scorer: %w", err)
		}
		scorer = httpScorer
		slog.Info("Using external scorer", "url", cfg.ScorerURL)
	} else {
		slog.Info("SCORER_URL not set, using heuristic scorer")
	}

	scores := services.NewScoreAggregator(pool, contractorRepo)
	shortlists := services.NewShortlistEngine(pool, jobRepo, contractorRepo, notificationRepo, scores, scorer, logger)
	shortlists.Timeout = cfg.ScorerTimeout
	shortlists.Workers = cfg.ScorerConcurrency
	shortlists.DefaultLimit = cfg.ShortlistLimit

	lifecycle := services.NewJobLifecycle(pool, jobRepo, contractorRepo, logger)
	offers := services.NewOfferProtocol(pool, jobRepo, notificationRepo, lifecycle, enqueue, logger)
	escrow := services.NewPaymentEscrowSequencer(pool, jobRepo, contractorRepo, paymentRepo, feedbackRepo, notificationRepo, enqueue, logger)
	directory := services.NewContractorDirectory(pool, contractorRepo)

	authSvc := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc, logger)

	api := &handlers.API{
		Jobs:        lifecycle,
		Shortlists:  shortlists,
		Offers:      offers,
		Escrow:      escrow,
		Contractors: directory,
		Scores:      scores,
		Logger:      logger,
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router.New(authHandler, api, authSvc))

	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("start River client: %w", err)
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop River client: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
