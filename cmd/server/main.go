package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"figuresmith"
	"figuresmith/internal/config"
	"figuresmith/internal/handler"
	"figuresmith/internal/repository"
	"figuresmith/internal/service"
	"figuresmith/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load environment from .env when present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.HasAPIKey() {
		slog.Warn("OPENROUTER_API_KEY not set, provider endpoints will fail")
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the archive database when configured
	var archive *repository.ArchiveRepository
	if cfg.ArchiveEnabled() {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(figuresmith.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		archive = repository.NewArchiveRepository(pool)
		slog.Info("figure archive enabled")
	}

	// Initialize the ops notifier when configured
	var notifier *telegram.Notifier
	if cfg.NotifierEnabled() {
		notifier, err = telegram.NewNotifier(cfg.NotifyBotToken, cfg.NotifyChatID)
		if err != nil {
			slog.Error("failed to create notifier", "error", err)
			os.Exit(1)
		}
		slog.Info("ops notifier enabled", "chat_id", cfg.NotifyChatID)
	}

	// Initialize services
	openRouter := service.NewOpenRouterService(cfg.OpenRouterKey, cfg.OpenRouterURL)
	interpreter := service.NewInterpreterService(openRouter)
	synthesizer := service.NewSynthesizerService(openRouter)
	supervisor := service.NewSupervisorService(openRouter)
	reviewer := service.NewReviewerService(openRouter)

	// A typed nil must not reach the pipeline's optional interfaces.
	var pipelineArchive service.Archiver
	if archive != nil {
		pipelineArchive = archive
	}
	var pipelineNotifier service.Notifier
	if notifier != nil {
		pipelineNotifier = notifier
	}
	pipeline := service.NewPipelineService(interpreter, synthesizer, supervisor, reviewer, pipelineArchive, pipelineNotifier)

	// Initialize handler
	h := handler.New(handler.Deps{
		Cfg:         cfg,
		Interpreter: interpreter,
		Synthesizer: synthesizer,
		Supervisor:  supervisor,
		Reviewer:    reviewer,
		Pipeline:    pipeline,
		Archive:     archive,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
