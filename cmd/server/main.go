package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iammorganparry/clive/apps/regression/internal/api"
	"github.com/iammorganparry/clive/apps/regression/internal/config"
	"github.com/iammorganparry/clive/apps/regression/internal/plot"
	"github.com/iammorganparry/clive/apps/regression/internal/remote"
	"github.com/iammorganparry/clive/apps/regression/internal/store"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	// Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	history := store.NewHistoryStore(db)

	// External services
	service := remote.NewClient(cfg.AnalysisServiceURL, cfg.AnalysisTimeout)
	if err := service.HealthCheck(context.Background()); err != nil {
		logger.Warn("analysis service not available at startup", "url", cfg.AnalysisServiceURL, "error", err)
	}

	plots := plot.NewCache(cfg.PlotCacheSize)

	// Router
	router := api.NewRouter(db, history, service, plots, cfg.APIKey, cfg.MaxUploadBytes(), logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 60 * time.Second,
		// Analyze and report calls may take up to the service timeout.
		WriteTimeout: cfg.AnalysisTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("regression server starting", "addr", addr, "analysis_service", cfg.AnalysisServiceURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
