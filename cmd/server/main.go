package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/nbview/internal/api"
	"github.com/dgallion1/nbview/internal/config"
	"github.com/dgallion1/nbview/internal/library"
	"github.com/dgallion1/nbview/internal/logging"
	"github.com/dgallion1/nbview/internal/stats"
)

func main() {
	cfg := config.Load()

	log, logCloser, err := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid logging configuration", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	lib, err := library.Open(cfg.DBPath)
	if err != nil {
		log.Error("open notebook library", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(lib, stats.NewRenderStats(cfg.StatsWindow), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting nbview", "port", cfg.Port, "db", cfg.DBPath, "vega_lite", cfg.VegaLite)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		lib.Close()
		os.Exit(1)
	}
	<-done

	if err := lib.Close(); err != nil {
		log.Warn("close notebook library", "error", err)
	}
}
