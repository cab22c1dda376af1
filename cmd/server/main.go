/**
 * Claim intake server - Main Entry Point
 *
 * HTTP service accepting claim evidence image batches. Runs extraction
 * synchronously or hands batches to the queue worker for async processing.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/king-song823/orcPig/internal/config"
	"github.com/king-song823/orcPig/internal/ocr"
	"github.com/king-song823/orcPig/internal/pipeline"
	"github.com/king-song823/orcPig/internal/queue"
	"github.com/king-song823/orcPig/internal/server"
	"github.com/king-song823/orcPig/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Claim intake server starting...")
	log.Printf("Configuration loaded: Listen=%s, Engine=%s, BatchCap=%d, Strict=%v",
		cfg.ListenAddr, cfg.OCREngine, cfg.MaxBatchSize, cfg.StrictValidation)

	adapter, err := ocr.NewAdapter(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize OCR adapter: %v", err)
	}

	p := pipeline.New(adapter, cfg)

	// Async intake needs Redis; stay sync-only when it is unreachable
	var enqueuer *queue.Enqueuer
	var status *queue.StatusStore
	status = queue.NewStatusStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := status.Ping(pingCtx); err != nil {
		log.Printf("Warning: Redis unreachable, async intake disabled: %v", err)
		status.Close()
		status = nil
	} else {
		enqueuer = queue.NewEnqueuer(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, status)
		defer enqueuer.Close()
		log.Printf("Async intake enabled (Redis=%s)", cfg.RedisAddr)
	}
	cancel()

	var store server.BatchStore
	if cfg.DatabaseURL != "" {
		claimStore, err := storage.NewClaimStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize claim store: %v", err)
		}
		defer claimStore.Close()
		store = claimStore
		log.Printf("PostgreSQL persistence enabled")
	}

	srv := server.New(cfg, p, enqueuer, status, store)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Printf("Shutdown complete")
}
