/**
 * Claim batch worker - Main Entry Point
 *
 * Consumes queued claim batches from Redis, runs OCR and extraction, and
 * publishes results to the status store and PostgreSQL.
 */

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/king-song823/orcPig/internal/config"
	"github.com/king-song823/orcPig/internal/ocr"
	"github.com/king-song823/orcPig/internal/pipeline"
	"github.com/king-song823/orcPig/internal/queue"
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

	log.Printf("Claim batch worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Engine=%s, Workers=%d",
		cfg.RedisAddr, cfg.OCREngine, cfg.WorkerConcurrency)

	adapter, err := ocr.NewAdapter(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize OCR adapter: %v", err)
	}

	p := pipeline.New(adapter, cfg)

	status := queue.NewStatusStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer status.Close()

	var store queue.BatchStore
	if cfg.DatabaseURL != "" {
		claimStore, err := storage.NewClaimStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize claim store: %v", err)
		}
		defer claimStore.Close()
		store = claimStore
		log.Printf("PostgreSQL persistence enabled")
	} else {
		log.Printf("PostgreSQL persistence disabled (DATABASE_URL not set)")
	}

	worker := queue.NewWorker(cfg, p, status, store)

	go func() {
		if err := worker.Run(); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
	}()

	log.Printf("Worker is READY (concurrency=%d)", cfg.WorkerConcurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	worker.Shutdown()

	log.Printf("Shutdown complete")
}
