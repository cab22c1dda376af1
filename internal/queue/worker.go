/**
 * Batch queue worker
 *
 * Consumes batch tasks from Redis and runs them through the extraction
 * pipeline. Completed results land in the status store and, when
 * configured, in PostgreSQL.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/king-song823/orcPig/internal/config"
	pipeerrors "github.com/king-song823/orcPig/internal/errors"
	"github.com/king-song823/orcPig/internal/logging"
	"github.com/king-song823/orcPig/internal/pipeline"
)

// BatchStore persists completed batches
type BatchStore interface {
	SaveBatch(ctx context.Context, batchID string, result *pipeline.BatchResult) error
}

// Worker consumes batch tasks
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline *pipeline.Pipeline
	status   *StatusStore
	store    BatchStore
	timeout  time.Duration
	logger   *logging.Logger
}

// NewWorker creates a queue worker. store may be nil when persistence is
// not configured.
func NewWorker(cfg *config.Config, p *pipeline.Pipeline, status *StatusStore, store BatchStore) *Worker {
	logger := logging.NewLogger("Worker")
	logger.SetDebug(cfg.Debug)

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"default": 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at a minute
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		pipeline: p,
		status:   status,
		store:    store,
		timeout:  10 * time.Minute,
		logger:   logger,
	}

	w.mux.HandleFunc(TypeBatchProcess, w.handleBatch)

	return w
}

// Run blocks serving tasks until Shutdown
func (w *Worker) Run() error {
	w.logger.Info("Worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully
func (w *Worker) Shutdown() {
	w.logger.Info("Worker stopping")
	w.server.Shutdown()
}

func (w *Worker) handleBatch(ctx context.Context, task *asynq.Task) error {
	start := time.Now()

	var payload BatchTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal batch payload: %w", err)
	}

	w.logger.Info("Batch picked up", "batchId", payload.BatchID, "pages", len(payload.Images))

	if err := w.status.SetProcessing(ctx, payload.BatchID); err != nil {
		w.logger.Warn("Failed to mark batch processing", "batchId", payload.BatchID, "error", err)
	}

	images := make([]pipeline.Image, 0, len(payload.Images))
	for _, img := range payload.Images {
		images = append(images, pipeline.Image{Filename: img.Filename, Data: img.Data})
	}

	processCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result := w.pipeline.ProcessBatch(processCtx, images)

	if processCtx.Err() == context.DeadlineExceeded {
		timeoutErr := pipeerrors.NewProcessingTimeoutError(payload.BatchID, w.timeout, processCtx.Err())
		if err := w.status.SetFailed(ctx, payload.BatchID, timeoutErr); err != nil {
			w.logger.Warn("Failed to mark batch failed", "batchId", payload.BatchID, "error", err)
		}
		return fmt.Errorf("batch processing timed out: %w", timeoutErr)
	}

	if w.store != nil {
		if err := w.store.SaveBatch(ctx, payload.BatchID, result); err != nil {
			w.logger.Warn("Batch persistence failed", "batchId", payload.BatchID, "error", err)
		}
	}

	if err := w.status.SetCompleted(ctx, payload.BatchID, result); err != nil {
		return fmt.Errorf("failed to store batch result: %w", err)
	}

	w.logger.Info("Batch completed",
		"batchId", payload.BatchID,
		"pages", len(images),
		"duration", time.Since(start))

	return nil
}
