/**
 * Batch task definitions and submission
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/king-song823/orcPig/internal/pipeline"
)

// TypeBatchProcess is the task type for claim batch extraction
const TypeBatchProcess = "batch:process"

// BatchTaskPayload carries one enqueued batch. Image bytes travel inline;
// batches are capped small enough that payload size stays manageable.
type BatchTaskPayload struct {
	BatchID string      `json:"batchId"`
	Images  []TaskImage `json:"images"`
}

// TaskImage is one page of an enqueued batch
type TaskImage struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Enqueuer submits batch tasks and records their pending status
type Enqueuer struct {
	client *asynq.Client
	status *StatusStore
}

// NewEnqueuer creates a task submitter against the given Redis instance
func NewEnqueuer(redisAddr, redisPassword string, redisDB int, status *StatusStore) *Enqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	return &Enqueuer{client: client, status: status}
}

// Enqueue submits a batch for background processing
func (e *Enqueuer) Enqueue(ctx context.Context, batchID string, images []pipeline.Image) error {
	payload := BatchTaskPayload{BatchID: batchID}
	for _, img := range images {
		payload.Images = append(payload.Images, TaskImage{Filename: img.Filename, Data: img.Data})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal batch payload: %w", err)
	}

	task := asynq.NewTask(TypeBatchProcess, data)
	if _, err := e.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	); err != nil {
		return fmt.Errorf("failed to enqueue batch: %w", err)
	}

	if e.status != nil {
		if err := e.status.SetPending(ctx, batchID, len(images)); err != nil {
			return fmt.Errorf("failed to record batch status: %w", err)
		}
	}

	return nil
}

// Close releases the underlying client
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
