/**
 * Batch status store
 *
 * Tracks async batch lifecycle in Redis hashes so the HTTP surface can poll
 * results without touching the queue internals.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/king-song823/orcPig/internal/pipeline"
)

// Batch lifecycle states
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const statusTTL = 24 * time.Hour

// BatchStatus is the pollable state of an async batch
type BatchStatus struct {
	BatchID   string                `json:"batchId"`
	Status    string                `json:"status"`
	Pages     int                   `json:"pages"`
	Result    *pipeline.BatchResult `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// StatusStore persists batch status in Redis
type StatusStore struct {
	client *redis.Client
}

// NewStatusStore connects the status store
func NewStatusStore(addr, password string, db int) *StatusStore {
	return &StatusStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the Redis connection
func (s *StatusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection
func (s *StatusStore) Close() error {
	return s.client.Close()
}

func statusKey(batchID string) string {
	return "batch:" + batchID
}

// SetPending records a freshly enqueued batch
func (s *StatusStore) SetPending(ctx context.Context, batchID string, pages int) error {
	return s.set(ctx, batchID, map[string]interface{}{
		"status": StatusPending,
		"pages":  pages,
	})
}

// SetProcessing marks the batch as picked up by a worker
func (s *StatusStore) SetProcessing(ctx context.Context, batchID string) error {
	return s.set(ctx, batchID, map[string]interface{}{
		"status": StatusProcessing,
	})
}

// SetCompleted stores the final result
func (s *StatusStore) SetCompleted(ctx context.Context, batchID string, result *pipeline.BatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal batch result: %w", err)
	}
	return s.set(ctx, batchID, map[string]interface{}{
		"status": StatusCompleted,
		"result": string(data),
	})
}

// SetFailed records a terminal failure
func (s *StatusStore) SetFailed(ctx context.Context, batchID string, cause error) error {
	return s.set(ctx, batchID, map[string]interface{}{
		"status": StatusFailed,
		"error":  cause.Error(),
	})
}

func (s *StatusStore) set(ctx context.Context, batchID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().Format(time.RFC3339)

	key := statusKey(batchID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, statusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}
	return nil
}

// Get loads the current status of a batch
func (s *StatusStore) Get(ctx context.Context, batchID string) (*BatchStatus, error) {
	fields, err := s.client.HGetAll(ctx, statusKey(batchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch status: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}

	status := &BatchStatus{
		BatchID: batchID,
		Status:  fields["status"],
		Error:   fields["error"],
	}

	if pages := fields["pages"]; pages != "" {
		fmt.Sscanf(pages, "%d", &status.Pages)
	}
	if ts := fields["updated_at"]; ts != "" {
		status.UpdatedAt, _ = time.Parse(time.RFC3339, ts)
	}
	if raw := fields["result"]; raw != "" {
		var result pipeline.BatchResult
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			status.Result = &result
		}
	}

	return status, nil
}
