/**
 * PostgreSQL persistence for completed claim batches
 *
 * Stores the aggregated claim record and the per-page classifications for
 * audit. Persistence is best effort on the request path; callers log and
 * continue on failure.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	pipeerrors "github.com/king-song823/orcPig/internal/errors"
	"github.com/king-song823/orcPig/internal/pipeline"
)

// ClaimStore handles database operations for claim batches
type ClaimStore struct {
	db *sql.DB
}

// NewClaimStore opens the database and configures the connection pool
func NewClaimStore(databaseURL string) (*ClaimStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ClaimStore{db: db}, nil
}

// Close releases the connection pool
func (s *ClaimStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection
func (s *ClaimStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveBatch upserts the aggregated claim record and replaces the per-page
// rows in one transaction
func (s *ClaimStore) SaveBatch(ctx context.Context, batchID string, result *pipeline.BatchResult) error {
	if batchID == "" {
		return fmt.Errorf("batch ID is required")
	}
	if result == nil {
		return fmt.Errorf("batch result is required")
	}

	if err := s.saveBatch(ctx, batchID, result); err != nil {
		return pipeerrors.NewStorageFailedError(batchID, err)
	}
	return nil
}

func (s *ClaimStore) saveBatch(ctx context.Context, batchID string, result *pipeline.BatchResult) error {
	recordJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal batch result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	batchQuery := `
		INSERT INTO claim_batches (
			id, id_number, insured_person, bank_name, card_number,
			policy_number, claim_number, record, page_count,
			created_at, updated_at
		) VALUES (
			$1::uuid, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			id_number = EXCLUDED.id_number,
			insured_person = EXCLUDED.insured_person,
			bank_name = EXCLUDED.bank_name,
			card_number = EXCLUDED.card_number,
			policy_number = EXCLUDED.policy_number,
			claim_number = EXCLUDED.claim_number,
			record = EXCLUDED.record,
			page_count = EXCLUDED.page_count,
			updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, batchQuery,
		batchID,
		result.IDNumber,
		result.InsuredPerson,
		result.BankName,
		result.CardNumber,
		result.PolicyNumber,
		result.ClaimNumber,
		string(recordJSON),
		len(result.Pages),
	); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM claim_documents WHERE batch_id = $1::uuid`, batchID); err != nil {
		return fmt.Errorf("failed to clear batch documents: %w", err)
	}

	pageQuery := `
		INSERT INTO claim_documents (
			batch_id, page_index, filename, doc_type, error, created_at
		) VALUES ($1::uuid, $2, $3, $4, NULLIF($5, ''), NOW())`

	for _, page := range result.Pages {
		if _, err := tx.ExecContext(ctx, pageQuery,
			batchID, page.Index, page.Filename, string(page.DocType), page.Error); err != nil {
			return fmt.Errorf("failed to insert page %d: %w", page.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// GetBatch loads a stored claim record by batch ID
func (s *ClaimStore) GetBatch(ctx context.Context, batchID string) (*pipeline.BatchResult, error) {
	var recordJSON []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM claim_batches WHERE id = $1::uuid`, batchID,
	).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch %s not found", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	var result pipeline.BatchResult
	if err := json.Unmarshal(recordJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch record: %w", err)
	}

	return &result, nil
}
