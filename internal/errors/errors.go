package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for the claim-intake OCR pipeline
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Intake errors
	ErrorNoFiles       ErrorCode = "NO_FILES"
	ErrorBatchTooLarge ErrorCode = "BATCH_TOO_LARGE"

	// Processing errors
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"
	ErrorUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
	ErrorQueueFailed   ErrorCode = "QUEUE_FAILED"
)

// PipelineError represents a structured pipeline error
type PipelineError struct {
	Code      ErrorCode
	Message   string
	BatchID   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewNoFilesError() *PipelineError {
	return &PipelineError{
		Code:      ErrorNoFiles,
		Message:   "No files uploaded",
		Timestamp: time.Now(),
	}
}

func NewBatchTooLargeError(got, limit int) *PipelineError {
	return &PipelineError{
		Code:      ErrorBatchTooLarge,
		Message:   fmt.Sprintf("最多上传 %d 张图片", limit),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"received": got,
			"limit":    limit,
		},
	}
}

func NewProcessingTimeoutError(batchID string, duration time.Duration, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		BatchID:   batchID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewOCRFailedError(batchID string, engine string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed on engine: %s", engine),
		BatchID:   batchID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"ocr_engine": engine,
		},
		Cause: cause,
	}
}

func NewUnsupportedFormatError(batchID string, mimeType string) *PipelineError {
	return &PipelineError{
		Code:      ErrorUnsupportedFormat,
		Message:   fmt.Sprintf("Unsupported file format: %s", mimeType),
		BatchID:   batchID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"mime_type": mimeType,
		},
	}
}

func NewStorageFailedError(batchID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store batch results",
		BatchID:   batchID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewQueueFailedError(batchID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorQueueFailed,
		Message:   "Failed to enqueue batch",
		BatchID:   batchID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for storage and JSON responses
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
