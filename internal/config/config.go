/**
 * Configuration for the claim-intake OCR service
 *
 * Loads configuration from environment variables (optionally via a .env file
 * loaded by the binaries before LoadConfig is called).
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// OCR engine selection values for OCR_ENGINE
const (
	EngineTesseract = "tesseract"
	EngineRemote    = "remote"
	EngineBoth      = "both"
)

// Config holds service configuration shared by the HTTP server and the worker
type Config struct {
	// HTTP server
	ListenAddr     string
	MaxBatchSize   int
	MaxUploadBytes int64

	// Rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int

	// OCR
	OCREngine        string // tesseract, remote, or both
	OCRConcurrency   int
	OCRTimeoutMs     int
	TesseractLangs   string
	RemoteOCRURL     string
	RemoteOCRTimeout int // milliseconds

	// Extraction
	StrictValidation bool

	// Redis (async batch queue + status store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// PostgreSQL (result persistence, optional)
	DatabaseURL string

	// Worker
	WorkerConcurrency int

	// Logging
	Debug bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:        getEnvOrDefault("LISTEN_ADDR", ":8080"),
		MaxBatchSize:      getEnvAsIntOrDefault("MAX_BATCH_SIZE", 20),
		MaxUploadBytes:    getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 104857600), // 100MB
		RateLimitRPS:      getEnvAsFloatOrDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getEnvAsIntOrDefault("RATE_LIMIT_BURST", 10),
		OCREngine:         getEnvOrDefault("OCR_ENGINE", EngineTesseract),
		OCRConcurrency:    getEnvAsIntOrDefault("OCR_CONCURRENCY", 4),
		OCRTimeoutMs:      getEnvAsIntOrDefault("OCR_TIMEOUT", 60000),
		TesseractLangs:    getEnvOrDefault("TESSERACT_LANGS", "chi_sim+eng"),
		RemoteOCRURL:      getEnvOrDefault("REMOTE_OCR_URL", "http://localhost:8866/predict/ocr_system"),
		RemoteOCRTimeout:  getEnvAsIntOrDefault("REMOTE_OCR_TIMEOUT", 30000),
		StrictValidation:  getEnvAsBoolOrDefault("STRICT_VALIDATION", false),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsIntOrDefault("REDIS_DB", 0),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 5),
		Debug:             getEnvAsBoolOrDefault("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}

	if c.MaxBatchSize < 1 || c.MaxBatchSize > 100 {
		return fmt.Errorf("MAX_BATCH_SIZE must be between 1 and 100, got %d", c.MaxBatchSize)
	}

	if c.MaxUploadBytes < 1024 || c.MaxUploadBytes > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_UPLOAD_BYTES must be between 1KB and 1GB, got %d", c.MaxUploadBytes)
	}

	if c.OCRConcurrency < 1 || c.OCRConcurrency > 64 {
		return fmt.Errorf("OCR_CONCURRENCY must be between 1 and 64, got %d", c.OCRConcurrency)
	}

	switch c.OCREngine {
	case EngineTesseract, EngineRemote, EngineBoth:
	default:
		return fmt.Errorf("OCR_ENGINE must be one of tesseract, remote, both, got %q", c.OCREngine)
	}

	if c.OCREngine != EngineTesseract && c.RemoteOCRURL == "" {
		return fmt.Errorf("REMOTE_OCR_URL is required when OCR_ENGINE is %s", c.OCREngine)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimitRPS)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
