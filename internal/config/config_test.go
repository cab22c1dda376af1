package config

import "testing"

func validConfig() *Config {
	return &Config{
		ListenAddr:        ":8080",
		MaxBatchSize:      20,
		MaxUploadBytes:    104857600,
		RateLimitRPS:      5,
		RateLimitBurst:    10,
		OCREngine:         EngineTesseract,
		OCRConcurrency:    4,
		TesseractLangs:    "chi_sim+eng",
		WorkerConcurrency: 5,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing listen addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"batch size zero", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"batch size too large", func(c *Config) { c.MaxBatchSize = 500 }, true},
		{"bad engine", func(c *Config) { c.OCREngine = "paddle" }, true},
		{"remote engine without URL", func(c *Config) { c.OCREngine = EngineRemote }, true},
		{"remote engine with URL", func(c *Config) {
			c.OCREngine = EngineRemote
			c.RemoteOCRURL = "http://localhost:8866/predict/ocr_system"
		}, false},
		{"concurrency out of range", func(c *Config) { c.OCRConcurrency = 0 }, true},
		{"negative rate limit", func(c *Config) { c.RateLimitRPS = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxBatchSize != 20 {
		t.Errorf("MaxBatchSize = %d, want default 20", cfg.MaxBatchSize)
	}
	if cfg.OCREngine != EngineTesseract {
		t.Errorf("OCREngine = %q, want default tesseract", cfg.OCREngine)
	}
	if cfg.StrictValidation {
		t.Error("StrictValidation must default to false")
	}
}
