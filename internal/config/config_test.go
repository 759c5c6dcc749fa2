package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OCR_ENGINE", "OCR_LANGUAGE", "RENDER_DPI", "BATCH_COUNT", "OUTPUT_DIR", "FAILURE_POLICY", "PAGE_FAILURE_POLICY", "OCR_MAX_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCREngine != EngineTesseract || cfg.OCRLanguage != "eng" {
		t.Errorf("unexpected OCR defaults: engine=%s lang=%s", cfg.OCREngine, cfg.OCRLanguage)
	}
	if cfg.RenderDPI != 200 || cfg.BatchCount != 100 || cfg.OutputDir != "data" {
		t.Errorf("unexpected batch defaults: dpi=%d batches=%d out=%s", cfg.RenderDPI, cfg.BatchCount, cfg.OutputDir)
	}
	if cfg.FailurePolicy != PolicyAbort || cfg.PageFailurePolicy != PolicyAbort {
		t.Errorf("unexpected policies: %s/%s", cfg.FailurePolicy, cfg.PageFailurePolicy)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OCR_ENGINE", "Vision")
	t.Setenv("OCR_LANGUAGE", "chi_sim")
	t.Setenv("BATCH_COUNT", "7")
	t.Setenv("FAILURE_POLICY", "SKIP")
	t.Setenv("RENDER_DPI", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OCREngine != EngineVision {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, EngineVision)
	}
	if cfg.OCRLanguage != "chi_sim" || cfg.BatchCount != 7 || cfg.FailurePolicy != PolicySkip {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.RenderDPI != 200 {
		t.Errorf("RenderDPI = %d, want fallback 200", cfg.RenderDPI)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero batches", func(c *Config) { c.BatchCount = 0 }, "BATCH_COUNT"},
		{"zero dpi", func(c *Config) { c.RenderDPI = 0 }, "RENDER_DPI"},
		{"blank language", func(c *Config) { c.OCRLanguage = " " }, "OCR_LANGUAGE"},
		{"bad policy", func(c *Config) { c.FailurePolicy = "retry" }, "FAILURE_POLICY"},
		{"bad page policy", func(c *Config) { c.PageFailurePolicy = PolicySkip }, "PAGE_FAILURE_POLICY"},
		{"unknown engine", func(c *Config) { c.OCREngine = "abbyy" }, "unknown OCR_ENGINE"},
		{"documentai without project", func(c *Config) { c.OCREngine = EngineDocumentAI }, "GOOGLE_CLOUD_PROJECT"},
		{"documentai without processor", func(c *Config) {
			c.OCREngine = EngineDocumentAI
			c.GoogleCloudProject = "p"
		}, "DOCUMENT_AI_PROCESSOR_ID"},
		{"openai without key", func(c *Config) { c.OCREngine = EngineOpenAI }, "OPENAI_API_KEY"},
		{"openai with key", func(c *Config) {
			c.OCREngine = EngineOpenAI
			c.OpenAIAPIKey = "sk-test"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
