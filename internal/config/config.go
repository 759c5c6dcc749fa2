package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"ocrbatch/internal/logger"
)

// Supported OCR engines
const (
	EngineTesseract  = "tesseract"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
	EngineOpenAI     = "openai"
)

// Failure policies for documents (batch) and pages (extraction)
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
	PolicyBlank = "blank"
)

type Config struct {
	// OCR Configuration
	OCREngine     string
	OCRLanguage   string
	OCRMaxRetries int

	// Rendering Configuration
	RenderDPI    int
	PdftoppmPath string

	// Batch Configuration
	BatchCount        int
	OutputDir         string
	FailurePolicy     string
	PageFailurePolicy string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// OpenAI-compatible Configuration
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIOCRModel string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	config := &Config{
		OCREngine:                  strings.ToLower(getEnv("OCR_ENGINE", EngineTesseract)),
		OCRLanguage:                getEnv("OCR_LANGUAGE", "eng"),
		OCRMaxRetries:              getEnvInt("OCR_MAX_RETRIES", 3),
		RenderDPI:                  getEnvInt("RENDER_DPI", 200),
		PdftoppmPath:               getEnv("PDFTOPPM_PATH", "pdftoppm"),
		BatchCount:                 getEnvInt("BATCH_COUNT", 100),
		OutputDir:                  getEnv("OUTPUT_DIR", "data"),
		FailurePolicy:              strings.ToLower(getEnv("FAILURE_POLICY", PolicyAbort)),
		PageFailurePolicy:          strings.ToLower(getEnv("PAGE_FAILURE_POLICY", PolicyAbort)),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:              getEnv("OPENAI_BASE_URL", ""),
		OpenAIOCRModel:             getEnv("OPENAI_OCR_MODEL", "gpt-4o-mini"),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Batches"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when the environment cannot be
// loaded: local Tesseract, English, 200 DPI, 100 batches into ./data.
func Default() *Config {
	return &Config{
		OCREngine:            EngineTesseract,
		OCRLanguage:          "eng",
		OCRMaxRetries:        3,
		RenderDPI:            200,
		PdftoppmPath:         "pdftoppm",
		BatchCount:           100,
		OutputDir:            "data",
		FailurePolicy:        PolicyAbort,
		PageFailurePolicy:    PolicyAbort,
		GoogleCloudLocation:  "us",
		OpenAIOCRModel:       "gpt-4o-mini",
		GoogleSheetWorksheet: "Batches",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        "2006-01-02T15:04:05Z07:00",
		LogOutput:            "stderr",
	}
}

// Validate checks value ranges and the settings each OCR engine requires.
// Command-line overrides are applied before it is called again.
func (c *Config) Validate() error {
	if c.BatchCount < 1 {
		return fmt.Errorf("BATCH_COUNT must be at least 1, got %d", c.BatchCount)
	}
	if c.RenderDPI < 1 {
		return fmt.Errorf("RENDER_DPI must be positive, got %d", c.RenderDPI)
	}
	if c.OCRMaxRetries < 1 {
		return fmt.Errorf("OCR_MAX_RETRIES must be at least 1, got %d", c.OCRMaxRetries)
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return fmt.Errorf("OCR_LANGUAGE is required")
	}

	switch c.FailurePolicy {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("FAILURE_POLICY must be %q or %q, got %q", PolicyAbort, PolicySkip, c.FailurePolicy)
	}
	switch c.PageFailurePolicy {
	case PolicyAbort, PolicyBlank:
	default:
		return fmt.Errorf("PAGE_FAILURE_POLICY must be %q or %q, got %q", PolicyAbort, PolicyBlank, c.PageFailurePolicy)
	}

	switch c.OCREngine {
	case EngineTesseract, EngineVision:
	case EngineDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai engine")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai engine")
		}
	case EngineOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai engine")
		}
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q (want tesseract, vision, documentai or openai)", c.OCREngine)
	}

	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
