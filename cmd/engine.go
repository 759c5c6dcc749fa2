package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ocrbatch/internal/config"
	"ocrbatch/internal/extract"
	"ocrbatch/internal/ocr"
	"ocrbatch/internal/ocr/tesseract"
	"ocrbatch/internal/render"
)

// retryDelay is the initial backoff between attempts of a remote engine.
const retryDelay = 2 * time.Second

// newRecognizer builds the OCR engine selected by cfg.OCREngine. Remote
// engines are wrapped with retries. The returned close function releases
// the engine's client connections.
func newRecognizer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Recognizer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.OCREngine {
	case config.EngineTesseract:
		return tesseract.New(cfg.RenderDPI), noop, nil

	case config.EngineVision:
		if err := requireGoogleCredentials(log); err != nil {
			return nil, noop, err
		}
		v, err := ocr.NewVisionRecognizer(ctx)
		if err != nil {
			return nil, noop, credentialError(err, log)
		}
		r := ocr.WithRetry(v, cfg.OCRMaxRetries, retryDelay, log)
		return r, r.Close, nil

	case config.EngineDocumentAI:
		if err := requireGoogleCredentials(log); err != nil {
			return nil, noop, err
		}
		d, err := ocr.NewDocumentAIRecognizer(ctx, ocr.DocumentAIConfig{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		})
		if err != nil {
			return nil, noop, credentialError(err, log)
		}
		r := ocr.WithRetry(d, cfg.OCRMaxRetries, retryDelay, log)
		return r, r.Close, nil

	case config.EngineOpenAI:
		c, err := ocr.NewChatRecognizer(ocr.ChatConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIOCRModel,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create OpenAI OCR engine: %w", err)
		}
		r := ocr.WithRetry(c, cfg.OCRMaxRetries, retryDelay, log)
		return r, r.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
}

// newExtractor wires the pdftoppm renderer and the configured engine.
func newExtractor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*extract.Extractor, func() error, error) {
	recognizer, closeFn, err := newRecognizer(ctx, cfg, log)
	if err != nil {
		return nil, closeFn, err
	}

	policy := extract.AbortDocument
	if cfg.PageFailurePolicy == config.PolicyBlank {
		policy = extract.BlankPage
	}

	log.Debug().
		Str("engine", recognizer.Name()).
		Int("dpi", cfg.RenderDPI).
		Str("page_policy", cfg.PageFailurePolicy).
		Msg("OCR engine created")

	e := extract.New(
		render.NewPdftoppm(cfg.PdftoppmPath, log),
		recognizer,
		extract.WithDPI(cfg.RenderDPI),
		extract.WithPagePolicy(policy),
		extract.WithLogger(log),
	)
	return e, closeFn, nil
}

func requireGoogleCredentials(log zerolog.Logger) error {
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != "" {
		return nil
	}
	log.Error().Msg("Google Cloud credentials not configured")
	return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
		"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
		"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
		"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
		"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
		"3. Check that your .env file contains the credentials variables\n\n" +
		"Or run with --engine tesseract to OCR locally.")
}

func credentialError(err error, log zerolog.Logger) error {
	if errors.Is(err, ocr.ErrMissingCredentials) {
		log.Error().
			Err(err).
			Msg("Google Cloud credentials validation failed")
		return fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n"+
			"1. Credentials file exists and is readable\n"+
			"2. JSON format is valid\n"+
			"3. Service account has proper permissions\n\n"+
			"Original error: %w", err)
	}
	log.Error().
		Err(err).
		Msg("Failed to create OCR engine")
	return fmt.Errorf("failed to create OCR engine: %w", err)
}
