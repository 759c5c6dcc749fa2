// Package extract turns one PDF into page-marked raw OCR text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrbatch/internal/ocr"
	"ocrbatch/internal/render"
	"ocrbatch/internal/text"
	"ocrbatch/pkg/models"
)

// PagePolicy decides what happens when a single page fails OCR.
type PagePolicy int

const (
	// AbortDocument fails the whole document on the first page failure.
	AbortDocument PagePolicy = iota

	// BlankPage keeps going with an empty text for the failed page and logs a warning.
	BlankPage
)

// Extractor drives rendering and OCR for one document at a time.
type Extractor struct {
	renderer   render.Renderer
	recognizer ocr.Recognizer
	dpi        int
	policy     PagePolicy
	log        zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDPI sets the rendering resolution.
func WithDPI(dpi int) Option {
	return func(e *Extractor) { e.dpi = dpi }
}

// WithPagePolicy sets the page failure policy.
func WithPagePolicy(policy PagePolicy) Option {
	return func(e *Extractor) { e.policy = policy }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) { e.log = log }
}

// New creates an Extractor rendering at render.DefaultDPI and aborting on page failures.
func New(renderer render.Renderer, recognizer ocr.Recognizer, opts ...Option) *Extractor {
	e := &Extractor{
		renderer:   renderer,
		recognizer: recognizer,
		dpi:        render.DefaultDPI,
		policy:     AbortDocument,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract renders pdfPath, recognizes every page with languageHint and returns
// the raw document text with a page marker in front of each page.
func (e *Extractor) Extract(ctx context.Context, pdfPath, languageHint string) (string, error) {
	pages, err := e.ExtractPages(ctx, pdfPath, languageHint)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(pages))
	for i, page := range pages {
		texts[i] = page.Text
	}
	return text.FormatPages(texts), nil
}

// ExtractPages is Extract without the final formatting step.
func (e *Extractor) ExtractPages(ctx context.Context, pdfPath, languageHint string) ([]models.Page, error) {
	start := time.Now()

	images, err := e.renderer.Render(ctx, pdfPath, e.dpi)
	if err != nil {
		return nil, err
	}

	pages := make([]models.Page, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		recognized, err := e.recognizer.Recognize(ctx, img.PNG, languageHint)
		if err != nil {
			if e.policy == BlankPage && ctx.Err() == nil && !isFatal(err) {
				e.log.Warn().
					Err(err).
					Str("file", pdfPath).
					Int("page", img.Number).
					Str("engine", e.recognizer.Name()).
					Msg("OCR failed for page, continuing with blank page")
				recognized = ""
			} else {
				return nil, fmt.Errorf("%s: %w", pdfPath, ocr.WithPage(err, img.Number))
			}
		}

		pages = append(pages, models.Page{
			Number: img.Number,
			Text:   strings.TrimSpace(recognized),
		})
	}

	e.log.Debug().
		Str("file", pdfPath).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Document extracted")

	return pages, nil
}

// isFatal reports errors that would fail every page alike; blanking pages for
// them would silently empty the whole document.
func isFatal(err error) bool {
	return errors.Is(err, ocr.ErrUnsupportedLanguage) ||
		errors.Is(err, ocr.ErrMissingCredentials) ||
		errors.Is(err, ocr.ErrInvalidConfiguration)
}
