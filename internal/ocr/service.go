// Package ocr provides the text recognition capability of the pipeline: a
// page image plus a language identifier in, recognized text out.
//
// Engines:
//   - tesseract (subpackage ocr/tesseract): local Tesseract via gosseract, takes
//     Tesseract language codes directly ("eng", "chi_sim", "eng+chi_sim")
//   - vision: Google Cloud Vision DOCUMENT_TEXT_DETECTION on the page image
//   - documentai: Google Document AI OCR processor on the page image
//   - openai: any OpenAI-compatible chat endpoint with image input
//
// Cloud engines receive BCP-47 language hints translated from the Tesseract
// codes by LanguageHints, so one language setting drives every engine.
//
// Required Environment Variables for the Google engines:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"strings"
)

// Recognizer recognizes text on a single page image.
type Recognizer interface {
	// Recognize returns the text found on image (PNG bytes) using the given
	// language identifier. Implementations must be safe to call sequentially
	// for many pages.
	Recognize(ctx context.Context, image []byte, language string) (string, error)

	// Name identifies the engine in logs.
	Name() string
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, image []byte, language string) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	return f(ctx, image, language)
}

// Name implements Recognizer.
func (f RecognizerFunc) Name() string { return "func" }

// TesseractLanguages splits a Tesseract language setting such as "eng+chi_sim"
// into its individual codes.
func TesseractLanguages(language string) []string {
	var langs []string
	for _, code := range strings.Split(language, "+") {
		if code = strings.TrimSpace(code); code != "" {
			langs = append(langs, code)
		}
	}
	return langs
}

func validateImage(op string, image []byte) error {
	if len(image) == 0 {
		return NewOCRError(op, ErrEmptyImage, "")
	}
	return nil
}
