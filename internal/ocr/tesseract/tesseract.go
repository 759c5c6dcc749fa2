// Package tesseract provides the local OCR engine backed by the Tesseract
// library through gosseract. It needs libtesseract and the traineddata files
// for every requested language installed on the host.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"ocrbatch/internal/ocr"
)

// Engine implements ocr.Recognizer with a fresh gosseract client per page.
type Engine struct {
	clientFactory      func() *gosseract.Client
	availableLanguages func() ([]string, error)
	dpi                int

	once      sync.Once
	installed map[string]bool
}

// New constructs a Tesseract engine. dpi is passed to Tesseract as the
// resolution the page images were rendered at; 0 leaves detection to Tesseract.
func New(dpi int) *Engine {
	return &Engine{
		clientFactory:      gosseract.NewClient,
		availableLanguages: gosseract.GetAvailableLanguages,
		dpi:                dpi,
	}
}

// Name implements ocr.Recognizer.
func (e *Engine) Name() string { return "tesseract" }

// Recognize implements ocr.Recognizer. language uses Tesseract codes, several
// joined with "+".
func (e *Engine) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	const op = "TesseractRecognize"

	if len(image) == 0 {
		return "", ocr.NewOCRError(op, ocr.ErrEmptyImage, "")
	}
	langs := ocr.TesseractLanguages(language)
	if len(langs) == 0 {
		return "", ocr.NewOCRError(op, ocr.ErrUnsupportedLanguage, "empty language")
	}
	if missing := e.missingLanguages(langs); len(missing) > 0 {
		return "", ocr.NewOCRError(op, ocr.ErrUnsupportedLanguage,
			fmt.Sprintf("no traineddata installed for %s", strings.Join(missing, ", ")))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(langs...); err != nil {
		return "", ocr.NewOCRError(op, ocr.ErrUnsupportedLanguage, err.Error())
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(e.dpi)); err != nil {
			return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set dpi: %v", err))
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set image: %v", err))
	}

	text, err := c.Text()
	if err != nil {
		// Text initializes the API. Tesseract fails that step when it cannot
		// load the traineddata of a requested language.
		if strings.Contains(err.Error(), "initialize TessBaseAPI") {
			return "", ocr.NewOCRError(op, ocr.ErrUnsupportedLanguage, fmt.Sprintf("load languages %s: %v", language, err))
		}
		return "", ocr.NewOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("recognize text (languages %s): %v", language, err))
	}
	return text, nil
}

// missingLanguages returns the requested codes without installed traineddata.
// When the installed set cannot be listed nothing is reported and a missing
// language surfaces from initialization instead.
func (e *Engine) missingLanguages(langs []string) []string {
	e.once.Do(func() {
		available, err := e.availableLanguages()
		if err != nil || len(available) == 0 {
			return
		}
		e.installed = make(map[string]bool, len(available))
		for _, lang := range available {
			e.installed[lang] = true
		}
	})
	if e.installed == nil {
		return nil
	}

	var missing []string
	for _, lang := range langs {
		if !e.installed[lang] {
			missing = append(missing, lang)
		}
	}
	return missing
}
