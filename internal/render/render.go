// Package render turns PDF documents into page images for OCR.
//
// Pages are rendered with pdftoppm from poppler-utils, which rasterizes the
// page as a whole instead of pulling embedded images out of it. pdfcpu reads
// the page count up front, so corrupt or non-PDF input fails before any
// subprocess is started.
package render

import (
	"context"
	"errors"
	"fmt"
)

// DefaultDPI is the resolution pages are rendered at unless configured otherwise.
const DefaultDPI = 200

// Common rendering errors
var (
	// ErrFileNotFound is returned when the PDF does not exist or cannot be opened.
	ErrFileNotFound = errors.New("PDF file not found")

	// ErrInvalidPDF is returned when the file is not a readable PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrRendererUnavailable is returned when the rendering binary cannot be found.
	ErrRendererUnavailable = errors.New("PDF renderer not available")

	// ErrRenderFailed is returned when a page cannot be rasterized.
	ErrRenderFailed = errors.New("page rendering failed")
)

// PageImage is one rendered page.
type PageImage struct {
	Number int    // 1-based page number
	PNG    []byte // Encoded page image
}

// Renderer renders the pages of a PDF, in order, at the given resolution.
type Renderer interface {
	Render(ctx context.Context, pdfPath string, dpi int) ([]PageImage, error)
}

// Error attributes a rendering failure to a file and, when known, a page.
type Error struct {
	Path string
	Page int
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("render %s page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}
