package batch

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds of a batch run
var (
	// ErrInput is returned when the input directory is missing or unusable or
	// the requested batch count is not positive.
	ErrInput = errors.New("invalid batch input")

	// ErrExtraction is returned when rendering, OCR or cleaning fails for a document.
	ErrExtraction = errors.New("document extraction failed")

	// ErrIO is returned when the output directory or a batch file cannot be written.
	// Batch files written earlier in the run stay valid on disk.
	ErrIO = errors.New("batch output failed")
)

// Error attributes a run failure to a document and/or batch.
type Error struct {
	// Op is the step that failed (e.g., "ListPDFs", "Extract", "WriteBatch").
	Op string

	// Kind is one of ErrInput, ErrExtraction or ErrIO.
	Kind error

	// Document is the base name of the document being processed, if any.
	Document string

	// BatchIndex is the 1-based batch the failure belongs to, or 0.
	BatchIndex int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "batch: %s failed", e.Op)
	if e.Document != "" {
		fmt.Fprintf(&b, " (document %s", e.Document)
		if e.BatchIndex > 0 {
			fmt.Fprintf(&b, ", batch %d", e.BatchIndex)
		}
		b.WriteString(")")
	} else if e.BatchIndex > 0 {
		fmt.Fprintf(&b, " (batch %d)", e.BatchIndex)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap exposes both the kind and the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
