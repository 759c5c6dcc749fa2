package ocr

import (
	"errors"
	"fmt"

	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/status"
)

// Common OCR recognition errors
var (
	// ErrOCRFailed is returned when the OCR engine fails to recognize a page image.
	ErrOCRFailed = errors.New("OCR recognition failed")

	// ErrUnsupportedLanguage is returned when a language identifier cannot be
	// used by the selected engine.
	ErrUnsupportedLanguage = errors.New("unsupported OCR language")

	// ErrEmptyImage is returned when a page image carries no data.
	ErrEmptyImage = errors.New("page image is empty")

	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is configured for a Google Cloud engine, or no API
	// key is configured for the chat engine.
	ErrMissingCredentials = errors.New("missing OCR engine credentials")

	// ErrInvalidConfiguration is returned when an engine is constructed with
	// incomplete settings.
	ErrInvalidConfiguration = errors.New("invalid OCR engine configuration")
)

// OCRError wraps errors with the operation and page that failed.
type OCRError struct {
	// Op is the operation that failed (e.g., "VisionRecognize", "NewChatRecognizer").
	Op string

	// Page is the 1-based page number, or 0 when the failure is not page bound.
	Page int

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	msg := "ocr: " + e.Op
	if e.Page > 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s failed: %s: %v", msg, e.Details, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", msg, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(op, err, details)
}

// apiFailure reports an engine API error as ErrOCRFailed. The API error stays
// in the chain, so its gRPC status or HTTP status code remains inspectable.
func apiFailure(op string, err error, details string) error {
	return &OCRError{
		Op:      op,
		Err:     fmt.Errorf("%w: %w", ErrOCRFailed, err),
		Details: details,
	}
}

// statusError converts a status embedded in an API response into an error
// that status.Code understands. A status without a code maps to Unknown.
func statusError(st *spb.Status) error {
	if err := status.ErrorProto(st); err != nil {
		return err
	}
	return errors.New(st.GetMessage())
}

// WithPage attributes err to a page. Errors that are already OCRErrors get the
// page set if they carry none yet.
func WithPage(err error, page int) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		if ocrErr.Page == 0 {
			ocrErr.Page = page
		}
		return err
	}

	return &OCRError{Op: "Recognize", Page: page, Err: err}
}
