package ocr

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RetryingRecognizer retries transient recognition failures of a remote engine
// with exponential backoff.
type RetryingRecognizer struct {
	next     Recognizer
	attempts uint
	delay    time.Duration
	log      zerolog.Logger
}

// WithRetry wraps next so that each page is attempted up to attempts times.
// Configuration, credential and input errors are returned immediately, and so
// are API rejections that a retry cannot change.
func WithRetry(next Recognizer, attempts int, delay time.Duration, log zerolog.Logger) *RetryingRecognizer {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingRecognizer{
		next:     next,
		attempts: uint(attempts),
		delay:    delay,
		log:      log,
	}
}

// Name implements Recognizer.
func (r *RetryingRecognizer) Name() string { return r.next.Name() }

// Recognize implements Recognizer.
func (r *RetryingRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return r.next.Recognize(ctx, image, language)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(attempt uint, err error) {
			r.log.Warn().
				Err(err).
				Str("engine", r.next.Name()).
				Uint("attempt", attempt+1).
				Uint("max_attempts", r.attempts).
				Msg("OCR request failed, retrying")
		}),
	)
}

// Close closes the wrapped engine if it holds resources.
func (r *RetryingRecognizer) Close() error {
	if c, ok := r.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrUnsupportedLanguage),
		errors.Is(err, ErrEmptyImage),
		errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrInvalidConfiguration):
		return false
	}

	switch status.Code(err) {
	case codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.FailedPrecondition,
		codes.OutOfRange,
		codes.Unimplemented:
		return false
	}

	if code := httpStatus(err); code >= 400 && code < 500 {
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
	}
	return true
}

// httpStatus returns the HTTP status of a chat API error, or 0.
func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
