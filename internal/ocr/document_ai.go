package ocr

import (
	"context"
	"fmt"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// DocumentProcessor is the subset of the Document AI client used for page OCR.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIConfig holds configuration for Google Document AI OCR processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	// Should match where the OCR processor is created.
	Location string

	// ProcessorID is the ID of a Document OCR processor.
	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default version.
	ProcessorVersion string

	// Timeout bounds a single page request. Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIRecognizer implements Recognizer using a Document AI OCR processor.
type DocumentAIRecognizer struct {
	client DocumentProcessor
	config DocumentAIConfig
}

// NewDocumentAIRecognizer creates a recognizer with credentials from environment
// and the regional endpoint matching config.Location.
func NewDocumentAIRecognizer(ctx context.Context, config DocumentAIConfig) (*DocumentAIRecognizer, error) {
	const op = "NewDocumentAIRecognizer"

	if config.ProjectID == "" || config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "project ID and processor ID are required")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	opts, source := googleCredentialOptions()
	// Processors outside "us" are only reachable through their regional endpoint.
	if config.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if source == "" {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIRecognizer{client: client, config: config}, nil
}

// NewDocumentAIRecognizerWithClient creates a recognizer with an explicit client (for testing).
func NewDocumentAIRecognizerWithClient(config DocumentAIConfig, client DocumentProcessor) *DocumentAIRecognizer {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIRecognizer{client: client, config: config}
}

// Name implements Recognizer.
func (d *DocumentAIRecognizer) Name() string { return "documentai" }

// Recognize sends one page image to the OCR processor.
func (d *DocumentAIRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	const op = "DocumentAIRecognize"

	if err := validateImage(op, image); err != nil {
		return "", err
	}
	hints, err := LanguageHints(language)
	if err != nil {
		return "", WrapOCRError(op, err, "")
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: "image/png",
			},
		},
		ProcessOptions: &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				Hints: &documentaipb.OcrConfig_Hints{
					LanguageHints: hints,
				},
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apiFailure(op, err, fmt.Sprintf("Document AI call failed (processor: %s)", d.config.ProcessorID))
	}
	if resp.GetDocument() == nil {
		return "", WrapOCRError(op, ErrOCRFailed, "no document in Document AI response")
	}
	if st := resp.GetDocument().GetError(); st != nil && (st.GetCode() != 0 || st.GetMessage() != "") {
		return "", apiFailure(op, statusError(st), "Document AI error")
	}

	return resp.GetDocument().GetText(), nil
}

// processorName returns the full processor (or processor version) resource name.
func (d *DocumentAIRecognizer) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.config.ProjectID, d.config.Location, d.config.ProcessorID)
	if d.config.ProcessorVersion != "" {
		name += "/processorVersions/" + d.config.ProcessorVersion
	}
	return name
}

// Close closes the underlying Document AI client.
func (d *DocumentAIRecognizer) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
