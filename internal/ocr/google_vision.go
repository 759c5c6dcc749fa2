package ocr

import (
	"context"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// ImageAnnotator is the subset of the Vision client used for page OCR.
type ImageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionRecognizer implements Recognizer using Google Cloud Vision API.
type VisionRecognizer struct {
	client ImageAnnotator
}

// NewVisionRecognizer creates a Vision recognizer with credentials from environment.
// It expects either GOOGLE_CREDENTIALS JSON or a GOOGLE_APPLICATION_CREDENTIALS path,
// and falls back to Application Default Credentials.
func NewVisionRecognizer(ctx context.Context) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	opts, source := googleCredentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if source == "" {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create client with "+source)
	}

	return &VisionRecognizer{client: client}, nil
}

// NewVisionRecognizerWithClient creates a Vision recognizer with an explicit client (for testing).
func NewVisionRecognizerWithClient(client ImageAnnotator) *VisionRecognizer {
	return &VisionRecognizer{client: client}
}

// Name implements Recognizer.
func (v *VisionRecognizer) Name() string { return "vision" }

// Recognize runs document text detection on one page image.
func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	const op = "VisionRecognize"

	if err := validateImage(op, image); err != nil {
		return "", err
	}
	hints, err := LanguageHints(language)
	if err != nil {
		return "", WrapOCRError(op, err, "")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: hints,
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apiFailure(op, err, "Vision API call failed")
	}
	if len(resp.GetResponses()) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	page := resp.GetResponses()[0]
	if st := page.GetError(); st != nil && (st.GetCode() != 0 || st.GetMessage() != "") {
		return "", apiFailure(op, statusError(st), "Vision API error")
	}

	// A page without any detected text is blank, not a failure.
	return page.GetFullTextAnnotation().GetText(), nil
}

// Close closes the underlying Vision client.
func (v *VisionRecognizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// googleCredentialOptions builds client options from GOOGLE_CREDENTIALS or
// GOOGLE_APPLICATION_CREDENTIALS and names the variable used. An empty source
// means Application Default Credentials.
func googleCredentialOptions() ([]option.ClientOption, string) {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}, "GOOGLE_CREDENTIALS"
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}, "GOOGLE_APPLICATION_CREDENTIALS"
	}
	return nil, ""
}
