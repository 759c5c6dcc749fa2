package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ocrbatch/internal/logger"
	"ocrbatch/internal/ocr"
)

// Example demonstrates recognizing one rendered page with Google Cloud Vision.
func Example() {
	// Credentials are read from GOOGLE_APPLICATION_CREDENTIALS or
	// GOOGLE_CREDENTIALS, usually loaded from .env by godotenv in main().
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	vision, err := ocr.NewVisionRecognizer(ctx)
	if err != nil {
		log.Fatalf("Failed to create Vision recognizer: %v", err)
	}
	defer vision.Close()

	// Retry transient API failures up to three times per page
	recognizer := ocr.WithRetry(vision, 3, 2*time.Second, logger.WithComponent("ocr"))

	var pagePNG []byte // rendered by render.Pdftoppm
	text, err := recognizer.Recognize(ctx, pagePNG, "chi_sim+eng")
	if err != nil {
		log.Fatalf("OCR failed: %v", err)
	}
	fmt.Println(text)
}

// ExampleLanguageHints shows how Tesseract language codes reach the cloud engines.
func ExampleLanguageHints() {
	hints, err := ocr.LanguageHints("chi_sim+eng")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(strings.Join(hints, ","))

	_, err = ocr.LanguageHints("klingon")
	fmt.Println(errors.Is(err, ocr.ErrUnsupportedLanguage))
	// Output:
	// zh,en
	// true
}

// ExampleRecognizerFunc adapts a plain function to the Recognizer interface,
// which is handy for tests and custom engines.
func ExampleRecognizerFunc() {
	upper := ocr.RecognizerFunc(func(ctx context.Context, image []byte, language string) (string, error) {
		return strings.ToUpper(string(image)), nil
	})

	text, _ := upper.Recognize(context.Background(), []byte("scanned"), "eng")
	fmt.Println(text)
	// Output: SCANNED
}
