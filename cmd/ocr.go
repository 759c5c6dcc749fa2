package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrbatch/internal/logger"
	"ocrbatch/internal/ocr"
	"ocrbatch/internal/render"
	"ocrbatch/internal/text"
	"ocrbatch/pkg/models"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf-file]",
	Short: "Extract text from a single PDF with OCR",
	Long: `Render every page of one PDF, run OCR on it and print the text.

The raw output carries a "--- Page N ---" marker in front of every page. With
--clean the markers are removed and whitespace is collapsed, which is the form
stored in batch files.`,
	Example: `  # Extract text from scan.pdf to stdout
  ocrbatch ocr scan.pdf

  # Save the cleaned text of a Chinese document to a file
  ocrbatch ocr scan.pdf -l chi_sim --clean -o scan.txt

  # Output pages and metadata as JSON
  ocrbatch ocr scan.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size"`
	Engine             string        `json:"engine"`
	Language           string        `json:"language"`
	PageCount          int           `json:"page_count"`
	Pages              []models.Page `json:"pages"`
	Text               string        `json:"text"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration string        `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().StringP("lang", "l", "eng", "OCR language code(s), e.g. eng, chi_sim or chi_sim+eng")
	ocrCmd.Flags().String("engine", "", "OCR engine: tesseract, vision, documentai or openai")
	ocrCmd.Flags().Int("dpi", render.DefaultDPI, "Page rendering resolution")
	ocrCmd.Flags().Bool("clean", false, "Remove page markers and collapse whitespace")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	clean, _ := cmd.Flags().GetBool("clean")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg := loadConfig(log)
	if cmd.Flags().Changed("lang") {
		cfg.OCRLanguage, _ = cmd.Flags().GetString("lang")
	}
	if cmd.Flags().Changed("engine") {
		cfg.OCREngine, _ = cmd.Flags().GetString("engine")
	}
	if cmd.Flags().Changed("dpi") {
		cfg.RenderDPI, _ = cmd.Flags().GetInt("dpi")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("output", outputPath).
		Str("engine", cfg.OCREngine).
		Str("language", cfg.OCRLanguage).
		Bool("clean", clean).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validatePDFFile(pdfPath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	extractor, closeEngine, err := newExtractor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR engine")
		}
	}()

	startTime := time.Now()
	pages, err := extractor.ExtractPages(ctx, pdfPath, cfg.OCRLanguage)
	if err != nil {
		return handleOCRError(err, log)
	}
	processingDuration := time.Since(startTime)

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	result := text.FormatPages(texts)
	if clean {
		result = text.Clean(result)
	}

	log.Info().
		Int("page_count", len(pages)).
		Dur("duration", processingDuration).
		Int("text_length", len(result)).
		Msg("OCR processing completed successfully")

	var outputData []byte
	if jsonOutput {
		outputData, err = json.MarshalIndent(OCROutput{
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
			Engine:             cfg.OCREngine,
			Language:           cfg.OCRLanguage,
			PageCount:          len(pages),
			Pages:              pages,
			Text:               result,
			ProcessedAt:        time.Now(),
			ProcessingDuration: processingDuration.String(),
		}, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
	} else {
		outputData = []byte(result + "\n")
	}

	return writeOutput(outputPath, outputData, log)
}

// validatePDFFile checks if the file exists, is readable, and appears to be a PDF
func validatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("PDF file not found")
			return nil, fmt.Errorf("PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", pdfPath).
				Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", pdfPath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().
			Str("file", pdfPath).
			Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", pdfPath).
			Msg("PDF file is empty")
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling.
// A timeout of 0 or less leaves only the signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, render.ErrRendererUnavailable):
		return fmt.Errorf("pdftoppm not found. Install poppler-utils or set PDFTOPPM_PATH: %w", err)
	case errors.Is(err, render.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity: %w", err)
	case errors.Is(err, ocr.ErrUnsupportedLanguage):
		return fmt.Errorf("the OCR language is not supported by the selected engine: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure the service account may use the selected OCR API: %w", err)
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("OCR API quota exceeded. Check your project quotas: %w", err)
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// writeOutput writes data to outputPath, or to stdout when it is empty.
func writeOutput(outputPath string, data []byte, log zerolog.Logger) error {
	if outputPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Output written to file")
	return nil
}
