package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrbatch/internal/batch"
	"ocrbatch/internal/config"
	"ocrbatch/internal/logger"
	"ocrbatch/internal/ocr"
	"ocrbatch/internal/render"
	"ocrbatch/internal/sheets"
	"ocrbatch/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [pdf-dir]",
	Short: "OCR every PDF in a folder and write the texts as batch files",
	Long: `Process all PDF files in a folder (sorted by file name), extract their text
with OCR, clean it and write the documents into batch files.

The documents are split into chunks of ceil(total / batches) files. The cleaned
texts of a chunk are joined with ";" and written to
<output>/batch_<index>_<characters>.txt. With fewer files than batches every
batch holds one document.

Configuration is read from the environment (or a .env file); flags override it:
  OCR_ENGINE            tesseract, vision, documentai or openai (default: tesseract)
  OCR_LANGUAGE          Tesseract language code(s), e.g. eng or chi_sim+eng (default: eng)
  BATCH_COUNT           Target number of batches (default: 100)
  OUTPUT_DIR            Directory for the batch files (default: data)
  RENDER_DPI            Page rendering resolution (default: 200)
  FAILURE_POLICY        abort or skip failed documents (default: abort)
  PAGE_FAILURE_POLICY   abort or blank failed pages (default: abort)
  GOOGLE_SHEET_URL      Spreadsheet receiving the batch manifest (optional)`,
	Example: `  # Split ./scans into 100 batches under ./data
  ocrbatch batch ./scans

  # 10 batches of Simplified Chinese documents into ./out
  ocrbatch batch ./scans -n 10 -l chi_sim -o ./out

  # Keep going when a document fails and print every batch
  ocrbatch batch ./scans --skip-failed --print

  # Use Google Cloud Vision and record the batches in a spreadsheet
  ocrbatch batch ./scans --engine vision --sheet https://docs.google.com/spreadsheets/d/<id>`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("batches", "n", 100, "Target number of batch files")
	batchCmd.Flags().StringP("output", "o", "data", "Output directory for batch files")
	batchCmd.Flags().StringP("lang", "l", "eng", "OCR language code(s), e.g. eng, chi_sim or chi_sim+eng")
	batchCmd.Flags().String("engine", "", "OCR engine: tesseract, vision, documentai or openai")
	batchCmd.Flags().Int("dpi", render.DefaultDPI, "Page rendering resolution")
	batchCmd.Flags().Bool("skip-failed", false, "Skip documents that fail instead of aborting the run")
	batchCmd.Flags().Bool("blank-failed-pages", false, "Keep a document when a single page fails OCR, with that page left blank")
	batchCmd.Flags().Int("timeout", 0, "Overall timeout in seconds (0: no timeout)")
	batchCmd.Flags().String("sheet", "", "Google Sheets URL receiving the batch manifest")
	batchCmd.Flags().Bool("print", false, "Print every batch after the run")
}

func runBatch(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	log := logger.WithRunID("batch", runID)

	cfg := loadConfig(log)
	applyBatchFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return fmt.Errorf("invalid configuration: %w", err)
	}

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	printBatches, _ := cmd.Flags().GetBool("print")
	pdfDir := args[0]

	log.Info().
		Str("dir", pdfDir).
		Str("output", cfg.OutputDir).
		Int("batches", cfg.BatchCount).
		Str("engine", cfg.OCREngine).
		Str("language", cfg.OCRLanguage).
		Str("failure_policy", cfg.FailurePolicy).
		Msg("Starting batch processing")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	extractor, closeEngine, err := newExtractor(ctx, cfg, logger.WithComponent("extract"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.Warn().Err(err).Msg("Failed to close OCR engine")
		}
	}()

	policy := batch.Abort
	if cfg.FailurePolicy == config.PolicySkip {
		policy = batch.Skip
	}

	// Summary lines go to stdout while batches are written; logs go to stderr.
	processor := batch.NewProcessor(extractor,
		batch.WithFailurePolicy(policy),
		batch.WithLogger(logger.WithComponent("batch")),
		batch.WithRunID(runID),
		batch.WithBatchHook(func(b models.Batch) {
			fmt.Printf("%s (%d documents, %d characters)\n", filepath.Base(b.Path), b.Size(), b.CharCount)
		}),
	)

	start := time.Now()
	run, runErr := processor.Execute(ctx, batch.Request{
		TargetBatchCount: cfg.BatchCount,
		PDFDirectory:     pdfDir,
		LanguageHint:     cfg.OCRLanguage,
		OutputDirectory:  cfg.OutputDir,
	})

	// Batches written before a failure are complete and still exported.
	if cfg.GoogleSheetURL != "" && (len(run.Batches) > 0 || len(run.Skipped) > 0) {
		if err := exportManifest(ctx, cfg, run, log); err != nil {
			if runErr == nil {
				return err
			}
			log.Error().Err(err).Msg("Failed to export batch manifest")
		}
	}

	if runErr != nil {
		return handleBatchError(runErr, log)
	}

	if printBatches {
		for _, b := range run.Batches {
			fmt.Printf("===== Batch %d =====\n%s\n\n", b.Index, b.Content)
		}
	}

	log.Info().
		Int("batches", len(run.Batches)).
		Strs("skipped", run.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Batch processing completed")

	if len(run.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d document(s): %s\n", len(run.Skipped), strings.Join(run.Skipped, ", "))
	}
	if len(run.Batches) == 0 && len(run.Skipped) == 0 {
		fmt.Fprintf(os.Stderr, "No batches written (no PDF files found in %s)\n", pdfDir)
	}
	return nil
}

// applyBatchFlags overrides configuration values with explicitly set flags.
func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("batches") {
		cfg.BatchCount, _ = flags.GetInt("batches")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("lang") {
		cfg.OCRLanguage, _ = flags.GetString("lang")
	}
	if flags.Changed("engine") {
		cfg.OCREngine, _ = flags.GetString("engine")
	}
	if flags.Changed("dpi") {
		cfg.RenderDPI, _ = flags.GetInt("dpi")
	}
	if skip, _ := flags.GetBool("skip-failed"); skip {
		cfg.FailurePolicy = config.PolicySkip
	}
	if blank, _ := flags.GetBool("blank-failed-pages"); blank {
		cfg.PageFailurePolicy = config.PolicyBlank
	}
	if flags.Changed("sheet") {
		cfg.GoogleSheetURL, _ = flags.GetString("sheet")
	}
}

func exportManifest(ctx context.Context, cfg *config.Config, run models.Run, log zerolog.Logger) error {
	svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	if err := svc.WriteBatchManifest(ctx, run, cfg.GoogleSheetWorksheet); err != nil {
		return fmt.Errorf("failed to write batch manifest: %w", err)
	}
	return nil
}

// handleBatchError provides user-friendly error messages for batch failures
func handleBatchError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Batch processing failed")

	var batchErr *batch.Error
	errors.As(err, &batchErr)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("batch processing timed out. Batch files written so far are complete; increase --timeout to process everything")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("batch processing was canceled. Batch files written so far are complete")
	case errors.Is(err, batch.ErrInput):
		return fmt.Errorf("invalid input: %w", err)
	case errors.Is(err, batch.ErrIO):
		return fmt.Errorf("could not write batch output. Check that the output directory is writable: %w", err)
	case errors.Is(err, render.ErrRendererUnavailable):
		return fmt.Errorf("pdftoppm not found. Install poppler-utils or set PDFTOPPM_PATH: %w", err)
	case errors.Is(err, ocr.ErrUnsupportedLanguage):
		return fmt.Errorf("the OCR language is not supported by the selected engine. Check --lang and the installed traineddata files: %w", err)
	case errors.Is(err, render.ErrInvalidPDF), errors.Is(err, ocr.ErrOCRFailed):
		if batchErr != nil && batchErr.Document != "" {
			return fmt.Errorf("document %s could not be processed. Use --skip-failed to continue past broken documents: %w", batchErr.Document, err)
		}
		return fmt.Errorf("document processing failed: %w", err)
	default:
		return fmt.Errorf("batch processing failed: %w", err)
	}
}
