// Package batch runs the OCR pipeline over a directory of PDFs and writes the
// cleaned texts as size-bounded batch files.
//
// Documents are processed strictly one at a time in lexicographic filename
// order. Every chunkSize documents the cleaned texts are joined with ";" and
// written to batch_<N>_<C>.txt, where N is the 1-based batch index and C the
// number of characters in the file. The last batch holds the remainder.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ocrbatch/internal/text"
	"ocrbatch/pkg/models"
)

// Extractor produces page-marked raw text for one PDF.
type Extractor interface {
	Extract(ctx context.Context, pdfPath, languageHint string) (string, error)
}

// FailurePolicy decides what a document failure does to the run.
type FailurePolicy int

const (
	// Abort stops the run at the first failing document.
	Abort FailurePolicy = iota

	// Skip logs the failing document, leaves it out of its batch and continues.
	// The document still occupies its position, so batch boundaries depend only
	// on the sorted file list.
	Skip
)

// Request holds the parameters of one run.
type Request struct {
	TargetBatchCount int
	PDFDirectory     string
	LanguageHint     string
	OutputDirectory  string
}

// Processor orchestrates extraction, cleaning and batch serialization.
type Processor struct {
	extractor Extractor
	policy    FailurePolicy
	log       zerolog.Logger
	onBatch   func(models.Batch)
	runID     string
}

// Option configures a Processor.
type Option func(*Processor)

// WithFailurePolicy sets the document failure policy.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Processor) { p.policy = policy }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// WithBatchHook registers fn to be called after each batch file is written.
func WithBatchHook(fn func(models.Batch)) Option {
	return func(p *Processor) { p.onBatch = fn }
}

// WithRunID sets the ID that tags the run's log lines and batches. Without
// it every run gets a fresh UUID.
func WithRunID(id string) Option {
	return func(p *Processor) { p.runID = id }
}

// NewProcessor creates a Processor that aborts on the first document failure.
func NewProcessor(extractor Extractor, opts ...Option) *Processor {
	p := &Processor{
		extractor: extractor,
		policy:    Abort,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every PDF in req.PDFDirectory and returns the content of each
// batch written, in batch order.
func (p *Processor) Run(ctx context.Context, req Request) ([]string, error) {
	batches, err := p.RunBatches(ctx, req)
	contents := make([]string, len(batches))
	for i, b := range batches {
		contents[i] = b.Content
	}
	return contents, err
}

// RunBatches is Run returning full batch records. On error the batches
// written before the failure are returned alongside it.
func (p *Processor) RunBatches(ctx context.Context, req Request) ([]models.Batch, error) {
	run, err := p.Execute(ctx, req)
	return run.Batches, err
}

// Execute is RunBatches returning the whole run, including the documents
// skipped in chunks that wrote no batch file. On error the run holds what
// was done before the failure.
func (p *Processor) Execute(ctx context.Context, req Request) (models.Run, error) {
	runID := p.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := p.log.With().Str("run_id", runID).Logger()
	run := models.Run{ID: runID}

	if req.TargetBatchCount < 1 {
		return run, &Error{Op: "Run", Kind: ErrInput, Err: fmt.Errorf("target batch count must be at least 1, got %d", req.TargetBatchCount)}
	}

	if err := os.MkdirAll(req.OutputDirectory, 0o755); err != nil {
		return run, &Error{Op: "CreateOutputDir", Kind: ErrIO, Err: err}
	}

	docs, err := ListPDFs(req.PDFDirectory)
	if err != nil {
		return run, err
	}

	total := len(docs)
	if total == 0 {
		log.Info().
			Str("dir", req.PDFDirectory).
			Msg("No PDF files found")
		run.Batches = []models.Batch{}
		return run, nil
	}

	chunkSize := ChunkSize(total, req.TargetBatchCount)
	log.Info().
		Int("total_files", total).
		Int("chunk_size", chunkSize).
		Int("target_batches", req.TargetBatchCount).
		Str("language", req.LanguageHint).
		Msg("Starting batch run")

	start := time.Now()
	current := pending{runID: runID, index: 1}

	finalize := func() error {
		if len(current.texts) == 0 {
			log.Warn().
				Int("batch", current.index).
				Strs("skipped", current.skipped).
				Msg("Every document of the batch was skipped, no file written")
			current = pending{runID: runID, index: current.index}
			return nil
		}
		b, err := p.writeBatch(req.OutputDirectory, current)
		if err != nil {
			return err
		}
		log.Info().
			Int("batch", b.Index).
			Int("documents", b.Size()).
			Int("chars", b.CharCount).
			Str("file", b.Path).
			Msg("Batch saved")
		run.Batches = append(run.Batches, b)
		if p.onBatch != nil {
			p.onBatch(b)
		}
		current = pending{runID: runID, index: current.index + 1}
		return nil
	}

	for i, doc := range docs {
		idx := i + 1
		name := filepath.Base(doc.Path)

		if err := ctx.Err(); err != nil {
			return run, err
		}

		cleaned, err := p.process(ctx, doc, req.LanguageHint)
		if err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			if p.policy != Skip {
				return run, &Error{Op: "Extract", Kind: ErrExtraction, Document: name, BatchIndex: current.index, Err: err}
			}
			log.Warn().
				Err(err).
				Str("file", name).
				Int("index", idx).
				Int("batch", current.index).
				Msg("Skipping document after extraction failure")
			current.skipped = append(current.skipped, name)
			run.Skipped = append(run.Skipped, name)
		} else {
			current.texts = append(current.texts, cleaned)
			current.documents = append(current.documents, name)
			log.Info().
				Int("chars", utf8.RuneCountInString(cleaned)).
				Msgf("[%d/%d] %s", idx, total, name)
		}

		if idx%chunkSize == 0 {
			if err := finalize(); err != nil {
				return run, err
			}
		}
	}

	// Remainder that did not fill a whole chunk
	if len(current.texts) > 0 || len(current.skipped) > 0 {
		if err := finalize(); err != nil {
			return run, err
		}
	}

	log.Info().
		Int("batches", len(run.Batches)).
		Int("documents", total).
		Int("skipped", len(run.Skipped)).
		Dur("duration", time.Since(start)).
		Msg("Batch run completed")

	return run, nil
}

// process extracts and cleans one document.
func (p *Processor) process(ctx context.Context, doc models.Document, languageHint string) (string, error) {
	raw, err := p.extractor.Extract(ctx, doc.Path, languageHint)
	if err != nil {
		return "", err
	}
	return text.Clean(raw), nil
}

// pending accumulates the documents of the batch being built.
type pending struct {
	runID     string
	index     int
	texts     []string
	documents []string
	skipped   []string
}

// writeBatch joins the pending texts and writes them to
// batch_<index>_<chars>.txt in dir.
func (p *Processor) writeBatch(dir string, b pending) (models.Batch, error) {
	content := strings.ToValidUTF8(text.JoinBatch(b.texts), "\uFFFD")
	charCount := utf8.RuneCountInString(content)
	path := filepath.Join(dir, FileName(b.index, charCount))

	if err := writeFile(path, content); err != nil {
		return models.Batch{}, &Error{Op: "WriteBatch", Kind: ErrIO, BatchIndex: b.index, Err: err}
	}

	return models.Batch{
		RunID:     b.runID,
		Index:     b.index,
		Path:      path,
		Content:   content,
		CharCount: charCount,
		Documents: b.documents,
		Skipped:   b.skipped,
	}, nil
}

// writeFile writes content and closes the file on every path. A file that
// could not be written completely is removed, since its name would claim a
// character count it does not hold.
func writeFile(path, content string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	_, err = f.WriteString(content)
	return err
}

// FileName returns the batch file name for a batch index and character count.
func FileName(index, charCount int) string {
	return fmt.Sprintf("batch_%d_%d.txt", index, charCount)
}

// ChunkSize returns the number of documents per batch: the total divided by
// the target batch count, rounded up.
func ChunkSize(total, targetBatchCount int) int {
	if total <= 0 || targetBatchCount <= 0 {
		return 0
	}
	return (total + targetBatchCount - 1) / targetBatchCount
}

// ListPDFs returns the PDF files directly inside dir (extension matched
// case-insensitively), sorted lexicographically by file name.
func ListPDFs(dir string) ([]models.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &Error{Op: "ListPDFs", Kind: ErrInput, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Op: "ListPDFs", Kind: ErrInput, Err: fmt.Errorf("%s is not a directory", dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Op: "ListPDFs", Kind: ErrInput, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || target.IsDir() {
				continue
			}
		}
		names = append(names, entry.Name())
	}

	// Byte-wise order, independent of how the OS lists the directory.
	sort.Strings(names)

	docs := make([]models.Document, len(names))
	for i, name := range names {
		docs[i] = models.Document{Path: filepath.Join(dir, name), Index: i + 1}
	}
	return docs, nil
}
