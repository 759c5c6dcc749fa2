package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// Pdftoppm renders pages by running the pdftoppm binary once per page.
type Pdftoppm struct {
	binary string
	log    zerolog.Logger
}

// NewPdftoppm returns a renderer using binary, looked up on PATH when it is
// not an absolute path.
func NewPdftoppm(binary string, log zerolog.Logger) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{binary: binary, log: log}
}

// PageCount opens the PDF and returns its number of pages.
func PageCount(pdfPath string) (int, error) {
	info, err := os.Stat(pdfPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return 0, &Error{Path: pdfPath, Err: fmt.Errorf("%w: %v", ErrFileNotFound, err)}
		}
		return 0, &Error{Path: pdfPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return 0, &Error{Path: pdfPath, Err: fmt.Errorf("%w: not a regular file", ErrFileNotFound)}
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, &Error{Path: pdfPath, Err: fmt.Errorf("%w: %v", ErrFileNotFound, err)}
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, &Error{Path: pdfPath, Err: fmt.Errorf("%w: %v", ErrInvalidPDF, err)}
	}
	return count, nil
}

// Render implements Renderer. Pages are rendered sequentially into a temporary
// directory that is removed before returning.
func (p *Pdftoppm) Render(ctx context.Context, pdfPath string, dpi int) ([]PageImage, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	count, err := PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	binary, err := exec.LookPath(p.binary)
	if err != nil {
		return nil, &Error{Path: pdfPath, Err: fmt.Errorf("%w: %s: %v", ErrRendererUnavailable, p.binary, err)}
	}

	tmpDir, err := os.MkdirTemp("", "ocrbatch-render-*")
	if err != nil {
		return nil, &Error{Path: pdfPath, Err: fmt.Errorf("create temp dir: %w", err)}
	}
	defer os.RemoveAll(tmpDir)

	p.log.Debug().
		Str("file", pdfPath).
		Int("pages", count).
		Int("dpi", dpi).
		Msg("Rendering PDF")

	pages := make([]PageImage, 0, count)
	for page := 1; page <= count; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := p.renderPage(ctx, binary, pdfPath, tmpDir, page, dpi)
		if err != nil {
			return nil, &Error{Path: pdfPath, Page: page, Err: err}
		}
		pages = append(pages, PageImage{Number: page, PNG: data})
	}

	return pages, nil
}

// renderPage renders a single page using pdftoppm (poppler-utils).
func (p *Pdftoppm) renderPage(ctx context.Context, binary, pdfPath, tmpDir string, page, dpi int) ([]byte, error) {
	outputPrefix := filepath.Join(tmpDir, fmt.Sprintf("page-%d", page))

	// -singlefile: no page number suffix on the output name
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, binary,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v (output: %s)", ErrRenderFailed, err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm did not create expected output: %v", ErrRenderFailed, err)
	}
	_ = os.Remove(srcPath)

	return data, nil
}
