package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// writePDF writes a minimal valid PDF with the given number of blank pages.
func writePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write PDF: %v", err)
	}
	return path
}

// fakePdftoppm installs a shell script that mimics pdftoppm -singlefile by
// writing "<prefix>.png" containing the requested page number and DPI.
func fakePdftoppm(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake renderer needs a POSIX shell")
	}

	script := `#!/bin/sh
page=""
dpi=""
while [ $# -gt 2 ]; do
  case "$1" in
    -f) page="$2"; shift ;;
    -r) dpi="$2"; shift ;;
  esac
  shift
done
printf 'page=%s dpi=%s' "$page" "$dpi" > "$2.png"
`
	path := filepath.Join(t.TempDir(), "pdftoppm")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake pdftoppm: %v", err)
	}
	return path
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()

	path := writePDF(t, dir, "three.pdf", 3)
	count, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("PageCount() = %d, want 3", count)
	}

	if _, err := PageCount(filepath.Join(dir, "missing.pdf")); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("missing file: error = %v, want ErrFileNotFound", err)
	}

	garbage := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("this is not a PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := PageCount(garbage); !errors.Is(err, ErrInvalidPDF) {
		t.Fatalf("garbage file: error = %v, want ErrInvalidPDF", err)
	}

	if _, err := PageCount(dir); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("directory: error = %v, want ErrFileNotFound", err)
	}
}

func TestPdftoppmRenderWithFakeBinary(t *testing.T) {
	binary := fakePdftoppm(t)
	path := writePDF(t, t.TempDir(), "doc.pdf", 2)

	pages, err := NewPdftoppm(binary, zerolog.Nop()).Render(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Render() returned %d pages, want 2", len(pages))
	}
	for i, page := range pages {
		if page.Number != i+1 {
			t.Errorf("page %d numbered %d", i, page.Number)
		}
		want := fmt.Sprintf("page=%d dpi=%d", i+1, DefaultDPI)
		if string(page.PNG) != want {
			t.Errorf("page %d image = %q, want %q", i+1, page.PNG, want)
		}
	}
}

func TestPdftoppmRenderErrors(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "doc.pdf", 1)

	_, err := NewPdftoppm("definitely-not-a-renderer", zerolog.Nop()).Render(context.Background(), path, 200)
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Fatalf("missing binary: error = %v, want ErrRendererUnavailable", err)
	}

	if runtime.GOOS != "windows" {
		failing := filepath.Join(dir, "failing-pdftoppm")
		if err := os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0o755); err != nil {
			t.Fatal(err)
		}
		_, err = NewPdftoppm(failing, zerolog.Nop()).Render(context.Background(), path, 200)
		var renderErr *Error
		if !errors.Is(err, ErrRenderFailed) || !errors.As(err, &renderErr) || renderErr.Page != 1 {
			t.Fatalf("failing binary: error = %v, want ErrRenderFailed on page 1", err)
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Fatalf("error %q should carry renderer output", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPdftoppm(fakePdftoppm(t), zerolog.Nop()).Render(ctx, path, 200); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled context: error = %v, want context.Canceled", err)
	}
}

func TestPdftoppmRenderReal(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	path := writePDF(t, t.TempDir(), "real.pdf", 1)

	pages, err := NewPdftoppm("", zerolog.Nop()).Render(context.Background(), path, 72)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(pages) != 1 || !bytes.HasPrefix(pages[0].PNG, []byte("\x89PNG")) {
		t.Fatalf("expected one PNG page, got %d pages", len(pages))
	}
}
