package tesseract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"ocrbatch/internal/extract"
	"ocrbatch/internal/ocr"
	"ocrbatch/internal/render"
)

// ensureTesseractAvailable checks that a tesseract installation is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

// textPNG renders s in black on a white image.
func textPNG(t *testing.T, s string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(s)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// installed fakes the traineddata listing.
func installed(langs ...string) func() ([]string, error) {
	return func() ([]string, error) { return langs, nil }
}

// noClient fails the test when a gosseract client would be created.
func noClient(t *testing.T) func() *gosseract.Client {
	return func() *gosseract.Client {
		t.Fatal("gosseract client created although the request should be rejected first")
		return nil
	}
}

func TestRecognizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		image    []byte
		language string
		want     error
	}{
		{"empty image", nil, "eng", ocr.ErrEmptyImage},
		{"empty language", []byte("png"), "", ocr.ErrUnsupportedLanguage},
		{"only separators", []byte("png"), "+ +", ocr.ErrUnsupportedLanguage},
		{"missing traineddata", []byte("png"), "chi_sim", ocr.ErrUnsupportedLanguage},
		{"one of several missing", []byte("png"), "eng+chi_sim", ocr.ErrUnsupportedLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(200)
			e.clientFactory = noClient(t)
			e.availableLanguages = installed("eng", "osd")

			_, err := e.Recognize(context.Background(), tt.image, tt.language)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Recognize() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecognizeNamesMissingLanguages(t *testing.T) {
	e := New(200)
	e.clientFactory = noClient(t)
	e.availableLanguages = installed("eng")

	_, err := e.Recognize(context.Background(), []byte("png"), "eng+chi_sim+jpn")
	if err == nil || !strings.Contains(err.Error(), "chi_sim, jpn") {
		t.Fatalf("Recognize() error = %v, want it to name chi_sim and jpn", err)
	}
}

func TestRecognizeListsLanguagesOnce(t *testing.T) {
	calls := 0
	e := New(200)
	e.clientFactory = noClient(t)
	e.availableLanguages = func() ([]string, error) {
		calls++
		return []string{"eng"}, nil
	}

	for i := 0; i < 3; i++ {
		_, _ = e.Recognize(context.Background(), []byte("png"), "deu")
	}
	if calls != 1 {
		t.Fatalf("available languages listed %d times, want 1", calls)
	}
}

func TestRecognizeInitFailureIsUnsupportedLanguage(t *testing.T) {
	ensureTesseractAvailable(t)

	emptyTessdata := t.TempDir()
	e := New(200)
	e.availableLanguages = func() ([]string, error) { return nil, errors.New("tessdata not found") }
	e.clientFactory = func() *gosseract.Client {
		c := gosseract.NewClient()
		_ = c.SetTessdataPrefix(emptyTessdata)
		return c
	}

	_, err := e.Recognize(context.Background(), textPNG(t, "Hello"), "eng")
	if !errors.Is(err, ocr.ErrUnsupportedLanguage) {
		t.Fatalf("Recognize() error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestRecognizeText(t *testing.T) {
	ensureTesseractAvailable(t)
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil || !contains(langs, "eng") {
		t.Skip("eng traineddata not installed")
	}

	got, err := New(300).Recognize(context.Background(), textPNG(t, "Hello PDF"), "eng")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if lower := strings.ToLower(got); !strings.Contains(lower, "hello") || !strings.Contains(lower, "pdf") {
		t.Fatalf("unexpected OCR output: %q", got)
	}
}

type pagesRenderer struct{ pages int }

func (r pagesRenderer) Render(ctx context.Context, pdfPath string, dpi int) ([]render.PageImage, error) {
	images := make([]render.PageImage, r.pages)
	for i := range images {
		images[i] = render.PageImage{Number: i + 1, PNG: []byte("png")}
	}
	return images, nil
}

// A missing language must fail the document even when failed pages are
// blanked, instead of turning every page into an empty one.
func TestBlankPagePolicyFailsOnMissingLanguage(t *testing.T) {
	e := New(200)
	e.clientFactory = noClient(t)
	e.availableLanguages = installed("eng")

	ex := extract.New(pagesRenderer{pages: 3}, e, extract.WithPagePolicy(extract.BlankPage))
	raw, err := ex.Extract(context.Background(), "scan.pdf", "chi_sim")
	if !errors.Is(err, ocr.ErrUnsupportedLanguage) {
		t.Fatalf("Extract() = %q, %v; want ErrUnsupportedLanguage", raw, err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
