package ocr

import (
	"fmt"
	"regexp"
)

// tesseractToBCP47 maps Tesseract traineddata names to the BCP-47 tags the
// cloud engines accept as language hints.
var tesseractToBCP47 = map[string]string{
	"ara":     "ar",
	"ces":     "cs",
	"chi_sim": "zh",
	"chi_tra": "zh-Hant",
	"dan":     "da",
	"deu":     "de",
	"ell":     "el",
	"eng":     "en",
	"fin":     "fi",
	"fra":     "fr",
	"heb":     "iw",
	"hin":     "hi",
	"hun":     "hu",
	"ind":     "id",
	"ita":     "it",
	"jpn":     "ja",
	"kor":     "ko",
	"nld":     "nl",
	"nor":     "no",
	"pol":     "pl",
	"por":     "pt",
	"ron":     "ro",
	"rus":     "ru",
	"spa":     "es",
	"swe":     "sv",
	"tha":     "th",
	"tur":     "tr",
	"ukr":     "uk",
	"vie":     "vi",
}

// bcp47Tag accepts plain two-letter tags with an optional script or region subtag.
var bcp47Tag = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z]{2,4})?$`)

// LanguageHints translates a Tesseract language setting into BCP-47 hints.
// Codes that are already BCP-47 tags pass through unchanged.
func LanguageHints(language string) ([]string, error) {
	codes := TesseractLanguages(language)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: empty language", ErrUnsupportedLanguage)
	}

	hints := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		hint, ok := tesseractToBCP47[code]
		if !ok {
			if !bcp47Tag.MatchString(code) {
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
			}
			hint = code
		}
		if !seen[hint] {
			seen[hint] = true
			hints = append(hints, hint)
		}
	}
	return hints, nil
}
