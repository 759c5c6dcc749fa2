package text

import (
	"regexp"
	"strings"
)

// whitespaceRun matches runs of ASCII and Unicode whitespace. OCR output for
// CJK scripts regularly carries ideographic spaces and no-break spaces.
var whitespaceRun = regexp.MustCompile(space + `+`)

// ocrArtifacts maps characters the OCR engine commonly misreads to their intended form.
var ocrArtifacts = strings.NewReplacer("~", "-")

// Clean normalizes raw OCR output into a single line of text: page markers are
// removed, known OCR artifacts replaced, whitespace runs collapsed to one space
// and the result trimmed.
//
// Removing a marker or replacing a "~" can splice a new marker together out of
// the surrounding text, so stripping repeats until none is left. This keeps
// Clean idempotent for every input.
func Clean(raw string) string {
	cleaned := stripMarkers(raw)
	cleaned = ocrArtifacts.Replace(cleaned)
	cleaned = stripMarkers(cleaned)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func stripMarkers(s string) string {
	for pageMarker.MatchString(s) {
		s = pageMarker.ReplaceAllString(s, "")
	}
	return s
}
