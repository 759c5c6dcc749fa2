// Package text holds the pure text stages of the OCR pipeline: page marker
// handling, cleaning of raw OCR output and assembly of multi-document corpora.
//
// Raw OCR output for one document carries a marker line in front of every page:
//
//	--- Page 1 ---
//	first page text
//	--- Page 2 ---
//	second page text
//
// The marker grammar is fixed. Stored batch files depend on it, so the
// pattern below must not be relaxed or tightened. "Whitespace" inside a marker
// is the same Unicode class that Clean collapses, so a marker never survives
// one Clean only to be stripped by the next.
package text

import (
	"fmt"
	"regexp"
	"strings"
)

// space is one whitespace character: ASCII whitespace including \v, the
// information separators, NEL and every Unicode space or line separator.
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// pageMarker matches a page marker anywhere in raw OCR text.
var pageMarker = regexp.MustCompile(`---` + space + `*Page` + space + `*\d+` + space + `*---`)

// PageMarker returns the marker placed in front of page n (1-based).
func PageMarker(n int) string {
	return fmt.Sprintf("--- Page %d ---", n)
}

// FormatPages renders page texts as raw document text, prefixing each page
// with its marker and joining pages with a newline.
func FormatPages(pages []string) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = PageMarker(i+1) + "\n" + page
	}
	return strings.Join(parts, "\n")
}

// SplitPages splits raw document text back into its pages. Markers are
// discarded and blank segments dropped. Text without any usable segment
// yields a single page holding the trimmed input, so the result is never empty.
func SplitPages(raw string) []string {
	var pages []string
	for _, segment := range pageMarker.Split(raw, -1) {
		if page := strings.TrimSpace(segment); page != "" {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		return []string{strings.TrimSpace(raw)}
	}
	return pages
}
