package text

import (
	"fmt"
	"strings"
)

// DocumentSeparator separates document blocks in an assembled corpus.
const DocumentSeparator = "\n---- Document Separator ----\n"

// BatchSeparator joins cleaned document texts inside a batch file.
const BatchSeparator = ";"

// Assemble renders raw document texts as one labeled corpus. Each document is
// split into pages and emitted as a "[Document i]" header followed by one
// "Page j: <text>" line per page; documents are joined by DocumentSeparator.
func Assemble(documents []string) string {
	blocks := make([]string, 0, len(documents))
	for i, doc := range documents {
		pages := SplitPages(doc)
		lines := make([]string, 0, len(pages)+1)
		lines = append(lines, fmt.Sprintf("[Document %d]", i+1))
		for j, page := range pages {
			lines = append(lines, fmt.Sprintf("Page %d: %s", j+1, page))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, DocumentSeparator)
}

// SplitBatch splits stored batch content back into its documents. Cleaned text
// may itself contain ";", in which case a document is returned in pieces; the
// batch format carries no escaping to tell the two apart.
func SplitBatch(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, BatchSeparator)
}

// JoinBatch joins cleaned document texts into batch content.
func JoinBatch(documents []string) string {
	return strings.Join(documents, BatchSeparator)
}
