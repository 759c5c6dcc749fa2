package models

// Document is one source PDF discovered in the input directory.
type Document struct {
	Path  string // Full path to the PDF
	Index int    // 1-based position in the sorted input set
}

// Page is one unit of OCR output within a Document.
type Page struct {
	Number int    `json:"number"` // 1-based page number
	Text   string `json:"text"`   // Recognized text, trimmed
}

// Batch is a group of cleaned documents serialized together as one output file.
type Batch struct {
	// Core identifiers
	RunID string // ID of the run that produced the batch
	Index int    // 1-based, monotonic in processing order
	Path  string // Path of the written batch file

	// Content
	Content   string // Cleaned document texts joined by ";"
	CharCount int    // Number of characters (runes) in Content

	// Provenance
	Documents []string // Base names of the documents included, in order
	Skipped   []string // Base names of documents dropped under the skip policy
}

// Size returns the number of documents included in the batch.
func (b Batch) Size() int {
	return len(b.Documents)
}

// Run is the outcome of one batch run.
type Run struct {
	ID      string
	Batches []Batch // Written batches, in batch order

	// Skipped lists every document dropped under the skip policy in
	// processing order, including those of chunks that produced no file.
	Skipped []string
}

// Unbatched returns the skipped documents that no written batch records,
// that is the documents of chunks in which every document failed.
func (r Run) Unbatched() []string {
	recorded := make(map[string]bool)
	for _, b := range r.Batches {
		for _, name := range b.Skipped {
			recorded[name] = true
		}
	}
	var names []string
	for _, name := range r.Skipped {
		if !recorded[name] {
			names = append(names, name)
		}
	}
	return names
}
