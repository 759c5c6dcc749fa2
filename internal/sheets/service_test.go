package sheets

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"ocrbatch/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9", false},
		{"https://docs.google.com/spreadsheets/d/xyz", "xyz", false},
		{"https://example.com/sheet/xyz", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := extractSpreadsheetID(tt.url)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSheetURL) {
				t.Errorf("extractSpreadsheetID(%q) error = %v, want ErrInvalidSheetURL", tt.url, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("extractSpreadsheetID(%q) = %q, %v; want %q", tt.url, got, err, tt.want)
		}
	}
}

func TestManifestRows(t *testing.T) {
	run := models.Run{
		ID: "r1",
		Batches: []models.Batch{
			{RunID: "r1", Index: 1, Path: "data/batch_1_14.txt", CharCount: 14, Documents: []string{"a.pdf", "b.pdf"}},
			{RunID: "r1", Index: 2, Path: "data/batch_2_4.txt", CharCount: 4, Documents: []string{"d.pdf"}, Skipped: []string{"c.pdf", "e.pdf"}},
		},
		Skipped: []string{"c.pdf", "e.pdf"},
	}
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	rows := manifestRows(run, at)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	want := []interface{}{"r1", 2, "data/batch_2_4.txt", 1, 4, "c.pdf, e.pdf", "d.pdf", "2024-03-01 09:30:00"}
	if got := rows[1].values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("row values = %v, want %v", got, want)
	}
	if len(rows[0].values()) != len(manifestColumns) {
		t.Fatalf("row has %d cells, header has %d", len(rows[0].values()), len(manifestColumns))
	}
}

func TestManifestRowsListDocumentsWithoutBatch(t *testing.T) {
	run := models.Run{
		ID: "r2",
		Batches: []models.Batch{
			{RunID: "r2", Index: 1, Path: "out/batch_1_14.txt", CharCount: 14, Documents: []string{"a.pdf", "b.pdf", "c.pdf"}},
			{RunID: "r2", Index: 2, Path: "out/batch_2_9.txt", CharCount: 9, Documents: []string{"d.pdf", "f.pdf"}, Skipped: []string{"e.pdf"}},
		},
		Skipped: []string{"e.pdf", "g.pdf"},
	}

	rows := manifestRows(run, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	want := []interface{}{"r2", "", "", 0, 0, "g.pdf", "", "2024-03-01 09:30:00"}
	if got := rows[2].values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("row values = %v, want %v", got, want)
	}
}

func TestManifestRowsEmptyRun(t *testing.T) {
	if rows := manifestRows(models.Run{ID: "r3"}, time.Now()); len(rows) != 0 {
		t.Fatalf("got %d rows for an empty run, want 0", len(rows))
	}
}
