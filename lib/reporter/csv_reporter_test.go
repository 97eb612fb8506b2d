package reporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/geosfm/satba/lib/settings"
)

func TestCsvReporterAppendsSummaries(t *testing.T) {
	dir := t.TempDir()
	r := NewCsvReporter(dir)
	r.Initialize(settings.BaSettings{}, []string{"img_a", "img_b"})

	summaries := []ImageErrorSummary{
		{Pass: 1, Image: 0, Name: "img_a", NObs: 10, MeanBefore: 3.5, MeanAfter: 0.8, MaxAfter: 2.1},
		{Pass: 1, Image: 1, NObs: 12, MeanBefore: 2.9, MeanAfter: 0.7, MaxAfter: 1.8},
	}
	if err := r.AddImageSummaries(summaries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second pass appends to the same file.
	if err := r.AddImageSummaries([]ImageErrorSummary{
		{Pass: 2, Image: 0, Name: "img_a", NObs: 10, MeanBefore: 0.8, MeanAfter: 0.5, MaxAfter: 1.2},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "image_errors.csv"))
	if err != nil {
		t.Fatalf("missing csv output: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	if records[0][0] != "1" || records[0][2] != "img_a" || records[0][3] != "10" {
		t.Errorf("unexpected first row: %v", records[0])
	}
	// A summary without a name falls back to the image name list.
	if records[1][2] != "img_b" {
		t.Errorf("expected the image name fallback, got %q", records[1][2])
	}
	if records[2][0] != "2" {
		t.Errorf("expected the pass 2 row last, got %v", records[2])
	}
}

func TestCsvReporterSkipsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	r := NewCsvReporter(dir)
	r.Initialize(settings.BaSettings{}, nil)
	if err := r.AddImageSummaries(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "image_errors.csv")); !os.IsNotExist(err) {
		t.Errorf("no file should be created for empty input")
	}
}
