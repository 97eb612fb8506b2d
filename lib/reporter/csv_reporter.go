package reporter

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/geosfm/satba/lib/settings"
)

type CsvReporter struct {
	filenameBase string
	imageNames   []string
}

func NewCsvReporter(filenameBase string) *CsvReporter {
	return &CsvReporter{filenameBase: filenameBase}
}

func (c *CsvReporter) Initialize(config settings.BaSettings, imageNames []string) {
	c.imageNames = imageNames
}

func (c *CsvReporter) csvRecordFromSummary(s ImageErrorSummary) []string {
	name := s.Name
	if name == "" && s.Image < len(c.imageNames) {
		name = c.imageNames[s.Image]
	}
	return []string{
		fmt.Sprintf("%d", s.Pass),
		fmt.Sprintf("%d", s.Image),
		name,
		fmt.Sprintf("%d", s.NObs),
		fmt.Sprintf("%f", s.MeanBefore),
		fmt.Sprintf("%f", s.MeanAfter),
		fmt.Sprintf("%f", s.MaxAfter),
	}
}

func (c *CsvReporter) AddImageSummaries(summaries []ImageErrorSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	resultsPath := filepath.Join(c.filenameBase, "image_errors.csv")
	file, err := os.OpenFile(resultsPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0640)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, s := range summaries {
		if err := writer.Write(c.csvRecordFromSummary(s)); err != nil {
			return err
		}
	}
	writer.Flush()
	err = writer.Error()
	if err == nil {
		log.Printf("wrote %d image error summaries to %s\n", len(summaries), resultsPath)
	}
	return err
}

// AddObservationResiduals is a noop; per-observation detail goes to the
// parquet reporter.
func (c *CsvReporter) AddObservationResiduals(_ []ObservationResidual) error {
	return nil
}

func (c *CsvReporter) Flush() error {
	// This reporter does no internal buffering, so Flush is a noop.
	return nil
}
