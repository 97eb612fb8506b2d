package reporter

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/geosfm/satba/lib/settings"
	"github.com/parquet-go/parquet-go"
)

type ParquetReporter struct {
	filenameBase string

	// One file per adjustment pass.
	passWriters        map[int]*parquet.GenericWriter[ObservationResidual]
	maxRowsPerRowGroup int64
}

func NewParquetReporter(filenameBase string, maxRows int64) *ParquetReporter {
	return &ParquetReporter{
		filenameBase:       filenameBase,
		passWriters:        make(map[int]*parquet.GenericWriter[ObservationResidual]),
		maxRowsPerRowGroup: maxRows,
	}
}

func (r *ParquetReporter) Initialize(config settings.BaSettings, imageNames []string) {
	if r.maxRowsPerRowGroup == 0 {
		r.maxRowsPerRowGroup = config.MaxRowsPerRowGroup
	}
}

func (r *ParquetReporter) writerForPass(pass int) (*parquet.GenericWriter[ObservationResidual], error) {
	writer, exists := r.passWriters[pass]
	if exists && writer != nil {
		return writer, nil
	}
	filename := fmt.Sprintf("residuals_pass_%d.pq", pass)
	path := filepath.Join(r.filenameBase, filename)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open residuals parquet file: %v", err)
	}
	writer = parquet.NewGenericWriter[ObservationResidual](file,
		parquet.MaxRowsPerRowGroup(r.maxRowsPerRowGroup))
	r.passWriters[pass] = writer
	return writer, nil
}

// AddImageSummaries is a noop; summaries go to the csv reporter.
func (r *ParquetReporter) AddImageSummaries(_ []ImageErrorSummary) error {
	return nil
}

func (r *ParquetReporter) AddObservationResiduals(residuals []ObservationResidual) error {
	if len(residuals) == 0 {
		return nil
	}
	// All rows of one call belong to the same pass.
	writer, err := r.writerForPass(residuals[0].Pass)
	if err != nil {
		return err
	}
	n, err := writer.Write(residuals)
	if err != nil {
		return err
	}
	log.Printf("recorded %d observation residuals for pass %d\n", n, residuals[0].Pass)
	return nil
}

func (r *ParquetReporter) Flush() error {
	for pass, writer := range r.passWriters {
		if writer == nil {
			continue
		}
		if err := writer.Flush(); err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
		delete(r.passWriters, pass)
	}
	return nil
}
