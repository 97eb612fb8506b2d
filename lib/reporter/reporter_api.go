// Package reporter persists reprojection error reports for adjusted
// scenes. The csv reporter writes compact per-image summaries, the
// parquet reporter the full per-observation residuals.
package reporter

import (
	"github.com/geosfm/satba/lib/settings"
)

// An ImageErrorSummary aggregates the reprojection errors of one image
// for one adjustment pass.
type ImageErrorSummary struct {
	Pass       int
	Image      int
	Name       string
	NObs       int
	MeanBefore float64
	MeanAfter  float64
	MaxAfter   float64
}

// An ObservationResidual is one observation's reprojection error before
// and after an adjustment pass. The parquet tags define the on-disk
// schema.
type ObservationResidual struct {
	Pass      int     `parquet:"pass"`
	Camera    int     `parquet:"camera"`
	Track     int     `parquet:"track"`
	Col       float64 `parquet:"col"`
	Row       float64 `parquet:"row"`
	ErrBefore float64 `parquet:"err_before"`
	ErrAfter  float64 `parquet:"err_after"`
}

type Reporter interface {
	Initialize(config settings.BaSettings, imageNames []string)

	AddImageSummaries(summaries []ImageErrorSummary) error

	AddObservationResiduals(residuals []ObservationResidual) error

	Flush() error
}
