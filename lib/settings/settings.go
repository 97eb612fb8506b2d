// Package settings contains all the parameters for the bundle adjustment pipeline.
package settings

const (
	LOSS_SOFT_L1 = "soft_l1"
	LOSS_LINEAR  = "linear"

	OPT_CAMERAS_AND_POINTS = "cameras_and_points"
	OPT_CAMERAS_ONLY       = "cameras"
	OPT_POINTS_ONLY        = "points"

	ENGINE_INPROCESS = "inprocess"
	ENGINE_KAFKA     = "kafka"
)

type BaSettings struct {
	// Maximum number of tree-growth rounds for track selection.
	SelectionRounds int

	// When true, the correspondence matrix goes into bundle
	// adjustment without track selection.
	SkipTrackSelection bool

	// When true, the pipeline stops after the first optimization pass
	// instead of cleaning outlier observations and re-optimizing.
	SkipOutlierCleaning bool

	// Observations whose reprojection error exceeds
	// max(elbow, OutlierFloor) are dropped during outlier cleaning.
	// The floor is in pixel units.
	OutlierFloor float64

	// Percentile at which the elbow of a sorted residual curve is cut off.
	ElbowPercentile float64

	// Margin added to the elbow threshold when filtering pairwise
	// matches by planar coordinate distance, in meters.
	PlanarMargin float64

	// A camera pair is matched only when the intersection of the two
	// footprints covers at least this fraction of the first footprint.
	MinOverlapRatio float64

	// A camera pair is used for triangulation only when the distance
	// between the two optical centers exceeds this, in meters.
	MinBaseline float64

	// Robust loss applied by the solver: soft_l1 or linear.
	Loss string
	// Scale at which the robust loss starts to dampen residuals.
	FScale float64
	// Solver convergence tolerances.
	Ftol float64
	Xtol float64

	// Which parameter blocks the solver adjusts.
	Optimize string

	// The matching engine: inprocess or kafka.
	MatchEngine string
	KafkaURL    string

	ResultsDirectory string

	// Number of rows per row group in Parquet residual reports.
	// Bigger numbers mean more memory usage but better compression.
	MaxRowsPerRowGroup int64
}

func (s BaSettings) ComputeSettingsFields() BaSettings {
	if s.SelectionRounds == 0 {
		s.SelectionRounds = 30
	}
	if s.OutlierFloor == 0 {
		s.OutlierFloor = 2.0
	}
	if s.ElbowPercentile == 0 {
		s.ElbowPercentile = 95.0
	}
	if s.PlanarMargin == 0 {
		s.PlanarMargin = 10.0
	}
	if s.MinOverlapRatio == 0 {
		s.MinOverlapRatio = 0.1
	}
	if s.MinBaseline == 0 {
		s.MinBaseline = 150000.0
	}
	if s.Loss == "" {
		s.Loss = LOSS_SOFT_L1
	}
	if s.FScale == 0 {
		s.FScale = 0.5
	}
	if s.Ftol == 0 {
		s.Ftol = 1e-4
	}
	if s.Xtol == 0 {
		s.Xtol = 1e-10
	}
	if s.Optimize == "" {
		s.Optimize = OPT_CAMERAS_AND_POINTS
	}
	if s.MatchEngine == "" {
		s.MatchEngine = ENGINE_INPROCESS
	}
	if s.MaxRowsPerRowGroup == 0 {
		s.MaxRowsPerRowGroup = 100000
	}
	return s
}
