// Package explorer serves the residual reports of finished adjustment
// runs over a small REST API, so error distributions can be inspected
// without re-running the pipeline.
package explorer

// A Pass summarizes one adjustment pass found in the results directory.
type Pass struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`

	NObservations int     `json:"n_observations"`
	MeanErrBefore float64 `json:"mean_err_before"`
	MeanErrAfter  float64 `json:"mean_err_after"`
	MaxErrAfter   float64 `json:"max_err_after"`
}

// ImageErrors aggregates the residuals of one image in one pass.
type ImageErrors struct {
	Image         int     `json:"image"`
	NObservations int     `json:"n_observations"`
	MeanErrBefore float64 `json:"mean_err_before"`
	MeanErrAfter  float64 `json:"mean_err_after"`
	MaxErrAfter   float64 `json:"max_err_after"`
}

// TrackErrors aggregates the residuals of one track in one pass.
type TrackErrors struct {
	Track         int     `json:"track"`
	NObservations int     `json:"n_observations"`
	MeanErrAfter  float64 `json:"mean_err_after"`
	MaxErrAfter   float64 `json:"max_err_after"`
}
