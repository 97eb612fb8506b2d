package ba

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tracksBuilt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satba_tracks_built",
			Help: "Number of feature tracks in the correspondence matrix.",
		},
	)
	tracksSelected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satba_tracks_selected",
			Help: "Number of feature tracks retained by track selection.",
		},
	)
	observationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "satba_outlier_observations_dropped_total",
			Help: "Total number of observations removed by outlier cleaning.",
		},
	)
	meanReprojectionError = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "satba_mean_reprojection_error_pixels",
			Help: "Mean reprojection error over all observations.",
		},
		[]string{"stage"},
	)
	solverIterations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satba_solver_iterations",
			Help: "Iterations used by the last solver invocation.",
		},
	)
	pipelineState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "satba_pipeline_state",
			Help: "Current pipeline state (0=initial through 5=saved).",
		},
	)
)

func init() {
	prometheus.MustRegister(tracksBuilt)
	prometheus.MustRegister(tracksSelected)
	prometheus.MustRegister(observationsDropped)
	prometheus.MustRegister(meanReprojectionError)
	prometheus.MustRegister(solverIterations)
	prometheus.MustRegister(pipelineState)
}
