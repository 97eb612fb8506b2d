package ranking

import (
	"math"

	"github.com/geosfm/satba/lib/stats"
	"github.com/geosfm/satba/lib/tracks"
	"gonum.org/v1/gonum/mat"
)

// CameraWeights scores each camera by its connectivity degree and the
// reprojection cost of the tracks it observes:
//
//	w_i = nC_i + exp(-(mean + 3*std))
//
// where nC_i is the number of cameras sharing at least one track with
// camera i, and mean/std are taken over the per-track average
// reprojection errors of the tracks seen by camera i. Cameras with zero
// connectivity get weight 0. The optional connectivity matrix avoids
// recomputation when the caller already has one for the same snapshot
// of c.
func CameraWeights(c *tracks.CorrespondenceMatrix, errTable *ErrorTable,
	connectivity *mat.SymDense) ([]float64, error) {

	a := connectivity
	if a == nil {
		var err error
		a, err = tracks.BuildConnectivity(c)
		if err != nil {
			return nil, err
		}
	}

	weights := make([]float64, c.NCameras())
	for i := 0; i < c.NCameras(); i++ {
		degree := tracks.ConnectivityDegree(a, i)
		if degree == 0 {
			weights[i] = 0
			continue
		}
		costs := make([]float64, 0, 16)
		for _, t := range c.TracksSeenBy(i) {
			if cost, ok := errTable.TrackCost(t); ok {
				costs = append(costs, cost)
			}
		}
		// Tracks without a current error estimate contribute nothing;
		// a camera with only such tracks is scored on connectivity alone.
		mean, std := stats.MeanStd(costs)
		weights[i] = float64(degree) + math.Exp(-(mean + 3*std))
	}
	return weights, nil
}

// ArgmaxWeight returns the index of the heaviest camera; ties resolve to
// the lowest camera index.
func ArgmaxWeight(weights []float64) int {
	best := 0
	for i, w := range weights {
		if w > weights[best] {
			best = i
		}
	}
	return best
}
