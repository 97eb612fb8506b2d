package ba

import (
	"fmt"
	"log"
	"math"

	"github.com/geosfm/satba/lib/tracks"
)

// ObservationErrors collapses the 2-component residual vector into one
// error magnitude per observation.
func ObservationErrors(residuals []float64) ([]float64, error) {
	if len(residuals)%2 != 0 {
		return nil, fmt.Errorf("residual vector has odd length %d", len(residuals))
	}
	errs := make([]float64, len(residuals)/2)
	for k := range errs {
		errs[k] = math.Hypot(residuals[2*k], residuals[2*k+1])
	}
	return errs, nil
}

// RemoveOutlierObs drops every observation whose reprojection error
// exceeds the threshold, then prunes the tracks left with fewer than
// two observations. It returns the pruned matrix, the new-to-old track
// mapping and the number of observations removed.
func RemoveOutlierObs(c *tracks.CorrespondenceMatrix, obsErrs []float64, p *Params,
	threshold float64) (*tracks.CorrespondenceMatrix, []int, int, error) {

	if len(obsErrs) != len(p.Pts2d) {
		return nil, nil, 0, fmt.Errorf("have %d observation errors but %d observations",
			len(obsErrs), len(p.Pts2d))
	}
	cleaned := c.Copy()
	removed := 0
	for k, e := range obsErrs {
		if e > threshold {
			cleaned.Remove(p.CamInd[k], p.TrackIds[p.PtsInd[k]])
			removed++
		}
	}
	degenerate := cleaned.DegenerateTracks()
	pruned, mapping, err := cleaned.DropTracks(degenerate)
	if err != nil {
		return nil, nil, 0, err
	}
	log.Printf("removed %d observations above %.2f px, pruned %d degenerate tracks (%d tracks left)\n",
		removed, threshold, len(degenerate), pruned.NTracks())
	return pruned, mapping, removed, nil
}
