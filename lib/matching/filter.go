// Package matching computes which camera pairs are worth matching,
// distributes the pairwise matching work and filters the resulting
// correspondences for geodetic consistency. The descriptor matching
// itself is an external collaborator.
package matching

import (
	"fmt"
	"log"
	"math"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/stats"
	"github.com/geosfm/satba/lib/tracks"
)

// FilterInconsistentMatches drops pairwise matches whose two endpoints
// localize to planar positions further apart than a data-driven
// threshold: the elbow of the sorted distance distribution at the given
// percentile, plus a fixed margin in meters. planar[i][k] is the
// projected ground position of keypoint k in image i.
//
// An empty input is returned unchanged without computing a threshold.
func FilterInconsistentMatches(matches []tracks.PairwiseMatch, planar [][]geometry.Point2,
	percentile float64, margin float64) ([]tracks.PairwiseMatch, error) {

	if len(matches) == 0 {
		return matches, nil
	}

	distances := make([]float64, len(matches))
	for i, m := range matches {
		if m.ImI >= len(planar) || m.ImJ >= len(planar) {
			return nil, fmt.Errorf("match references image %d/%d but planar coordinates cover %d images",
				m.ImI, m.ImJ, len(planar))
		}
		if m.KpI >= len(planar[m.ImI]) || m.KpJ >= len(planar[m.ImJ]) {
			return nil, fmt.Errorf("match references a keypoint without planar coordinates")
		}
		pi, pj := planar[m.ImI][m.KpI], planar[m.ImJ][m.KpJ]
		distances[i] = math.Hypot(pi.X-pj.X, pi.Y-pj.Y)
	}

	elbow, err := stats.ElbowValue(distances, percentile)
	if err != nil {
		return nil, err
	}
	threshold := elbow + margin

	kept := make([]tracks.PairwiseMatch, 0, len(matches))
	for i, m := range matches {
		if distances[i] < threshold {
			kept = append(kept, m)
		}
	}
	removed := len(matches) - len(kept)
	percent := float64(removed) / float64(len(matches)) * 100.0
	log.Printf("planar consistency threshold set to %.2f m\n", threshold)
	log.Printf("removed %d pairwise matches (%.2f%%) with inconsistent planar coords (%d left)\n",
		removed, percent, len(kept))
	return kept, nil
}
