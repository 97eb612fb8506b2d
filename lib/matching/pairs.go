package matching

import (
	"log"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/settings"
)

// A MatchCandidate is a camera pair worth running the matcher on,
// together with the footprint intersection the matcher should restrict
// keypoints to.
type MatchCandidate struct {
	I            int
	J            int
	Baseline     float64
	Intersection geometry.Polygon
}

// EligiblePairs filters the initial camera pairs: a pair is matched when
// the footprint overlap covers at least MinOverlapRatio of the first
// footprint, and additionally used for triangulation when the baseline
// between the optical centers exceeds MinBaseline. With noFilter both
// gates are skipped.
func EligiblePairs(initPairs []geometry.CameraPair, footprints []geometry.Footprint,
	ps []*geometry.ProjectionMatrix, cfg settings.BaSettings,
	noFilter bool) ([]MatchCandidate, []geometry.CameraPair, error) {

	toMatch := make([]MatchCandidate, 0, len(initPairs))
	toTriangulate := make([]geometry.CameraPair, 0, len(initPairs))
	for _, pair := range initPairs {
		i, j := pair.I, pair.J
		intersection := footprints[i].Poly.Intersect(footprints[j].Poly)
		baseline, err := geometry.Baseline(ps[i], ps[j])
		if err != nil {
			return nil, nil, err
		}

		overlapOk := noFilter
		baselineOk := noFilter
		if !noFilter {
			area := footprints[i].Poly.Area()
			overlapOk = area > 0 && intersection.Area()/area >= cfg.MinOverlapRatio
			baselineOk = baseline > cfg.MinBaseline
		}

		if overlapOk {
			toMatch = append(toMatch, MatchCandidate{I: i, J: j, Baseline: baseline, Intersection: intersection})
			if baselineOk {
				toTriangulate = append(toTriangulate, geometry.CameraPair{I: i, J: j})
			}
		}
	}
	nCam := len(footprints)
	log.Printf("%d / %d pairs to be matched, %d eligible for triangulation\n",
		len(toMatch), nCam*(nCam-1)/2, len(toTriangulate))
	return toMatch, toTriangulate, nil
}

// AllPairs enumerates every unordered camera pair.
func AllPairs(nCameras int) []geometry.CameraPair {
	pairs := make([]geometry.CameraPair, 0, nCameras*(nCameras-1)/2)
	for i := 0; i < nCameras; i++ {
		for j := i + 1; j < nCameras; j++ {
			pairs = append(pairs, geometry.CameraPair{I: i, J: j})
		}
	}
	return pairs
}

// A PlanarConverter maps geodetic coordinates to projected planar
// coordinates (for satellite scenes, UTM easting/northing). The
// conversion itself is an external collaborator.
type PlanarConverter func(lon float64, lat float64) (x float64, y float64)

// KeypointsToPlanar localizes each keypoint at the footprint elevation
// and returns the projected planar position per keypoint. The offsets
// shift crop-local pixel coordinates into full-scene coordinates before
// localization.
func KeypointsToPlanar(keypoints [][]geometry.Point2, models []geometry.CameraModel,
	footprints []geometry.Footprint, offsets []geometry.Offset, toPlanar PlanarConverter) [][]geometry.Point2 {

	planar := make([][]geometry.Point2, len(keypoints))
	for i, kps := range keypoints {
		planar[i] = make([]geometry.Point2, len(kps))
		for k, kp := range kps {
			lon, lat := models[i].Localization(kp.X+offsets[i].Col0, kp.Y+offsets[i].Row0,
				footprints[i].Elevation)
			x, y := toPlanar(lon, lat)
			planar[i][k] = geometry.Point2{X: x, Y: y}
		}
	}
	return planar
}
