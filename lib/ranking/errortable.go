// Package ranking scores cameras and tracks by connectivity and
// reprojection cost and selects a compact, well-distributed subset of
// tracks for bundle adjustment.
package ranking

import (
	"fmt"
	"math"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/tracks"
)

// An ErrorTable mirrors the shape of a correspondence matrix but holds
// the reprojection error of each observation. Entries are missing where
// the correspondence matrix is missing and where the track could not be
// triangulated.
type ErrorTable struct {
	nCameras int
	nTracks  int
	errs     []float64
	present  []bool
}

func NewErrorTable(nCameras int, nTracks int) *ErrorTable {
	return &ErrorTable{
		nCameras: nCameras,
		nTracks:  nTracks,
		errs:     make([]float64, nCameras*nTracks),
		present:  make([]bool, nCameras*nTracks),
	}
}

func (e *ErrorTable) NCameras() int { return e.nCameras }
func (e *ErrorTable) NTracks() int  { return e.nTracks }

func (e *ErrorTable) Set(cam int, track int, err float64) {
	e.errs[cam*e.nTracks+track] = err
	e.present[cam*e.nTracks+track] = true
}

func (e *ErrorTable) At(cam int, track int) (float64, bool) {
	i := cam*e.nTracks + track
	return e.errs[i], e.present[i]
}

// TrackCost is the mean reprojection error of the track over all cameras
// observing it. ok is false when no observation of the track has a
// defined error.
func (e *ErrorTable) TrackCost(track int) (float64, bool) {
	sum, n := 0.0, 0
	for cam := 0; cam < e.nCameras; cam++ {
		if v, ok := e.At(cam, track); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// BuildErrorTable triangulates each track from the eligible pairs,
// projects the point back into every observing camera and records the
// residual magnitude per observation. Tracks that cannot be triangulated
// keep missing entries; they do not fail the pass. The flat residual
// vector (one entry per computed observation error) is returned as well.
func BuildErrorTable(c *tracks.CorrespondenceMatrix, ps []*geometry.ProjectionMatrix,
	pairs []geometry.CameraPair) (*ErrorTable, []float64, error) {

	if c.NCameras() != len(ps) {
		return nil, nil, fmt.Errorf("have %d cameras but %d projection matrices", c.NCameras(), len(ps))
	}
	pts, ok, err := geometry.TriangulateTracks(c, ps, pairs)
	if err != nil {
		return nil, nil, err
	}

	table := NewErrorTable(c.NCameras(), c.NTracks())
	residuals := make([]float64, 0, c.NObservations())
	for t := 0; t < c.NTracks(); t++ {
		if !ok[t] {
			continue
		}
		for cam := 0; cam < c.NCameras(); cam++ {
			obs, seen := c.At(cam, t)
			if !seen {
				continue
			}
			col, row := ps[cam].Project(pts[t])
			e := math.Hypot(col-obs.Col, row-obs.Row)
			table.Set(cam, t, e)
			residuals = append(residuals, e)
		}
	}
	return table, residuals, nil
}
