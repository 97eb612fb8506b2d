// Package ba holds the bundle adjustment parameter blocks, the residual
// function and sparsity pattern handed to the solver, and the pipeline
// that orchestrates the adjustment stages.
package ba

import (
	"fmt"
	"log"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/settings"
	"github.com/geosfm/satba/lib/tracks"
)

// Each camera contributes 9 parameters: axis-angle rotation (3),
// translation (3), focal length and two radial distortion coefficients.
const CameraParamCount = 9

// Params are the flattened solver inputs derived from the current
// correspondence matrix and the approximate projection matrices.
type Params struct {
	// One row of CameraParamCount values per camera.
	CamParams [][]float64

	// Initial 3-D estimate per retained track.
	Pts3d []geometry.Point3

	// Observation arrays: Pts2d[k] is the pixel location of point
	// PtsInd[k] as seen by camera CamInd[k].
	Pts2d  []geometry.Point2
	CamInd []int
	PtsInd []int

	// TrackIds maps a point index back to its track column in the
	// correspondence matrix.
	TrackIds []int

	// The first NFixed cameras were adjusted in a previous run and are
	// held constant.
	NFixed int

	OptCameras bool
	OptPoints  bool
}

// Setup triangulates the tracks of c and decomposes the projection
// matrices into initial nonlinear camera parameters. Tracks that cannot
// be triangulated from the eligible pairs are left out of the parameter
// blocks. The optimize choice is a configuration decision, not a branch
// on data; it is logged so runs are auditable.
func Setup(ps []*geometry.ProjectionMatrix, c *tracks.CorrespondenceMatrix,
	pairs []geometry.CameraPair, nFixed int, optimize string) (*Params, error) {

	if c.NCameras() != len(ps) {
		return nil, fmt.Errorf("have %d cameras but %d projection matrices", c.NCameras(), len(ps))
	}
	if nFixed < 0 || nFixed > len(ps) {
		return nil, fmt.Errorf("cannot fix %d of %d cameras", nFixed, len(ps))
	}

	p := &Params{
		CamParams:  make([][]float64, len(ps)),
		NFixed:     nFixed,
		OptCameras: optimize == settings.OPT_CAMERAS_AND_POINTS || optimize == settings.OPT_CAMERAS_ONLY,
		OptPoints:  optimize == settings.OPT_CAMERAS_AND_POINTS || optimize == settings.OPT_POINTS_ONLY,
	}
	if !p.OptCameras && !p.OptPoints {
		return nil, fmt.Errorf("unknown optimization choice %q", optimize)
	}

	for i, pm := range ps {
		k, r, t, err := geometry.DecomposePerspective(pm)
		if err != nil {
			return nil, fmt.Errorf("camera %d: %v", i, err)
		}
		rot := geometry.RotationToAxisAngle(r)
		focal := (k.At(0, 0) + k.At(1, 1)) / 2
		p.CamParams[i] = []float64{rot[0], rot[1], rot[2], t.X, t.Y, t.Z, focal, 0, 0}
	}

	pts, ok, err := geometry.TriangulateTracks(c, ps, pairs)
	if err != nil {
		return nil, err
	}
	for t := 0; t < c.NTracks(); t++ {
		if !ok[t] {
			continue
		}
		ptsIdx := len(p.Pts3d)
		p.Pts3d = append(p.Pts3d, pts[t])
		p.TrackIds = append(p.TrackIds, t)
		for _, cam := range c.ObservingCameras(t) {
			obs, _ := c.At(cam, t)
			p.CamInd = append(p.CamInd, cam)
			p.PtsInd = append(p.PtsInd, ptsIdx)
			p.Pts2d = append(p.Pts2d, geometry.Point2{X: obs.Col, Y: obs.Row})
		}
	}
	if len(p.Pts3d) == 0 {
		return nil, fmt.Errorf("no track could be triangulated, nothing to adjust")
	}

	switch {
	case p.OptCameras && p.OptPoints:
		log.Println("both camera parameters and 3-D points will be optimized")
	case p.OptCameras:
		log.Println("only the camera parameters will be optimized")
	default:
		log.Println("only the 3-D points will be optimized")
	}
	log.Printf("ba parameters defined: %d cameras (%d fixed), %d points, %d observations\n",
		len(p.CamParams), p.NFixed, len(p.Pts3d), len(p.Pts2d))
	return p, nil
}

// NOptCameras is the number of cameras whose parameters are free.
func (p *Params) NOptCameras() int {
	if !p.OptCameras {
		return 0
	}
	return len(p.CamParams) - p.NFixed
}

// NParams is the length of the optimization vector.
func (p *Params) NParams() int {
	n := p.NOptCameras() * CameraParamCount
	if p.OptPoints {
		n += 3 * len(p.Pts3d)
	}
	return n
}

// Pack flattens the free parameter blocks into the initial vector for
// the solver: optimized camera rows first, then point coordinates.
func (p *Params) Pack() []float64 {
	x := make([]float64, 0, p.NParams())
	if p.OptCameras {
		for _, row := range p.CamParams[p.NFixed:] {
			x = append(x, row...)
		}
	}
	if p.OptPoints {
		for _, pt := range p.Pts3d {
			x = append(x, pt.X, pt.Y, pt.Z)
		}
	}
	return x
}

// unpack views x as camera rows and points, falling back to the initial
// values for blocks that are not being optimized.
func (p *Params) unpack(x []float64) ([][]float64, []geometry.Point3) {
	cams := p.CamParams
	pts := p.Pts3d
	offset := 0
	if p.OptCameras {
		cams = make([][]float64, len(p.CamParams))
		copy(cams, p.CamParams[:p.NFixed])
		for i := p.NFixed; i < len(p.CamParams); i++ {
			cams[i] = x[offset : offset+CameraParamCount]
			offset += CameraParamCount
		}
	}
	if p.OptPoints {
		pts = make([]geometry.Point3, len(p.Pts3d))
		for i := range pts {
			pts[i] = geometry.Point3{X: x[offset], Y: x[offset+1], Z: x[offset+2]}
			offset += 3
		}
	}
	return cams, pts
}

// Recover returns the refined camera rows and 3-D points encoded in a
// solver output vector.
func (p *Params) Recover(x []float64) ([][]float64, []geometry.Point3, error) {
	if len(x) != p.NParams() {
		return nil, nil, fmt.Errorf("solver returned %d parameters, expected %d", len(x), p.NParams())
	}
	cams, pts := p.unpack(x)
	camsOut := make([][]float64, len(cams))
	for i, row := range cams {
		camsOut[i] = append([]float64(nil), row...)
	}
	ptsOut := append([]geometry.Point3(nil), pts...)
	return camsOut, ptsOut, nil
}

// RecoverProjections rebuilds a linear projection matrix per camera from
// the refined parameters. Fixed cameras keep their input matrix; the
// distortion coefficients have no linear equivalent and are dropped.
func (p *Params) RecoverProjections(x []float64, ps []*geometry.ProjectionMatrix) ([]*geometry.ProjectionMatrix, error) {
	cams, _, err := p.Recover(x)
	if err != nil {
		return nil, err
	}
	out := make([]*geometry.ProjectionMatrix, len(ps))
	for i := range ps {
		if i < p.NFixed || !p.OptCameras {
			out[i] = ps[i]
			continue
		}
		row := cams[i]
		rot := [3]float64{row[0], row[1], row[2]}
		f := row[6]
		var r [3][3]float64
		basis := []geometry.Point3{{X: 1}, {Y: 1}, {Z: 1}}
		for j, e := range basis {
			col := geometry.RotatePoint(e, rot)
			r[0][j], r[1][j], r[2][j] = col.X, col.Y, col.Z
		}
		rows := [3][4]float64{
			{f * r[0][0], f * r[0][1], f * r[0][2], f * row[3]},
			{f * r[1][0], f * r[1][1], f * r[1][2], f * row[4]},
			{r[2][0], r[2][1], r[2][2], row[5]},
		}
		out[i] = geometry.NewProjectionMatrix(rows, ps[i].Height, ps[i].Width)
	}
	return out, nil
}
