package ba

import (
	"github.com/geosfm/satba/lib/geometry"
)

// projectPoint applies one nonlinear camera row to a 3-D point: rotate,
// translate, perspective divide, then focal scaling with two radial
// distortion terms.
func projectPoint(cam []float64, pt geometry.Point3) (float64, float64) {
	rotated := geometry.RotatePoint(pt, [3]float64{cam[0], cam[1], cam[2]})
	px := rotated.X + cam[3]
	py := rotated.Y + cam[4]
	pz := rotated.Z + cam[5]
	x := px / pz
	y := py / pz
	r2 := x*x + y*y
	d := 1 + cam[7]*r2 + cam[8]*r2*r2
	return cam[6] * d * x, cam[6] * d * y
}

// Residuals evaluates the reprojection residual vector at x: two entries
// per observation, projected minus observed pixel coordinates. This is
// the function handed to the solver.
func (p *Params) Residuals(x []float64) []float64 {
	cams, pts := p.unpack(x)
	res := make([]float64, 2*len(p.Pts2d))
	for k, obs := range p.Pts2d {
		col, row := projectPoint(cams[p.CamInd[k]], pts[p.PtsInd[k]])
		res[2*k] = col - obs.X
		res[2*k+1] = row - obs.Y
	}
	return res
}
