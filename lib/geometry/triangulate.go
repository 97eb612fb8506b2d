package geometry

import (
	"fmt"

	"github.com/geosfm/satba/lib/tracks"
	"gonum.org/v1/gonum/mat"
)

// TriangulatePair recovers a 3-D point from its observations in two
// cameras with the direct linear transform: each observation contributes
// two rows x*p3 - p1 and y*p3 - p2, and the point is the right singular
// vector of the stacked system with the smallest singular value.
func TriangulatePair(pi *ProjectionMatrix, pj *ProjectionMatrix, oi Point2, oj Point2) (Point3, error) {
	a := mat.NewDense(4, 4, nil)
	fill := func(row int, p *ProjectionMatrix, o Point2) {
		for c := 0; c < 4; c++ {
			a.Set(row, c, o.X*p.At(2, c)-p.At(0, c))
			a.Set(row+1, c, o.Y*p.At(2, c)-p.At(1, c))
		}
	}
	fill(0, pi, oi)
	fill(2, pj, oj)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return Point3{}, fmt.Errorf("svd failed on triangulation system")
	}
	var v mat.Dense
	svd.VTo(&v)
	w := v.At(3, 3)
	if w == 0 {
		return Point3{}, fmt.Errorf("triangulated point is at infinity")
	}
	return Point3{X: v.At(0, 3) / w, Y: v.At(1, 3) / w, Z: v.At(2, 3) / w}, nil
}

// TriangulateTracks triangulates every track of c from its observations,
// restricted to the eligible camera pairs. The result per track is the
// mean of all pairwise triangulations; tracks with fewer than two
// observations in eligible pairs get ok=false instead of failing the
// whole pass.
func TriangulateTracks(c *tracks.CorrespondenceMatrix, ps []*ProjectionMatrix, pairs []CameraPair) ([]Point3, []bool, error) {
	if c.NCameras() != len(ps) {
		return nil, nil, fmt.Errorf("have %d cameras but %d projection matrices", c.NCameras(), len(ps))
	}
	eligible := make(map[CameraPair]bool, len(pairs))
	for _, p := range pairs {
		if p.I > p.J {
			p.I, p.J = p.J, p.I
		}
		eligible[p] = true
	}

	pts := make([]Point3, c.NTracks())
	ok := make([]bool, c.NTracks())
	for t := 0; t < c.NTracks(); t++ {
		var sum Point3
		n := 0
		for i := 0; i < c.NCameras(); i++ {
			oi, seen := c.At(i, t)
			if !seen {
				continue
			}
			for j := i + 1; j < c.NCameras(); j++ {
				oj, seen := c.At(j, t)
				if !seen || !eligible[CameraPair{I: i, J: j}] {
					continue
				}
				pt, err := TriangulatePair(ps[i], ps[j],
					Point2{X: oi.Col, Y: oi.Row}, Point2{X: oj.Col, Y: oj.Row})
				if err != nil {
					continue
				}
				sum.X += pt.X
				sum.Y += pt.Y
				sum.Z += pt.Z
				n++
			}
		}
		if n > 0 {
			pts[t] = Point3{X: sum.X / float64(n), Y: sum.Y / float64(n), Z: sum.Z / float64(n)}
			ok[t] = true
		}
	}
	return pts, ok, nil
}
