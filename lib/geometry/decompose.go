package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DecomposePerspective splits P = K [R | t] into the intrinsic matrix K
// (upper triangular, normalized so K[2][2] = 1), the rotation R and the
// translation t, using the flipped-QR form of the RQ decomposition.
// The decomposition seeds the nonlinear camera parameters; the solver
// refines them afterwards, so sign conventions only need to be
// self-consistent.
func DecomposePerspective(p *ProjectionMatrix) (k *mat.Dense, r *mat.Dense, t Point3, err error) {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, p.At(i, j))
		}
	}

	// RQ(M) via QR of the row-reversed transpose: with E the row
	// reversal, (E M)^T = Q S gives M = (E S^T E)(E Q^T).
	flipped := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			flipped.Set(i, j, m.At(2-i, j))
		}
	}
	var qr mat.QR
	qr.Factorize(flipped.T())
	var q, s mat.Dense
	qr.QTo(&q)
	qr.RTo(&s)

	k = mat.NewDense(3, 3, nil)
	r = mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			k.Set(i, j, s.At(2-j, 2-i))
			r.Set(i, j, q.At(j, 2-i))
		}
	}

	// Make the intrinsic diagonal positive.
	for i := 0; i < 3; i++ {
		if k.At(i, i) < 0 {
			for row := 0; row < 3; row++ {
				k.Set(row, i, -k.At(row, i))
				r.Set(i, row, -r.At(i, row))
			}
		}
	}
	// A projection matrix is defined up to sign, so force a proper rotation.
	if mat.Det(r) < 0 {
		k.Scale(-1, k)
		r.Scale(-1, r)
	}
	scale := k.At(2, 2)
	if scale == 0 {
		return nil, nil, Point3{}, fmt.Errorf("projection matrix has a zero intrinsic scale")
	}
	k.Scale(1/scale, k)

	p4 := mat.NewVecDense(3, []float64{p.At(0, 3) / scale, p.At(1, 3) / scale, p.At(2, 3) / scale})
	var tv mat.VecDense
	if err := tv.SolveVec(k, p4); err != nil {
		return nil, nil, Point3{}, fmt.Errorf("intrinsic matrix is singular: %v", err)
	}
	return k, r, Point3{X: tv.AtVec(0), Y: tv.AtVec(1), Z: tv.AtVec(2)}, nil
}

// RotationToAxisAngle converts a rotation matrix to its axis-angle
// vector (Rodrigues vector).
func RotationToAxisAngle(r *mat.Dense) [3]float64 {
	trace := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	cos := (trace - 1) / 2
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	angle := math.Acos(cos)

	if angle < 1e-12 {
		return [3]float64{}
	}
	if math.Pi-angle < 1e-6 {
		// Near 180 degrees the skew part vanishes; recover the axis
		// from the symmetric part R + I.
		axis := [3]float64{
			math.Sqrt(math.Max(0, (r.At(0, 0)+1)/2)),
			math.Sqrt(math.Max(0, (r.At(1, 1)+1)/2)),
			math.Sqrt(math.Max(0, (r.At(2, 2)+1)/2)),
		}
		if r.At(0, 1) < 0 {
			axis[1] = -axis[1]
		}
		if r.At(0, 2) < 0 {
			axis[2] = -axis[2]
		}
		return [3]float64{axis[0] * angle, axis[1] * angle, axis[2] * angle}
	}
	f := angle / (2 * math.Sin(angle))
	return [3]float64{
		f * (r.At(2, 1) - r.At(1, 2)),
		f * (r.At(0, 2) - r.At(2, 0)),
		f * (r.At(1, 0) - r.At(0, 1)),
	}
}

// RotatePoint applies the axis-angle vector rot to pt with the Rodrigues
// rotation formula.
func RotatePoint(pt Point3, rot [3]float64) Point3 {
	theta := math.Sqrt(rot[0]*rot[0] + rot[1]*rot[1] + rot[2]*rot[2])
	if theta < 1e-15 {
		return pt
	}
	kx, ky, kz := rot[0]/theta, rot[1]/theta, rot[2]/theta
	cos, sin := math.Cos(theta), math.Sin(theta)
	dot := kx*pt.X + ky*pt.Y + kz*pt.Z
	return Point3{
		X: pt.X*cos + (ky*pt.Z-kz*pt.Y)*sin + kx*dot*(1-cos),
		Y: pt.Y*cos + (kz*pt.X-kx*pt.Z)*sin + ky*dot*(1-cos),
		Z: pt.Z*cos + (kx*pt.Y-ky*pt.X)*sin + kz*dot*(1-cos),
	}
}
