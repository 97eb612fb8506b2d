package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func rotationFromAxisAngle(rot [3]float64) *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	basis := []Point3{{X: 1}, {Y: 1}, {Z: 1}}
	for j, e := range basis {
		col := RotatePoint(e, rot)
		r.Set(0, j, col.X)
		r.Set(1, j, col.Y)
		r.Set(2, j, col.Z)
	}
	return r
}

func TestAxisAngleRoundtrip(t *testing.T) {
	cases := [][3]float64{
		{0.1, -0.2, 0.3},
		{0, 0, 0},
		{1.2, 0, 0},
		{0, 0, -2.5},
	}
	for _, want := range cases {
		r := rotationFromAxisAngle(want)
		got := RotationToAxisAngle(r)
		for i := 0; i < 3; i++ {
			if math.Abs(got[i]-want[i]) > 1e-9 {
				t.Errorf("axis-angle roundtrip of %v gave %v", want, got)
				break
			}
		}
	}
}

func TestRotatePointPreservesNorm(t *testing.T) {
	pt := Point3{X: 1, Y: 2, Z: 3}
	rot := [3]float64{0.4, -1.1, 0.7}
	out := RotatePoint(pt, rot)
	normIn := math.Sqrt(pt.X*pt.X + pt.Y*pt.Y + pt.Z*pt.Z)
	normOut := math.Sqrt(out.X*out.X + out.Y*out.Y + out.Z*out.Z)
	if math.Abs(normIn-normOut) > 1e-9 {
		t.Errorf("rotation changed the norm from %f to %f", normIn, normOut)
	}
}

func TestDecomposePerspective(t *testing.T) {
	// Compose P = K [R | t] from known factors and decompose it again.
	f := 1200.0
	k := mat.NewDense(3, 3, []float64{
		f, 0, 500,
		0, f, 400,
		0, 0, 1,
	})
	rot := [3]float64{0.2, -0.1, 0.15}
	r := rotationFromAxisAngle(rot)
	tvec := []float64{3, -2, 10}

	rt := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rt.Set(i, j, r.At(i, j))
		}
		rt.Set(i, 3, tvec[i])
	}
	var pm mat.Dense
	pm.Mul(k, rt)
	var rows [3][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			rows[i][j] = pm.At(i, j)
		}
	}
	p := NewProjectionMatrix(rows, 800, 1000)

	kGot, rGot, tGot, err := DecomposePerspective(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(kGot.At(i, j)-k.At(i, j)) > 1e-6 {
				t.Errorf("K mismatch at (%d, %d): got %f want %f", i, j, kGot.At(i, j), k.At(i, j))
			}
			if math.Abs(rGot.At(i, j)-r.At(i, j)) > 1e-6 {
				t.Errorf("R mismatch at (%d, %d): got %f want %f", i, j, rGot.At(i, j), r.At(i, j))
			}
		}
	}
	want := Point3{X: tvec[0], Y: tvec[1], Z: tvec[2]}
	if math.Abs(tGot.X-want.X) > 1e-6 || math.Abs(tGot.Y-want.Y) > 1e-6 || math.Abs(tGot.Z-want.Z) > 1e-6 {
		t.Errorf("t mismatch: got %v want %v", tGot, want)
	}
}

func TestDecomposePerspectiveScaledInput(t *testing.T) {
	// A projection matrix is defined up to scale; a scaled copy must
	// decompose to the same normalized factors.
	p := simpleCamera(Point3{X: 2, Y: 1, Z: -5})
	var rows [3][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			rows[i][j] = -7 * p.At(i, j)
		}
	}
	scaled := NewProjectionMatrix(rows, p.Height, p.Width)
	kGot, rGot, _, err := DecomposePerspective(scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(kGot.At(2, 2)-1) > 1e-9 {
		t.Errorf("K should be normalized, K[2][2] = %f", kGot.At(2, 2))
	}
	if math.Abs(mat.Det(rGot)-1) > 1e-9 {
		t.Errorf("R should be a proper rotation, det = %f", mat.Det(rGot))
	}
}
