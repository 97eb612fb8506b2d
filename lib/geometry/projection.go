package geometry

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A ProjectionMatrix is a 3x4 linear (perspective) camera approximation
// plus the pixel dimensions of the image it projects into.
type ProjectionMatrix struct {
	m      *mat.Dense
	Height int
	Width  int
}

func NewProjectionMatrix(rows [3][4]float64, height int, width int) *ProjectionMatrix {
	data := make([]float64, 0, 12)
	for _, r := range rows {
		data = append(data, r[:]...)
	}
	return &ProjectionMatrix{m: mat.NewDense(3, 4, data), Height: height, Width: width}
}

func (p *ProjectionMatrix) At(i int, j int) float64 { return p.m.At(i, j) }

// Project maps a 3-D point to pixel coordinates via homogeneous division.
func (p *ProjectionMatrix) Project(pt Point3) (float64, float64) {
	x := mat.NewVecDense(4, []float64{pt.X, pt.Y, pt.Z, 1})
	var proj mat.VecDense
	proj.MulVec(p.m, x)
	w := proj.AtVec(2)
	return proj.AtVec(0) / w, proj.AtVec(1) / w
}

// OpticalCenter returns the camera center, the null space of P:
// C = -M^-1 * p4 with M the left 3x3 block and p4 the last column.
func (p *ProjectionMatrix) OpticalCenter() (Point3, error) {
	m := p.m.Slice(0, 3, 0, 3)
	p4 := mat.NewVecDense(3, []float64{-p.m.At(0, 3), -p.m.At(1, 3), -p.m.At(2, 3)})
	var c mat.VecDense
	if err := c.SolveVec(m, p4); err != nil {
		return Point3{}, fmt.Errorf("projection matrix is degenerate: %v", err)
	}
	return Point3{X: c.AtVec(0), Y: c.AtVec(1), Z: c.AtVec(2)}, nil
}

// Baseline is the distance between the optical centers of two cameras.
func Baseline(a *ProjectionMatrix, b *ProjectionMatrix) (float64, error) {
	ca, err := a.OpticalCenter()
	if err != nil {
		return 0, err
	}
	cb, err := b.OpticalCenter()
	if err != nil {
		return 0, err
	}
	dx, dy, dz := ca.X-cb.X, ca.Y-cb.Y, ca.Z-cb.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz), nil
}

type projectionJSON struct {
	P      [][]float64 `json:"P"`
	Height int         `json:"height"`
	Width  int         `json:"width"`
}

func (p *ProjectionMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]float64, 3)
	for i := 0; i < 3; i++ {
		rows[i] = []float64{p.m.At(i, 0), p.m.At(i, 1), p.m.At(i, 2), p.m.At(i, 3)}
	}
	return json.Marshal(projectionJSON{P: rows, Height: p.Height, Width: p.Width})
}

func (p *ProjectionMatrix) UnmarshalJSON(data []byte) error {
	var pj projectionJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if len(pj.P) != 3 {
		return fmt.Errorf("projection matrix needs 3 rows, got %d", len(pj.P))
	}
	var rows [3][4]float64
	for i, r := range pj.P {
		if len(r) != 4 {
			return fmt.Errorf("projection matrix row %d needs 4 entries, got %d", i, len(r))
		}
		copy(rows[i][:], r)
	}
	*p = *NewProjectionMatrix(rows, pj.Height, pj.Width)
	return nil
}
