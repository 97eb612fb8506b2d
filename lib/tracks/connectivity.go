package tracks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BuildConnectivity derives the camera connectivity matrix A from a
// correspondence matrix. A is symmetric with size equal to the camera
// count; A[i][j] is the number of tracks observed by both camera i and
// camera j. The diagonal is zero.
func BuildConnectivity(c *CorrespondenceMatrix) (*mat.SymDense, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot build connectivity from a nil correspondence matrix")
	}
	nCam := c.NCameras()
	a := mat.NewSymDense(max(nCam, 1), nil)
	if nCam == 0 {
		return a, nil
	}
	for i := 0; i < nCam; i++ {
		for j := i + 1; j < nCam; j++ {
			shared := 0
			for t := 0; t < c.NTracks(); t++ {
				if c.Has(i, t) && c.Has(j, t) {
					shared++
				}
			}
			a.SetSym(i, j, float64(shared))
		}
	}
	return a, nil
}

// ConnectivityDegree counts the cameras sharing at least one track with cam.
func ConnectivityDegree(a *mat.SymDense, cam int) int {
	n := a.SymmetricDim()
	degree := 0
	for j := 0; j < n; j++ {
		if j != cam && a.At(cam, j) > 0 {
			degree++
		}
	}
	return degree
}

// Neighbors returns the cameras sharing at least one track with cam.
func Neighbors(a *mat.SymDense, cam int) []int {
	n := a.SymmetricDim()
	ns := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if j != cam && a.At(cam, j) > 0 {
			ns = append(ns, j)
		}
	}
	return ns
}
