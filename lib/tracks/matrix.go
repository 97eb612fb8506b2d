// Package tracks holds the sparse correspondence matrix that maps
// (camera, track) pairs to observed pixel coordinates, and the camera
// connectivity graph derived from it.
package tracks

import (
	"fmt"
)

// Observation is one 2-D pixel measurement of a track in a camera.
type Observation struct {
	Col float64
	Row float64
}

// A CorrespondenceMatrix is conceptually a table with two rows per camera
// (column coordinate, row coordinate) and one column per track. An absent
// observation is recorded in an explicit presence mask rather than with a
// NaN sentinel, so "is this observation present" is a first-class query.
type CorrespondenceMatrix struct {
	nCameras int
	nTracks  int

	// Row-pair layout: the observation of track t in camera c lives at
	// data[2*(c*nTracks+t)] (col) and data[2*(c*nTracks+t)+1] (row).
	data    []float64
	present []bool
}

func NewCorrespondenceMatrix(nCameras int, nTracks int) *CorrespondenceMatrix {
	return &CorrespondenceMatrix{
		nCameras: nCameras,
		nTracks:  nTracks,
		data:     make([]float64, 2*nCameras*nTracks),
		present:  make([]bool, nCameras*nTracks),
	}
}

// NewFromRows builds a correspondence matrix from the classic row-pair
// representation (2 rows per camera) with a parallel presence mask.
// This is the entry point for data that arrives in matrix form; it
// enforces the structural preconditions the rest of the package relies on.
func NewFromRows(rows [][]float64, present [][]bool) (*CorrespondenceMatrix, error) {
	if len(rows)%2 != 0 {
		return nil, fmt.Errorf("correspondence matrix needs an even row count, got %d", len(rows))
	}
	if len(present) != len(rows)/2 {
		return nil, fmt.Errorf("presence mask has %d rows, expected %d", len(present), len(rows)/2)
	}
	nCameras := len(rows) / 2
	nTracks := 0
	if nCameras > 0 {
		nTracks = len(rows[0])
	}
	c := NewCorrespondenceMatrix(nCameras, nTracks)
	for cam := 0; cam < nCameras; cam++ {
		if len(rows[2*cam]) != nTracks || len(rows[2*cam+1]) != nTracks || len(present[cam]) != nTracks {
			return nil, fmt.Errorf("camera %d has mismatched track counts", cam)
		}
		for t := 0; t < nTracks; t++ {
			if present[cam][t] {
				c.Set(cam, t, Observation{Col: rows[2*cam][t], Row: rows[2*cam+1][t]})
			}
		}
	}
	return c, nil
}

func (c *CorrespondenceMatrix) NCameras() int { return c.nCameras }
func (c *CorrespondenceMatrix) NTracks() int  { return c.nTracks }

func (c *CorrespondenceMatrix) index(cam int, track int) int {
	return cam*c.nTracks + track
}

func (c *CorrespondenceMatrix) Set(cam int, track int, obs Observation) {
	i := c.index(cam, track)
	c.data[2*i] = obs.Col
	c.data[2*i+1] = obs.Row
	c.present[i] = true
}

// At returns the observation of track in cam and whether it is present.
func (c *CorrespondenceMatrix) At(cam int, track int) (Observation, bool) {
	i := c.index(cam, track)
	if !c.present[i] {
		return Observation{}, false
	}
	return Observation{Col: c.data[2*i], Row: c.data[2*i+1]}, true
}

func (c *CorrespondenceMatrix) Has(cam int, track int) bool {
	return c.present[c.index(cam, track)]
}

// Remove clears a single observation.
func (c *CorrespondenceMatrix) Remove(cam int, track int) {
	c.present[c.index(cam, track)] = false
}

// MaskTracks clears every observation of the given tracks. The columns
// stay in place so track indices remain stable; use DropTracks to shrink
// the matrix.
func (c *CorrespondenceMatrix) MaskTracks(trackIDs []int) {
	for _, t := range trackIDs {
		for cam := 0; cam < c.nCameras; cam++ {
			c.present[c.index(cam, t)] = false
		}
	}
}

// TrackLength is the number of cameras observing the track.
func (c *CorrespondenceMatrix) TrackLength(track int) int {
	n := 0
	for cam := 0; cam < c.nCameras; cam++ {
		if c.present[c.index(cam, track)] {
			n++
		}
	}
	return n
}

// ObservingCameras returns the cameras that observe the track, ascending.
func (c *CorrespondenceMatrix) ObservingCameras(track int) []int {
	cams := make([]int, 0, 4)
	for cam := 0; cam < c.nCameras; cam++ {
		if c.present[c.index(cam, track)] {
			cams = append(cams, cam)
		}
	}
	return cams
}

// TracksSeenBy returns the tracks observed by cam, ascending.
func (c *CorrespondenceMatrix) TracksSeenBy(cam int) []int {
	ts := make([]int, 0, c.nTracks/4+1)
	for t := 0; t < c.nTracks; t++ {
		if c.present[c.index(cam, t)] {
			ts = append(ts, t)
		}
	}
	return ts
}

// NObservations counts the present observations.
func (c *CorrespondenceMatrix) NObservations() int {
	n := 0
	for _, p := range c.present {
		if p {
			n++
		}
	}
	return n
}

func (c *CorrespondenceMatrix) Copy() *CorrespondenceMatrix {
	cp := NewCorrespondenceMatrix(c.nCameras, c.nTracks)
	copy(cp.data, c.data)
	copy(cp.present, c.present)
	return cp
}

// DegenerateTracks returns the tracks with fewer than two observations.
// Those cannot be triangulated and are candidates for removal.
func (c *CorrespondenceMatrix) DegenerateTracks() []int {
	ids := make([]int, 0)
	for t := 0; t < c.nTracks; t++ {
		if c.TrackLength(t) < 2 {
			ids = append(ids, t)
		}
	}
	return ids
}

// KeepTracks returns a new matrix containing only the given track columns,
// in the given order, together with the mapping from new to old indices.
func (c *CorrespondenceMatrix) KeepTracks(trackIDs []int) (*CorrespondenceMatrix, []int, error) {
	for _, t := range trackIDs {
		if t < 0 || t >= c.nTracks {
			return nil, nil, fmt.Errorf("track index %d out of range (have %d tracks)", t, c.nTracks)
		}
	}
	kept := NewCorrespondenceMatrix(c.nCameras, len(trackIDs))
	mapping := make([]int, len(trackIDs))
	for newT, oldT := range trackIDs {
		mapping[newT] = oldT
		for cam := 0; cam < c.nCameras; cam++ {
			if obs, ok := c.At(cam, oldT); ok {
				kept.Set(cam, newT, obs)
			}
		}
	}
	return kept, mapping, nil
}

// DropTracks returns a new matrix without the given track columns plus the
// mapping from new to old indices.
func (c *CorrespondenceMatrix) DropTracks(trackIDs []int) (*CorrespondenceMatrix, []int, error) {
	drop := make([]bool, c.nTracks)
	for _, t := range trackIDs {
		if t < 0 || t >= c.nTracks {
			return nil, nil, fmt.Errorf("track index %d out of range (have %d tracks)", t, c.nTracks)
		}
		drop[t] = true
	}
	keep := make([]int, 0, c.nTracks-len(trackIDs))
	for t := 0; t < c.nTracks; t++ {
		if !drop[t] {
			keep = append(keep, t)
		}
	}
	return c.KeepTracks(keep)
}

// A KeypointIndex remembers, per (camera, track), the index of the raw
// keypoint the observation came from, so selected tracks can be mapped
// back to the original pairwise matches. -1 means no keypoint.
type KeypointIndex struct {
	nCameras int
	nTracks  int
	kp       []int
}

func NewKeypointIndex(nCameras int, nTracks int) *KeypointIndex {
	kp := make([]int, nCameras*nTracks)
	for i := range kp {
		kp[i] = -1
	}
	return &KeypointIndex{nCameras: nCameras, nTracks: nTracks, kp: kp}
}

func (k *KeypointIndex) Set(cam int, track int, keypoint int) {
	k.kp[cam*k.nTracks+track] = keypoint
}

func (k *KeypointIndex) At(cam int, track int) (int, bool) {
	v := k.kp[cam*k.nTracks+track]
	return v, v >= 0
}
