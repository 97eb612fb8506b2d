package tracks

import (
	"testing"
)

// threeCameraMatrix builds the 3-camera, 4-track scenario: track 0 is
// seen by all cameras, tracks 1-3 by exactly two cameras each, always
// including camera 0.
func threeCameraMatrix() *CorrespondenceMatrix {
	c := NewCorrespondenceMatrix(3, 4)
	for cam := 0; cam < 3; cam++ {
		c.Set(cam, 0, Observation{Col: float64(10 * cam), Row: float64(10*cam + 1)})
	}
	c.Set(0, 1, Observation{Col: 1, Row: 2})
	c.Set(1, 1, Observation{Col: 3, Row: 4})
	c.Set(0, 2, Observation{Col: 5, Row: 6})
	c.Set(2, 2, Observation{Col: 7, Row: 8})
	c.Set(0, 3, Observation{Col: 9, Row: 10})
	c.Set(1, 3, Observation{Col: 11, Row: 12})
	return c
}

func TestNewFromRowsRejectsOddRowCount(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	present := [][]bool{{true, true}}
	if _, err := NewFromRows(rows, present); err == nil {
		t.Errorf("expected an error for an odd row count")
	}
}

func TestNewFromRowsRejectsMismatchedMask(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	present := [][]bool{{true, true}, {true, true}}
	if _, err := NewFromRows(rows, present); err == nil {
		t.Errorf("expected an error when the mask has the wrong row count")
	}
}

func TestNewFromRowsRoundtrip(t *testing.T) {
	rows := [][]float64{
		{1, 0, 5},
		{2, 0, 6},
		{3, 7, 0},
		{4, 8, 0},
	}
	present := [][]bool{
		{true, false, true},
		{true, true, false},
	}
	c, err := NewFromRows(rows, present)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.NCameras() != 2 || c.NTracks() != 3 {
		t.Errorf("expected a 2x3 matrix, got %dx%d", c.NCameras(), c.NTracks())
	}
	obs, ok := c.At(0, 2)
	if !ok || obs.Col != 5 || obs.Row != 6 {
		t.Errorf("wrong observation at (0, 2): %v present=%v", obs, ok)
	}
	if c.Has(0, 1) {
		t.Errorf("observation (0, 1) should be absent")
	}
	if c.NObservations() != 4 {
		t.Errorf("expected 4 observations, got %d", c.NObservations())
	}
}

func TestTrackLengthAndObservers(t *testing.T) {
	c := threeCameraMatrix()
	if got := c.TrackLength(0); got != 3 {
		t.Errorf("track 0 should have length 3, got %d", got)
	}
	for track := 1; track < 4; track++ {
		if got := c.TrackLength(track); got != 2 {
			t.Errorf("track %d should have length 2, got %d", track, got)
		}
	}
	obs := c.ObservingCameras(2)
	if len(obs) != 2 || obs[0] != 0 || obs[1] != 2 {
		t.Errorf("track 2 should be seen by cameras 0 and 2, got %v", obs)
	}
	seen := c.TracksSeenBy(1)
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 3 {
		t.Errorf("camera 1 should see tracks 0, 1, 3, got %v", seen)
	}
}

func TestMaskTracksKeepsIndicesStable(t *testing.T) {
	c := threeCameraMatrix()
	c.MaskTracks([]int{0, 2})
	if c.NTracks() != 4 {
		t.Errorf("masking should not shrink the matrix")
	}
	if c.TrackLength(0) != 0 || c.TrackLength(2) != 0 {
		t.Errorf("masked tracks should have no observations left")
	}
	if c.TrackLength(1) != 2 {
		t.Errorf("unmasked track 1 should be untouched")
	}
}

func TestKeepTracksMapping(t *testing.T) {
	c := threeCameraMatrix()
	kept, mapping, err := c.KeepTracks([]int{3, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kept.NTracks() != 2 {
		t.Errorf("expected 2 tracks, got %d", kept.NTracks())
	}
	if mapping[0] != 3 || mapping[1] != 1 {
		t.Errorf("wrong mapping: %v", mapping)
	}
	obs, ok := kept.At(1, 0)
	if !ok || obs.Col != 11 {
		t.Errorf("track 3 observation should move to column 0, got %v present=%v", obs, ok)
	}
	if _, _, err := c.KeepTracks([]int{7}); err == nil {
		t.Errorf("expected an error for an out of range track id")
	}
}

func TestDegenerateTracks(t *testing.T) {
	c := threeCameraMatrix()
	c.Remove(0, 1)
	c.Remove(1, 1)
	ids := c.DegenerateTracks()
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("expected track 1 to be degenerate, got %v", ids)
	}
	pruned, mapping, err := c.DropTracks(ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pruned.NTracks() != 3 {
		t.Errorf("expected 3 tracks after pruning, got %d", pruned.NTracks())
	}
	if mapping[0] != 0 || mapping[1] != 2 || mapping[2] != 3 {
		t.Errorf("wrong mapping after drop: %v", mapping)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	c := threeCameraMatrix()
	cp := c.Copy()
	cp.Remove(0, 0)
	if !c.Has(0, 0) {
		t.Errorf("removing from the copy should not touch the original")
	}
}
