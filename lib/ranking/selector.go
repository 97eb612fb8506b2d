package ranking

import (
	"log"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/tracks"
)

// A Selector picks a bounded, well-distributed subset of tracks by
// growing trees over the camera connectivity graph, following the track
// selection scheme of Cui et al., Pattern Recognition 2017. Each round
// grows one tree from the currently heaviest camera; selected tracks are
// masked out before the next round so connectivity and weights reflect
// only the remaining candidates.
type Selector struct {
	working  *tracks.CorrespondenceMatrix
	errTable *ErrorTable
	ranks    map[int]int

	maxRounds int

	selected     []int
	selectedMask []bool
	roundsRun    int
}

// NewSelector copies c so selection never mutates the caller's matrix.
// The error table and ranks are computed once, on the full matrix, and
// stay fixed across rounds.
func NewSelector(c *tracks.CorrespondenceMatrix, errTable *ErrorTable, ranks map[int]int, maxRounds int) *Selector {
	return &Selector{
		working:      c.Copy(),
		errTable:     errTable,
		ranks:        ranks,
		maxRounds:    maxRounds,
		selected:     make([]int, 0),
		selectedMask: make([]bool, c.NTracks()),
	}
}

// RoundsRun reports how many growth rounds have executed.
func (s *Selector) RoundsRun() int { return s.roundsRun }

// Select runs up to maxRounds growth rounds and returns the selected
// track ids in selection order. A track is selected at most once across
// all rounds; rounds that grow nothing still count against the budget,
// so the loop always terminates.
func (s *Selector) Select() ([]int, error) {
	nCam := s.working.NCameras()
	nTracks := s.working.NTracks()

	for s.roundsRun < s.maxRounds && len(s.selected) < nTracks {
		a, err := tracks.BuildConnectivity(s.working)
		if err != nil {
			return nil, err
		}
		inverted := InvertedTrackList(s.working, s.ranks)
		weights, err := CameraWeights(s.working, s.errTable, a)
		if err != nil {
			return nil, err
		}
		root := ArgmaxWeight(weights)

		included := make([]bool, nCam)
		included[root] = true
		includedCount := 1
		inRound := make([]bool, nTracks)
		roundSelection := make([]int, 0)
		frontier := []int{root}

		for len(frontier) > 0 && includedCount < nCam {
			next := make([]int, 0)
			for _, cam := range frontier {
				neighbor := make([]bool, nCam)
				for _, n := range tracks.Neighbors(a, cam) {
					neighbor[n] = true
				}
				for _, t := range inverted[cam] {
					if inRound[t] {
						continue
					}
					// Zq: cameras that observe t and are connected to cam.
					grows := false
					zq := make([]int, 0, 4)
					for _, w := range s.working.ObservingCameras(t) {
						if neighbor[w] {
							zq = append(zq, w)
							if !included[w] {
								grows = true
							}
						}
					}
					if len(zq) == 0 || !grows {
						continue
					}
					inRound[t] = true
					roundSelection = append(roundSelection, t)
					for _, z := range zq {
						if !included[z] {
							included[z] = true
							includedCount++
							next = append(next, z)
						}
					}
				}
			}
			frontier = next
		}

		s.roundsRun++
		for _, t := range roundSelection {
			s.selectedMask[t] = true
			s.selected = append(s.selected, t)
		}
		s.working.MaskTracks(roundSelection)
		log.Printf("selection round %d: root camera %d, %d tracks picked (%d total)\n",
			s.roundsRun, root, len(roundSelection), len(s.selected))
	}
	log.Printf("selected %d tracks out of %d in %d rounds\n", len(s.selected), nTracks, s.roundsRun)
	return s.selected, nil
}

// SelectTracks scores the tracks of c against the current camera
// geometry and runs the budgeted selection.
func SelectTracks(c *tracks.CorrespondenceMatrix, ps []*geometry.ProjectionMatrix,
	pairs []geometry.CameraPair, maxRounds int) ([]int, error) {

	errTable, _, err := BuildErrorTable(c, ps, pairs)
	if err != nil {
		return nil, err
	}
	ranks := OrderTracks(c, errTable)
	return NewSelector(c, errTable, ranks, maxRounds).Select()
}
