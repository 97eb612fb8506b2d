package matching

import (
	"testing"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/tracks"
)

func TestFilterEmptyInputPassthrough(t *testing.T) {
	kept, err := FilterInconsistentMatches(nil, nil, 95, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 0 {
		t.Errorf("empty input should come back empty, got %d matches", len(kept))
	}
}

func TestFilterUniformDistancesKeepsEverything(t *testing.T) {
	// Every match endpoint pair sits exactly 7 meters apart; the
	// threshold becomes 7 + 10 and nothing is removed.
	planar := [][]geometry.Point2{
		{{X: 0, Y: 0}, {X: 100, Y: 0}},
		{{X: 7, Y: 0}, {X: 107, Y: 0}},
	}
	matches := []tracks.PairwiseMatch{
		{ImI: 0, KpI: 0, ImJ: 1, KpJ: 0},
		{ImI: 0, KpI: 1, ImJ: 1, KpJ: 1},
	}
	kept, err := FilterInconsistentMatches(matches, planar, 95, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Errorf("uniform distances must keep all matches, kept %d", len(kept))
	}
}

func TestFilterDropsDistantMatches(t *testing.T) {
	// Nine consistent matches around 1 m and one at 500 m.
	planarA := make([]geometry.Point2, 10)
	planarB := make([]geometry.Point2, 10)
	matches := make([]tracks.PairwiseMatch, 10)
	for i := 0; i < 10; i++ {
		planarA[i] = geometry.Point2{X: float64(10 * i), Y: 0}
		planarB[i] = geometry.Point2{X: float64(10*i) + 1, Y: 0}
		matches[i] = tracks.PairwiseMatch{ImI: 0, KpI: i, ImJ: 1, KpJ: i}
	}
	planarB[9].X += 500
	kept, err := FilterInconsistentMatches(matches, [][]geometry.Point2{planarA, planarB}, 95, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 9 {
		t.Fatalf("expected the distant match to be dropped, kept %d", len(kept))
	}
	for _, m := range kept {
		if m.KpI == 9 {
			t.Errorf("the distant match survived")
		}
	}
}

func TestFilterValidatesReferences(t *testing.T) {
	matches := []tracks.PairwiseMatch{{ImI: 0, KpI: 0, ImJ: 5, KpJ: 0}}
	planar := [][]geometry.Point2{{{X: 0, Y: 0}}}
	if _, err := FilterInconsistentMatches(matches, planar, 95, 10); err == nil {
		t.Errorf("expected an error for an unknown image reference")
	}
	matches = []tracks.PairwiseMatch{{ImI: 0, KpI: 3, ImJ: 0, KpJ: 0}}
	if _, err := FilterInconsistentMatches(matches, planar, 95, 10); err == nil {
		t.Errorf("expected an error for an unknown keypoint reference")
	}
}
