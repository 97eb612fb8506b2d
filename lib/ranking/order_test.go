package ranking

import (
	"testing"
)

func TestOrderTracksLengthBeatsCost(t *testing.T) {
	c := scenarioMatrix()
	e := NewErrorTable(3, 4)
	// Track 0 is the longest but also the most expensive.
	for cam := 0; cam < 3; cam++ {
		e.Set(cam, 0, 100.0)
	}
	e.Set(0, 1, 0.1)
	e.Set(1, 1, 0.1)
	ranks := OrderTracks(c, e)
	if ranks[0] != 0 {
		t.Errorf("the longest track must rank first regardless of cost, got rank %d", ranks[0])
	}
}

func TestOrderTracksCostBreaksTies(t *testing.T) {
	c := scenarioMatrix()
	e := scenarioErrors()
	// Tracks 1-3 all have length 2; make track 2 cheapest.
	e.Set(0, 2, 0.1)
	e.Set(2, 2, 0.1)
	ranks := OrderTracks(c, e)
	if ranks[2] != 1 {
		t.Errorf("the cheapest length-2 track should rank right after track 0, got rank %d", ranks[2])
	}
	if ranks[1] >= ranks[3] {
		// Equal length and cost fall back to the track id.
		t.Errorf("equal tracks should order by id, got ranks %d and %d", ranks[1], ranks[3])
	}
}

func TestOrderTracksMissingCostRanksLast(t *testing.T) {
	c := scenarioMatrix()
	// Track 3 has no cost estimate at all.
	e := NewErrorTable(3, 4)
	for cam := 0; cam < 3; cam++ {
		e.Set(cam, 0, 3.0)
	}
	e.Set(0, 1, 1.0)
	e.Set(1, 1, 1.0)
	e.Set(0, 2, 1.0)
	e.Set(2, 2, 1.0)
	ranks := OrderTracks(c, e)
	if ranks[3] != 3 {
		t.Errorf("a track without cost should sort after its cost-bearing peers, got rank %d", ranks[3])
	}
}

func TestInvertedTrackList(t *testing.T) {
	c := scenarioMatrix()
	e := scenarioErrors()
	ranks := OrderTracks(c, e)
	inverted := InvertedTrackList(c, ranks)
	if len(inverted) != 3 {
		t.Fatalf("expected one list per camera, got %d", len(inverted))
	}
	// Camera 0 sees every track; its list starts with the global best.
	if len(inverted[0]) != 4 {
		t.Errorf("camera 0 should see 4 tracks, got %d", len(inverted[0]))
	}
	if inverted[0][0] != 0 {
		t.Errorf("camera 0's list should start with track 0, got %v", inverted[0])
	}
	for _, list := range inverted {
		for i := 1; i < len(list); i++ {
			if ranks[list[i-1]] > ranks[list[i]] {
				t.Errorf("inverted list not sorted by rank: %v", list)
			}
		}
	}
}
