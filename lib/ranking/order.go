package ranking

import (
	"sort"

	"github.com/geosfm/satba/lib/tracks"
)

// OrderTracks produces a total order over track ids: longer tracks rank
// first, ties break on lower cost. Tracks without a defined cost sort
// after every track of the same length with a defined cost; remaining
// ties resolve on track id so the order is deterministic. The result
// maps track id to rank position (0 = best).
func OrderTracks(c *tracks.CorrespondenceMatrix, errTable *ErrorTable) map[int]int {
	type entry struct {
		id      int
		length  int
		cost    float64
		hasCost bool
	}
	entries := make([]entry, c.NTracks())
	for t := 0; t < c.NTracks(); t++ {
		cost, ok := errTable.TrackCost(t)
		entries[t] = entry{id: t, length: c.TrackLength(t), cost: cost, hasCost: ok}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.length != b.length {
			return a.length > b.length
		}
		if a.hasCost != b.hasCost {
			return a.hasCost
		}
		if a.hasCost && a.cost != b.cost {
			return a.cost < b.cost
		}
		return a.id < b.id
	})
	ranks := make(map[int]int, len(entries))
	for pos, e := range entries {
		ranks[e.id] = pos
	}
	return ranks
}

// InvertedTrackList returns, per camera, the ids of its observed tracks
// sorted by ascending global rank. The selector walks these lists to
// find the next-best track to grow from a camera.
func InvertedTrackList(c *tracks.CorrespondenceMatrix, ranks map[int]int) [][]int {
	inverted := make([][]int, c.NCameras())
	for cam := 0; cam < c.NCameras(); cam++ {
		seen := c.TracksSeenBy(cam)
		sort.Slice(seen, func(i, j int) bool {
			return ranks[seen[i]] < ranks[seen[j]]
		})
		inverted[cam] = seen
	}
	return inverted
}
