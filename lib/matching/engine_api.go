package matching

import (
	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/settings"
	"github.com/geosfm/satba/lib/tracks"
)

// A MatchResult is the matcher output for one camera pair. Matches may
// be empty: a pair without correspondences is an explicit empty result,
// not an error, so batch pair processing continues.
type MatchResult struct {
	I       int                    `json:"im_i"`
	J       int                    `json:"im_j"`
	Matches []tracks.PairwiseMatch `json:"matches"`
}

// A PairMatcher produces the raw correspondences between the keypoints
// of two images, restricted to their shared ground polygon. Detection
// and descriptor matching are external; this is the contract the core
// requires from them.
type PairMatcher func(i int, j int, intersection geometry.Polygon) ([]tracks.PairwiseMatch, error)

// An Engine runs pairwise matching jobs. Implementations deliver one
// MatchResult per submitted pair on the results channel.
type Engine interface {

	// Initialize provides the engine with its settings and the channel
	// match results are delivered on.
	Initialize(config settings.BaSettings, results chan<- *MatchResult)

	// MatchPair asks for the correspondences of one camera pair.
	MatchPair(candidate MatchCandidate) error

	// Shutdown gives the engine a chance to cancel running work when it
	// is deleted.
	Shutdown() error
}
