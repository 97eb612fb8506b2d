// Package kafka defines the messages exchanged with matching workers.
package kafka

import (
	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/settings"
)

// A MatchTask asks a worker to match the keypoints of one camera pair,
// restricted to the footprint intersection of the two images. The
// settings ride along so workers need no configuration of their own.
type MatchTask struct {
	I            int                 `json:"im_i"`
	J            int                 `json:"im_j"`
	Intersection geometry.Polygon    `json:"intersection"`
	Config       settings.BaSettings `json:"config"`
}
