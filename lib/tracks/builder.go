package tracks

import (
	"fmt"
	"log"
	"sort"
)

// A PairwiseMatch links keypoint KpI of image ImI to keypoint KpJ of
// image ImJ. This is the output format of the external pairwise matcher.
type PairwiseMatch struct {
	KpI int `json:"kp_i"`
	KpJ int `json:"kp_j"`
	ImI int `json:"im_i"`
	ImJ int `json:"im_j"`
}

// unionFind over (image, keypoint) nodes, used to merge pairwise matches
// into multi-view tracks.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a int, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// BuildFromMatches merges a flat list of pairwise matches into feature
// tracks and fills a correspondence matrix with the observed pixel
// coordinates. keypoints[i][k] is the pixel location of keypoint k in
// image i. Tracks that end up with two keypoints in the same image are
// inconsistent and dropped; tracks observed by fewer than two cameras are
// useless for triangulation and dropped as well.
func BuildFromMatches(matches []PairwiseMatch, keypoints [][]Observation) (*CorrespondenceMatrix, *KeypointIndex, error) {
	nCameras := len(keypoints)
	if nCameras == 0 {
		return nil, nil, fmt.Errorf("cannot build tracks without keypoints")
	}

	// Flatten (image, keypoint) into union-find node ids.
	offsets := make([]int, nCameras+1)
	for i, kps := range keypoints {
		offsets[i+1] = offsets[i] + len(kps)
	}
	node := func(im int, kp int) (int, error) {
		if im < 0 || im >= nCameras {
			return 0, fmt.Errorf("match references image %d but only %d images are known", im, nCameras)
		}
		if kp < 0 || kp >= len(keypoints[im]) {
			return 0, fmt.Errorf("match references keypoint %d of image %d but that image has %d keypoints",
				kp, im, len(keypoints[im]))
		}
		return offsets[im] + kp, nil
	}

	uf := newUnionFind(offsets[nCameras])
	for _, m := range matches {
		a, err := node(m.ImI, m.KpI)
		if err != nil {
			return nil, nil, err
		}
		b, err := node(m.ImJ, m.KpJ)
		if err != nil {
			return nil, nil, err
		}
		uf.union(a, b)
	}

	// Group nodes into candidate tracks.
	components := make(map[int][]int)
	for _, m := range matches {
		a, _ := node(m.ImI, m.KpI)
		b, _ := node(m.ImJ, m.KpJ)
		root := uf.find(a)
		components[root] = append(components[root], a, b)
	}

	type member struct {
		im int
		kp int
	}
	candidates := make([][]member, 0, len(components))
	roots := make([]int, 0, len(components))
	for root := range components {
		roots = append(roots, root)
	}
	// Deterministic track ordering regardless of map iteration.
	sort.Ints(roots)

	inconsistent := 0
	for _, root := range roots {
		nodes := components[root]
		seenNode := make(map[int]bool, len(nodes))
		perImage := make(map[int]int, len(nodes))
		members := make([]member, 0, len(nodes))
		consistent := true
		for _, nd := range nodes {
			if seenNode[nd] {
				continue
			}
			seenNode[nd] = true
			im := sort.SearchInts(offsets[1:], nd+1)
			kp := nd - offsets[im]
			if prev, ok := perImage[im]; ok && prev != kp {
				consistent = false
				break
			}
			perImage[im] = kp
			members = append(members, member{im: im, kp: kp})
		}
		if !consistent {
			inconsistent++
			continue
		}
		if len(members) < 2 {
			continue
		}
		candidates = append(candidates, members)
	}
	if inconsistent > 0 {
		log.Printf("dropped %d inconsistent tracks (several keypoints of one image merged)\n", inconsistent)
	}

	c := NewCorrespondenceMatrix(nCameras, len(candidates))
	kpIndex := NewKeypointIndex(nCameras, len(candidates))
	for t, members := range candidates {
		for _, m := range members {
			c.Set(m.im, t, keypoints[m.im][m.kp])
			kpIndex.Set(m.im, t, m.kp)
		}
	}
	log.Printf("built %d feature tracks from %d pairwise matches across %d images\n",
		len(candidates), len(matches), nCameras)
	return c, kpIndex, nil
}
