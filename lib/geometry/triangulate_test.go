package geometry

import (
	"math"
	"testing"

	"github.com/geosfm/satba/lib/tracks"
)

// simpleCamera builds P = [I | -center] so the optical center sits at
// the given point and projection is a plain perspective divide.
func simpleCamera(center Point3) *ProjectionMatrix {
	return NewProjectionMatrix([3][4]float64{
		{1, 0, 0, -center.X},
		{0, 1, 0, -center.Y},
		{0, 0, 1, -center.Z},
	}, 1000, 1000)
}

func TestTriangulatePairRecoversPoint(t *testing.T) {
	p1 := simpleCamera(Point3{})
	p2 := simpleCamera(Point3{X: 1})
	want := Point3{X: 0.5, Y: 0.3, Z: 5}
	c1, r1 := p1.Project(want)
	c2, r2 := p2.Project(want)

	got, err := TriangulatePair(p1, p2, Point2{X: c1, Y: r1}, Point2{X: c2, Y: r2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 || math.Abs(got.Z-want.Z) > 1e-9 {
		t.Errorf("triangulated %v, want %v", got, want)
	}
}

func TestTriangulateTracksMeansOverPairs(t *testing.T) {
	ps := []*ProjectionMatrix{
		simpleCamera(Point3{}),
		simpleCamera(Point3{X: 1}),
		simpleCamera(Point3{Y: 1}),
	}
	want := Point3{X: 0.2, Y: -0.4, Z: 8}

	c := tracks.NewCorrespondenceMatrix(3, 2)
	for cam := 0; cam < 3; cam++ {
		col, row := ps[cam].Project(want)
		c.Set(cam, 0, tracks.Observation{Col: col, Row: row})
	}
	// Track 1 is seen by a single camera and cannot be triangulated.
	c.Set(0, 1, tracks.Observation{Col: 1, Row: 1})

	pairs := []CameraPair{{I: 0, J: 1}, {I: 0, J: 2}, {I: 1, J: 2}}
	pts, ok, err := TriangulateTracks(c, ps, pairs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok[0] {
		t.Fatalf("track 0 should triangulate")
	}
	if math.Abs(pts[0].X-want.X) > 1e-9 || math.Abs(pts[0].Z-want.Z) > 1e-9 {
		t.Errorf("triangulated %v, want %v", pts[0], want)
	}
	if ok[1] {
		t.Errorf("a single-observation track must not triangulate")
	}
}

func TestTriangulateTracksRespectsEligiblePairs(t *testing.T) {
	ps := []*ProjectionMatrix{
		simpleCamera(Point3{}),
		simpleCamera(Point3{X: 1}),
	}
	want := Point3{X: 0.1, Y: 0.1, Z: 4}
	c := tracks.NewCorrespondenceMatrix(2, 1)
	for cam := 0; cam < 2; cam++ {
		col, row := ps[cam].Project(want)
		c.Set(cam, 0, tracks.Observation{Col: col, Row: row})
	}
	// No eligible pairs at all.
	_, ok, err := TriangulateTracks(c, ps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok[0] {
		t.Errorf("without eligible pairs nothing should triangulate")
	}
}

func TestTriangulateTracksValidatesShape(t *testing.T) {
	c := tracks.NewCorrespondenceMatrix(3, 1)
	ps := []*ProjectionMatrix{simpleCamera(Point3{})}
	if _, _, err := TriangulateTracks(c, ps, nil); err == nil {
		t.Errorf("expected an error for mismatched camera counts")
	}
}

func TestBaseline(t *testing.T) {
	p1 := simpleCamera(Point3{})
	p2 := simpleCamera(Point3{X: 3, Y: 4})
	got, err := Baseline(p1, p2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("expected baseline 5, got %f", got)
	}
}
