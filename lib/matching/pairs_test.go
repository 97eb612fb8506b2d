package matching

import (
	"math"
	"testing"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/settings"
)

func cameraAt(center geometry.Point3) *geometry.ProjectionMatrix {
	return geometry.NewProjectionMatrix([3][4]float64{
		{1, 0, 0, -center.X},
		{0, 1, 0, -center.Y},
		{0, 0, 1, -center.Z},
	}, 1000, 1000)
}

func squareFootprint(x0 float64, y0 float64, side float64) geometry.Footprint {
	return geometry.Footprint{
		Poly: geometry.Polygon{
			{X: x0, Y: y0},
			{X: x0 + side, Y: y0},
			{X: x0 + side, Y: y0 + side},
			{X: x0, Y: y0 + side},
		},
		Elevation: 100,
	}
}

func TestAllPairs(t *testing.T) {
	pairs := AllPairs(4)
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs for 4 cameras, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p.I >= p.J {
			t.Errorf("pairs must be ordered, got (%d, %d)", p.I, p.J)
		}
	}
	if len(AllPairs(1)) != 0 {
		t.Errorf("a single camera has no pairs")
	}
}

func TestEligiblePairsGates(t *testing.T) {
	// Cameras 0 and 1 overlap by half a footprint and sit 5 units apart;
	// camera 2 is disjoint from both.
	ps := []*geometry.ProjectionMatrix{
		cameraAt(geometry.Point3{}),
		cameraAt(geometry.Point3{X: 5}),
		cameraAt(geometry.Point3{X: 100, Y: 100}),
	}
	footprints := []geometry.Footprint{
		squareFootprint(0, 0, 10),
		squareFootprint(5, 0, 10),
		squareFootprint(100, 100, 10),
	}
	cfg := settings.BaSettings{MinOverlapRatio: 0.1, MinBaseline: 2}

	toMatch, toTriangulate, err := EligiblePairs(AllPairs(3), footprints, ps, cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toMatch) != 1 || toMatch[0].I != 0 || toMatch[0].J != 1 {
		t.Fatalf("expected only pair (0, 1) to be matched, got %v", toMatch)
	}
	if math.Abs(toMatch[0].Baseline-5) > 1e-9 {
		t.Errorf("expected baseline 5, got %f", toMatch[0].Baseline)
	}
	if got := toMatch[0].Intersection.Area(); math.Abs(got-50) > 1e-9 {
		t.Errorf("expected intersection area 50, got %f", got)
	}
	if len(toTriangulate) != 1 {
		t.Errorf("pair (0, 1) clears the baseline gate, got %v", toTriangulate)
	}
}

func TestEligiblePairsBaselineGateOnly(t *testing.T) {
	ps := []*geometry.ProjectionMatrix{
		cameraAt(geometry.Point3{}),
		cameraAt(geometry.Point3{X: 5}),
	}
	footprints := []geometry.Footprint{
		squareFootprint(0, 0, 10),
		squareFootprint(5, 0, 10),
	}
	cfg := settings.BaSettings{MinOverlapRatio: 0.1, MinBaseline: 50}

	toMatch, toTriangulate, err := EligiblePairs(AllPairs(2), footprints, ps, cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toMatch) != 1 {
		t.Errorf("a short baseline still allows matching, got %d pairs", len(toMatch))
	}
	if len(toTriangulate) != 0 {
		t.Errorf("a short baseline must not be used for triangulation, got %v", toTriangulate)
	}
}

func TestEligiblePairsNoFilter(t *testing.T) {
	ps := []*geometry.ProjectionMatrix{
		cameraAt(geometry.Point3{}),
		cameraAt(geometry.Point3{X: 100, Y: 100}),
	}
	footprints := []geometry.Footprint{
		squareFootprint(0, 0, 10),
		squareFootprint(100, 100, 10),
	}
	toMatch, toTriangulate, err := EligiblePairs(AllPairs(2), footprints, ps,
		settings.BaSettings{MinOverlapRatio: 0.1, MinBaseline: 50}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toMatch) != 1 || len(toTriangulate) != 1 {
		t.Errorf("noFilter must keep every pair, got %d matched and %d triangulated",
			len(toMatch), len(toTriangulate))
	}
}

type flatModel struct{}

func (f flatModel) Projection(lon float64, lat float64, alt float64) (float64, float64) {
	return lon, lat
}

func (f flatModel) Localization(col float64, row float64, alt float64) (float64, float64) {
	return col, row
}

func TestKeypointsToPlanar(t *testing.T) {
	keypoints := [][]geometry.Point2{{{X: 10, Y: 20}}}
	models := []geometry.CameraModel{flatModel{}}
	footprints := []geometry.Footprint{squareFootprint(0, 0, 10)}
	offsets := []geometry.Offset{{Col0: 5, Row0: 7}}
	toPlanar := func(lon float64, lat float64) (float64, float64) {
		return 2 * lon, 2 * lat
	}
	planar := KeypointsToPlanar(keypoints, models, footprints, offsets, toPlanar)
	if len(planar) != 1 || len(planar[0]) != 1 {
		t.Fatalf("unexpected shape: %v", planar)
	}
	got := planar[0][0]
	if got.X != 30 || got.Y != 54 {
		t.Errorf("expected (30, 54), got %v", got)
	}
}
