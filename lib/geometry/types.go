// Package geometry holds the camera geometry primitives the bundle
// adjustment core works with: linear projection matrices, triangulation,
// image footprints and the contract for the external camera model.
package geometry

// Point2 is a planar coordinate (pixel or projected map units).
type Point2 struct {
	X float64
	Y float64
}

// Point3 is a 3-D world coordinate.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

// A CameraPair identifies an unordered camera pair by index.
type CameraPair struct {
	I int
	J int
}

// CameraModel is the external projection model of one image (for
// satellite data, a rational polynomial camera). The core only needs
// forward projection and back-projection at a given elevation.
type CameraModel interface {
	// Projection maps geodetic coordinates to a pixel location.
	Projection(lon float64, lat float64, alt float64) (col float64, row float64)
	// Localization maps a pixel plus an elevation back to geodetic
	// coordinates.
	Localization(col float64, row float64, alt float64) (lon float64, lat float64)
}

// A ModelFitter refits a camera model against a linear projection matrix
// and a set of 3-D points. It returns the refined model and the
// root-mean-square fitting error in pixels.
type ModelFitter interface {
	FitFromProjection(p *ProjectionMatrix, points []Point3) (CameraModel, float64, error)
}

// Offset is the pixel offset of an image crop within its full scene.
type Offset struct {
	Col0 float64 `json:"col0"`
	Row0 float64 `json:"row0"`
}

// A Footprint is the ground polygon covered by an image, in projected
// planar coordinates, together with a representative ground elevation.
type Footprint struct {
	Poly      Polygon `json:"poly"`
	Elevation float64 `json:"z"`
}
