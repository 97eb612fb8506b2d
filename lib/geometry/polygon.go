package geometry

// A Polygon is a closed ring of planar vertices, no repeated end vertex.
// The footprint polygons this package clips are convex (image footprints
// projected to the ground); Intersect assumes a convex clip polygon.
type Polygon []Point2

// Area returns the unsigned area of the polygon (shoelace formula).
func (p Polygon) Area() float64 {
	a := p.signedArea()
	if a < 0 {
		return -a
	}
	return a
}

func (p Polygon) signedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, v := range p {
		w := p[(i+1)%len(p)]
		sum += v.X*w.Y - w.X*v.Y
	}
	return sum / 2
}

// counterClockwise returns the polygon with positive orientation.
func (p Polygon) counterClockwise() Polygon {
	if p.signedArea() >= 0 {
		return p
	}
	rev := make(Polygon, len(p))
	for i, v := range p {
		rev[len(p)-1-i] = v
	}
	return rev
}

// Intersect clips p against the convex polygon clip (Sutherland-Hodgman)
// and returns the intersection polygon, which may be empty.
func (p Polygon) Intersect(clip Polygon) Polygon {
	if len(p) < 3 || len(clip) < 3 {
		return nil
	}
	subject := p.counterClockwise()
	clip = clip.counterClockwise()

	out := subject
	for i := range clip {
		if len(out) == 0 {
			return nil
		}
		a := clip[i]
		b := clip[(i+1)%len(clip)]
		in := out
		out = make(Polygon, 0, len(in)+2)
		for j := range in {
			cur := in[j]
			prev := in[(j+len(in)-1)%len(in)]
			curInside := cross(a, b, cur) >= 0
			prevInside := cross(a, b, prev) >= 0
			if curInside {
				if !prevInside {
					out = append(out, lineIntersect(prev, cur, a, b))
				}
				out = append(out, cur)
			} else if prevInside {
				out = append(out, lineIntersect(prev, cur, a, b))
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func cross(a Point2, b Point2, c Point2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// lineIntersect returns the intersection of segment p1-p2 with the
// infinite line through a-b. Callers only invoke it when the segment
// crosses the line.
func lineIntersect(p1 Point2, p2 Point2, a Point2, b Point2) Point2 {
	d1 := cross(a, b, p1)
	d2 := cross(a, b, p2)
	t := d1 / (d1 - d2)
	return Point2{X: p1.X + t*(p2.X-p1.X), Y: p1.Y + t*(p2.Y-p1.Y)}
}
