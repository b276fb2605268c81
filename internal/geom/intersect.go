package geom

import "math"

// Degeneracy thresholds.
const (
	// ParallelEpsilon bounds the determinant below which two lines are
	// treated as parallel or coincident.
	ParallelEpsilon = 1e-9

	// DegenerateEpsilon bounds squared lengths below which a segment or axis
	// collapses to a point.
	DegenerateEpsilon = 1e-12

	// TangentEpsilon absorbs rounding when two circles or a line and a
	// circle only just touch.
	TangentEpsilon = 1e-9
)

// IntersectLines returns the intersection of the infinite lines AB and CD.
// ok is false when the lines are parallel or coincident.
func IntersectLines(a, b, c, d Point) (p Point, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	det := r.Cross(s)
	if math.Abs(det) < ParallelEpsilon {
		return Point{}, false
	}
	t := c.Sub(a).Cross(s) / det
	return a.Add(r.Mul(t)), true
}

// LineCircleIntersections solves |A + t(B-A) - center| = radius for t and
// returns zero, one or two points. With clampToSegment, solutions whose t
// falls outside [0,1] are discarded.
func LineCircleIntersections(a, b, center Point, radius float64, clampToSegment bool) []Point {
	d := b.Sub(a)
	f := a.Sub(center)

	qa := d.Dot(d)
	if qa < DegenerateEpsilon {
		return nil
	}
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - radius*radius

	disc := qb*qb - 4*qa*qc
	scale := math.Max(1, qb*qb)
	if disc < -TangentEpsilon*scale {
		return nil
	}

	var ts []float64
	if disc <= TangentEpsilon*scale {
		ts = []float64{-qb / (2 * qa)}
	} else {
		sq := math.Sqrt(disc)
		ts = []float64{(-qb - sq) / (2 * qa), (-qb + sq) / (2 * qa)}
	}

	out := make([]Point, 0, len(ts))
	for _, t := range ts {
		if clampToSegment && (t < -TangentEpsilon || t > 1+TangentEpsilon) {
			continue
		}
		out = append(out, a.Add(d.Mul(t)))
	}
	return out
}

// CircleCircleIntersections returns the zero, one or two points shared by
// two circles, computed through their radical line. Concentric circles and
// circles that are too far apart or nested yield none.
func CircleCircleIntersections(c1 Point, r1 float64, c2 Point, r2 float64) []Point {
	delta := c2.Sub(c1)
	d := delta.Length()
	if d < TangentEpsilon {
		return nil
	}
	if d > r1+r2+TangentEpsilon || d < math.Abs(r1-r2)-TangentEpsilon {
		return nil
	}

	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h2 := r1*r1 - a*a
	base := c1.Add(delta.Mul(a / d))
	if h2 <= TangentEpsilon {
		return []Point{base}
	}

	h := math.Sqrt(h2)
	off := delta.Perp().Mul(h / d)
	return []Point{base.Add(off), base.Sub(off)}
}

// LineParameter returns t such that A + t(B-A) is the orthogonal projection
// of p onto line AB. It is 0 for a degenerate line.
func LineParameter(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.LengthSquared()
	if l2 < DegenerateEpsilon {
		return 0
	}
	return p.Sub(a).Dot(ab) / l2
}

// ProjectPointOnLine returns the foot of the perpendicular from p onto the
// infinite line AB. A degenerate line projects everything onto A.
func ProjectPointOnLine(p, a, b Point) Point {
	return a.Lerp(b, LineParameter(p, a, b))
}

// ProjectPointOnSegment is ProjectPointOnLine with the parameter clamped to
// the segment AB.
func ProjectPointOnSegment(p, a, b Point) Point {
	t := LineParameter(p, a, b)
	return a.Lerp(b, math.Max(0, math.Min(1, t)))
}

// ReflectAcrossLine mirrors p across the infinite line through a and b.
// ok is false when a and b coincide.
func ReflectAcrossLine(p, a, b Point) (Point, bool) {
	if b.Sub(a).LengthSquared() < DegenerateEpsilon {
		return Point{}, false
	}
	foot := ProjectPointOnLine(p, a, b)
	return foot.Mul(2).Sub(p), true
}

// ReflectAcrossPoint mirrors p through c.
func ReflectAcrossPoint(p, c Point) Point {
	return c.Mul(2).Sub(p)
}

// Circumcenter returns the center of the circle through a, b and c.
// ok is false for collinear input.
func Circumcenter(a, b, c Point) (Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < ParallelEpsilon {
		return Point{}, false
	}
	a2 := a.LengthSquared()
	b2 := b.LengthSquared()
	c2 := c.LengthSquared()
	return Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
