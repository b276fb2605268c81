package geom

import "math"

// Matrix2D is a 2D affine transform stored as [a, b, c, d, e, f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
type Matrix2D [6]float64

// Translate returns a translation by v.
func Translate(v Point) Matrix2D {
	return Matrix2D{1, 0, 0, 1, v.X, v.Y}
}

// Scale returns a uniform scale about the origin.
func Scale(s float64) Matrix2D {
	return Matrix2D{s, 0, 0, s, 0, 0}
}

// Rotate returns a counter-clockwise rotation about the origin.
func Rotate(radians float64) Matrix2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m * other, which applies other first and then m.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms p.
func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ScaleRotateAbout composes Translate(center) * Rotate(rotation) * Scale(scale).
// Applied to an offset vector from center it yields the transformed absolute
// position. scale is used as given; a zero scale maps every vector to center.
func ScaleRotateAbout(center Point, scale, rotation float64) Matrix2D {
	return Translate(center).Multiply(Rotate(rotation)).Multiply(Scale(scale))
}
