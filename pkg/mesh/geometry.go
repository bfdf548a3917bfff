package mesh

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
)

// ErrDegenerateTriangle is returned when interpolating over a zero-area
// triangle.
var ErrDegenerateTriangle = errors.New("mesh: degenerate triangle")

// Triangle is a triangle with altitudes at its corners.
type Triangle [3]Vertex

// sign is the cross product of (p1-p3) and (p2-p3).
func sign(p1, p2, p3 orb.Point) float64 {
	return (p1[0]-p3[0])*(p2[1]-p3[1]) - (p2[0]-p3[0])*(p1[1]-p3[1])
}

// InTriangle reports whether p lies inside t or on its boundary, for either
// winding order.
func InTriangle(p orb.Point, t Triangle) bool {
	v1, v2, v3 := t[0].XY(), t[1].XY(), t[2].XY()
	d1 := sign(p, v1, v2)
	d2 := sign(p, v2, v3)
	d3 := sign(p, v3, v1)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// Area returns the unsigned planar area of the triangle abc.
func Area(a, b, c orb.Point) float64 {
	return math.Abs((a[0]*(b[1]-c[1]) + b[0]*(c[1]-a[1]) + c[0]*(a[1]-b[1])) / 2)
}

// Area of the triangle's planar projection.
func (t Triangle) Area() float64 {
	return Area(t[0].XY(), t[1].XY(), t[2].XY())
}

// Degenerate reports whether the triangle has zero planar area.
func (t Triangle) Degenerate() bool {
	return t.Area() == 0
}

// InterpolateAltitude returns the altitude at p by barycentric area weights.
func InterpolateAltitude(p orb.Point, t Triangle) (float64, error) {
	total := t.Area()
	if total == 0 || math.IsNaN(total) {
		return 0, ErrDegenerateTriangle
	}
	v1, v2, v3 := t[0].XY(), t[1].XY(), t[2].XY()
	w1 := Area(p, v2, v3) / total
	w2 := Area(p, v3, v1) / total
	w3 := Area(p, v1, v2) / total
	return t[0].Z*w1 + t[1].Z*w2 + t[2].Z*w3, nil
}
