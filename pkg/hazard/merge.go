package hazard

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RemoveContained drops polygons lying entirely inside another polygon of
// the set. Of two identical polygons the later one is kept.
func RemoveContained(polygons []orb.Polygon) []orb.Polygon {
	if len(polygons) <= 1 {
		return polygons
	}

	contained := make([]bool, len(polygons))
	for i := range polygons {
		if contained[i] {
			continue
		}
		for j := range polygons {
			if i == j || contained[j] {
				continue
			}
			if containedIn(polygons[i], polygons[j]) {
				contained[i] = true
				break
			}
			if containedIn(polygons[j], polygons[i]) {
				contained[j] = true
			}
		}
	}

	out := make([]orb.Polygon, 0, len(polygons))
	for i, p := range polygons {
		if !contained[i] {
			out = append(out, p)
		}
	}
	return out
}

// containedIn reports whether every vertex of a's outer ring lies in b.
func containedIn(a, b orb.Polygon) bool {
	if len(a) == 0 || len(a[0]) == 0 || len(b) == 0 || len(b[0]) == 0 {
		return false
	}
	ab, bb := a.Bound(), b.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}
	for _, v := range a[0] {
		if !planar.PolygonContains(b, v) {
			return false
		}
	}
	return true
}
