package mesh

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// eps pads bounding boxes: rtreego rejects zero-width rectangles and treats
// touching rectangles as disjoint.
const eps = 1e-9

type triangleEntry struct {
	index int
	bbox  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *triangleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// Index is an R-tree over the planar bounding boxes of a mesh's triangles.
type Index struct {
	mesh *Mesh
	tree *rtreego.Rtree
}

// NewIndex indexes every triangle of m.
func NewIndex(m *Mesh) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	for i := range m.Triangles {
		t := m.Triangle(i)
		b := orb.Bound{Min: t[0].XY(), Max: t[0].XY()}.Extend(t[1].XY()).Extend(t[2].XY())
		rect, err := padded(b)
		if err != nil {
			continue
		}
		tree.Insert(&triangleEntry{index: i, bbox: rect})
	}
	return &Index{mesh: m, tree: tree}
}

// Candidates returns, in ascending order, the triangles whose bounding box
// contains p.
func (idx *Index) Candidates(p orb.Point) []int {
	rect, err := padded(orb.Bound{Min: p, Max: p})
	if err != nil {
		return nil
	}
	results := idx.tree.SearchIntersect(rect)
	out := make([]int, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*triangleEntry).index)
	}
	sort.Ints(out)
	return out
}

// Locate returns the lowest-numbered non-degenerate triangle containing p,
// matching the result of a linear scan in mesh order.
func (idx *Index) Locate(p orb.Point) (int, bool) {
	for _, i := range idx.Candidates(p) {
		t := idx.mesh.Triangle(i)
		if t.Degenerate() {
			continue
		}
		if InTriangle(p, t) {
			return i, true
		}
	}
	return 0, false
}

func padded(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - eps, b.Min[1] - eps},
		[]float64{b.Max[0] - b.Min[0] + 2*eps, b.Max[1] - b.Min[1] + 2*eps},
	)
}
