// Package mesh holds triangulated elevation meshes: loading, triangle
// geometry and spatial lookup of the triangle containing a point.
package mesh

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"avalanche-planner/pkg/raster"
)

// ErrInvalidMesh is returned by Validate.
var ErrInvalidMesh = errors.New("mesh: invalid mesh")

// Vertex is a mesh vertex with its altitude.
type Vertex struct {
	X, Y, Z float64
}

// XY drops the altitude.
func (v Vertex) XY() orb.Point {
	return orb.Point{v.X, v.Y}
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices  []Vertex
	Triangles [][3]int
}

// Validate checks that every triangle references existing vertices.
func (m *Mesh) Validate() error {
	for i, tri := range m.Triangles {
		for _, v := range tri {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvalidMesh, i, v, len(m.Vertices))
			}
		}
	}
	return nil
}

// Triangle returns the vertices of triangle i.
func (m *Mesh) Triangle(i int) Triangle {
	t := m.Triangles[i]
	return Triangle{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
}

// Transformed returns a copy of m with every vertex mapped through t.
// Altitudes are unchanged and triangles are shared.
func (m *Mesh) Transformed(t raster.Affine) *Mesh {
	out := &Mesh{
		Vertices:  make([]Vertex, len(m.Vertices)),
		Triangles: m.Triangles,
	}
	for i, v := range m.Vertices {
		x, y := t.Apply(v.X, v.Y)
		out.Vertices[i] = Vertex{X: x, Y: y, Z: v.Z}
	}
	return out
}

// Bound returns the planar bounding box of the vertices.
func (m *Mesh) Bound() orb.Bound {
	if len(m.Vertices) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: m.Vertices[0].XY(), Max: m.Vertices[0].XY()}
	for _, v := range m.Vertices[1:] {
		b = b.Extend(v.XY())
	}
	return b
}

// FlipTransform reconciles a mesh whose origin is the bottom-left pixel with
// a raster transform t whose origin is the top-left pixel of a raster with
// the given height.
func FlipTransform(t raster.Affine, height int) raster.Affine {
	return t.Multiply(raster.Scale(1, -1)).Multiply(raster.Translation(0, -float64(height)))
}
