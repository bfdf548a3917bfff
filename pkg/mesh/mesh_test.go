package mesh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avalanche-planner/pkg/raster"
)

const vtkV4 = `# vtk DataFile Version 4.2
written by make_mesh
ASCII
DATASET UNSTRUCTURED_GRID
POINTS 4 double
0 0 100
10 0 110
0 10 120
10 10 130
METADATA
INFORMATION 0

CELLS 3 11
3 0 1 2
3 1 3 2
2 0 3
CELL_TYPES 3
5
5
3
POINT_DATA 4
SCALARS elevation float
LOOKUP_TABLE default
1 2 3 4
`

const vtkV5 = `# vtk DataFile Version 5.1
mesh
ASCII
DATASET UNSTRUCTURED_GRID
POINTS 4 float
0 0 100 10 0 110
0 10 120 10 10 130
CELLS 3 6
OFFSETS vtktypeint64
0 3 6
CONNECTIVITY vtktypeint64
0 1 2 1 3 2
CELL_TYPES 2
5
5
`

func TestReadVTK(t *testing.T) {
	for name, src := range map[string]string{"v4": vtkV4, "v5": vtkV5} {
		t.Run(name, func(t *testing.T) {
			m, err := ReadVTK(strings.NewReader(src))
			require.NoError(t, err)
			require.Len(t, m.Vertices, 4)
			assert.Equal(t, Vertex{X: 10, Y: 10, Z: 130}, m.Vertices[3])
			assert.Equal(t, [][3]int{{0, 1, 2}, {1, 3, 2}}, m.Triangles)
		})
	}
}

func TestReadVTKPolydata(t *testing.T) {
	src := `# vtk DataFile Version 3.0
surface
ASCII
DATASET POLYDATA
POINTS 3 float
0 0 1
1 0 2
0 1 3
POLYGONS 1 4
3 0 1 2
`
	m, err := ReadVTK(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, [][3]int{{0, 1, 2}}, m.Triangles)
}

func TestReadVTKErrors(t *testing.T) {
	tests := map[string]string{
		"binary":    "# vtk DataFile Version 4.2\nx\nBINARY\n",
		"header":    "hello\nx\nASCII\n",
		"truncated": "# vtk DataFile Version 4.2\nx\nASCII\nDATASET UNSTRUCTURED_GRID\nPOINTS 2 float\n0 0 0\n",
		"bad index": "# vtk DataFile Version 4.2\nx\nASCII\nDATASET UNSTRUCTURED_GRID\nPOINTS 1 float\n0 0 0\nCELLS 1 4\n3 0 1 2\nCELL_TYPES 1\n5\n",
		"dataset":   "# vtk DataFile Version 4.2\nx\nASCII\nDATASET STRUCTURED_POINTS\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadVTK(strings.NewReader(src))
			assert.Error(t, err)
		})
	}

	_, err := ReadVTK(strings.NewReader(tests["binary"]))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ReadVTK(strings.NewReader(tests["bad index"]))
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.vtk")
	require.NoError(t, os.WriteFile(path, []byte(vtkV4), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Triangles, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.vtk"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInTriangle(t *testing.T) {
	tri := Triangle{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 4}}
	reversed := Triangle{tri[2], tri[1], tri[0]}

	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"inside", orb.Point{1, 1}, true},
		{"vertex", orb.Point{0, 0}, true},
		{"edge", orb.Point{2, 2}, true},
		{"outside", orb.Point{3, 3}, false},
		{"negative", orb.Point{-1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InTriangle(tt.p, tri))
			assert.Equal(t, tt.want, InTriangle(tt.p, reversed))
		})
	}
}

func TestInterpolateAltitude(t *testing.T) {
	tri := Triangle{{X: 0, Y: 0, Z: 100}, {X: 4, Y: 0, Z: 140}, {X: 0, Y: 4, Z: 180}}

	z, err := InterpolateAltitude(orb.Point{0, 0}, tri)
	require.NoError(t, err)
	assert.InDelta(t, 100, z, 1e-9)

	// plane z = 100 + 10x + 20y
	z, err = InterpolateAltitude(orb.Point{1, 2}, tri)
	require.NoError(t, err)
	assert.InDelta(t, 150, z, 1e-9)

	flat := Triangle{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}
	assert.True(t, flat.Degenerate())
	_, err = InterpolateAltitude(orb.Point{1, 1}, flat)
	assert.ErrorIs(t, err, ErrDegenerateTriangle)
}

func gridMesh() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10},
			{X: 20, Y: 0}, {X: 20, Y: 10},
		},
		Triangles: [][3]int{{0, 1, 2}, {1, 3, 2}, {1, 4, 5}, {1, 5, 3}},
	}
}

func TestIndexLocate(t *testing.T) {
	idx := NewIndex(gridMesh())

	i, ok := idx.Locate(orb.Point{2, 2})
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = idx.Locate(orb.Point{8, 8})
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	// shared edge resolves to the lower-numbered triangle
	i, ok = idx.Locate(orb.Point{5, 5})
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = idx.Locate(orb.Point{15, 2})
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = idx.Locate(orb.Point{30, 30})
	assert.False(t, ok)

	assert.Equal(t, []int{0, 1, 2, 3}, idx.Candidates(orb.Point{10, 5}))
}

func TestIndexSkipsDegenerate(t *testing.T) {
	m := &Mesh{
		Vertices:  []Vertex{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 4, Y: 4}, {X: 4, Y: 0}},
		Triangles: [][3]int{{0, 1, 2}, {0, 3, 2}},
	}
	i, ok := NewIndex(m).Locate(orb.Point{2, 2})
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestFlipTransform(t *testing.T) {
	tr := FlipTransform(raster.NorthUp(1000, 2000, 2), 50)

	// mesh origin is the bottom-left corner of the raster
	x, y := tr.Apply(0, 0)
	assert.InDelta(t, 1000, x, 1e-9)
	assert.InDelta(t, 1900, y, 1e-9)

	x, y = tr.Apply(3, 50)
	assert.InDelta(t, 1006, x, 1e-9)
	assert.InDelta(t, 2000, y, 1e-9)

	m := (&Mesh{Vertices: []Vertex{{X: 1, Y: 1, Z: 7}}}).Transformed(tr)
	assert.Equal(t, Vertex{X: 1002, Y: 1902, Z: 7}, m.Vertices[0])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, gridMesh().Validate())
	bad := &Mesh{Vertices: []Vertex{{}}, Triangles: [][3]int{{0, 0, 1}}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidMesh)
}
