package surface

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/mesh"
	"avalanche-planner/pkg/raster"
)

// terrain is the georeferencing of a 10x10 raster with 1m cells whose mesh
// coordinates map onto world coordinates unchanged after the origin flip.
var terrain = raster.NorthUp(0, 10, 1)

const terrainHeight = 10

// squareMesh is two triangles over a 10x10 square. The edge from (10,0) to
// (10,10) rises 8 over 10 and is too steep; (10,10) to (0,10) is exactly at
// the cutoff.
func squareMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Vertices: []mesh.Vertex{
			{X: 0, Y: 0, Z: 0},
			{X: 10, Y: 0, Z: 2},
			{X: 0, Y: 10, Z: 4},
			{X: 10, Y: 10, Z: 10},
		},
		Triangles: [][3]int{{0, 1, 2}, {1, 3, 2}},
	}
}

var (
	startPt = orb.Point{2, 2}
	endPt   = orb.Point{8, 8}
)

func TestMeshSlopeCutoff(t *testing.T) {
	s, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt, endPt}, DefaultMeshOptions())
	require.NoError(t, err)

	steep, ok := s.Edge(orb.Point{10, 0}, orb.Point{10, 10})
	require.True(t, ok)
	assert.Equal(t, 8.0, steep.Rise)
	assert.NotContains(t, s.Neighbors(orb.Point{10, 0}), orb.Point{10, 10})
	assert.NotContains(t, s.Neighbors(orb.Point{10, 10}), orb.Point{10, 0})

	assert.Contains(t, s.Neighbors(orb.Point{10, 10}), orb.Point{0, 10})
}

func TestMeshAdjacencyOrder(t *testing.T) {
	s, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt, endPt}, DefaultMeshOptions())
	require.NoError(t, err)

	assert.Equal(t,
		[]orb.Point{{0, 0}, {0, 10}, startPt},
		s.Neighbors(orb.Point{10, 0}))
	assert.Equal(t,
		[]orb.Point{{0, 0}, {10, 0}, {0, 10}, startPt, {10, 10}, endPt},
		s.Nodes())
}

func TestMeshEndpointInjection(t *testing.T) {
	s, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt, endPt}, DefaultMeshOptions())
	require.NoError(t, err)

	// z = 0.2x + 0.4y on the first triangle
	z, ok := s.Altitude(startPt)
	require.True(t, ok)
	assert.InDelta(t, 1.2, z, 1e-9)

	// z = 0.6x + 0.8y - 4 on the second
	z, ok = s.Altitude(endPt)
	require.True(t, ok)
	assert.InDelta(t, 7.2, z, 1e-9)

	e, ok := s.Edge(startPt, orb.Point{0, 0})
	require.True(t, ok)
	assert.InDelta(t, math.Sqrt(8), e.Distance, 1e-9)
	assert.InDelta(t, -1.2, e.Rise, 1e-9)

	back, ok := s.Edge(orb.Point{0, 0}, startPt)
	require.True(t, ok)
	assert.InDelta(t, 1.2, back.Rise, 1e-9)

	assert.ElementsMatch(t, []orb.Point{{0, 0}, {10, 0}, {0, 10}}, s.Neighbors(startPt))
}

func TestMeshCost(t *testing.T) {
	opts := DefaultMeshOptions()
	opts.UphillCoefficient = 2
	opts.DownhillCoefficient = 3
	s, err := NewMesh(squareMesh(), terrain, terrainHeight, nil, opts)
	require.NoError(t, err)

	assert.InDelta(t, 2+2*0.2, s.Cost(orb.Point{0, 0}, orb.Point{10, 0}), 1e-9)
	assert.InDelta(t, 2+3*0.2, s.Cost(orb.Point{10, 0}, orb.Point{0, 0}), 1e-9)

	def, err := NewMesh(squareMesh(), terrain, terrainHeight, nil, MeshOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2.2, def.Cost(orb.Point{0, 0}, orb.Point{10, 0}), 1e-9)
	assert.InDelta(t, 2.2, def.Cost(orb.Point{10, 0}, orb.Point{0, 0}), 1e-9)

	assert.Panics(t, func() { def.Cost(orb.Point{0, 0}, orb.Point{10, 10}) })
}

func TestMeshOutOfDomain(t *testing.T) {
	_, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt, {20, 20}}, DefaultMeshOptions())
	assert.ErrorIs(t, err, ErrOutOfDomain)
}

func TestMeshDegenerateTriangle(t *testing.T) {
	m := squareMesh()
	m.Vertices = append(m.Vertices, mesh.Vertex{X: 5, Y: 5, Z: 0})
	// collinear triangle listed first, covering the start point
	m.Triangles = append([][3]int{{0, 4, 3}}, m.Triangles...)

	s, err := NewMesh(m, terrain, terrainHeight, []orb.Point{startPt}, DefaultMeshOptions())
	require.NoError(t, err)
	z, ok := s.Altitude(startPt)
	require.True(t, ok)
	assert.InDelta(t, 1.2, z, 1e-9)
}

func TestMeshZeroLengthEdge(t *testing.T) {
	m := &mesh.Mesh{
		Vertices:  []mesh.Vertex{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 0}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	s, err := NewMesh(m, terrain, terrainHeight, nil, DefaultMeshOptions())
	require.NoError(t, err)

	origin := orb.Point{0, 0}
	assert.True(t, math.IsInf(s.Cost(origin, origin), 1))
	assert.NotContains(t, s.Neighbors(origin), origin)
}

func TestMeshSearch(t *testing.T) {
	s, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt, endPt}, DefaultMeshOptions())
	require.NoError(t, err)

	path, res := graph.ShortestPath[orb.Point](s, startPt, endPt, graph.Options[orb.Point]{})
	require.True(t, res.Found)
	assert.Equal(t, startPt, path[0])
	assert.Equal(t, endPt, path[len(path)-1])
	for i := 1; i < len(path); i++ {
		e, ok := s.Edge(path[i-1], path[i])
		require.True(t, ok)
		assert.LessOrEqual(t, math.Abs(e.Rise)/e.Distance, DefaultMaxSlope)
	}
	assertNonNegativeCosts[orb.Point](t, s, startPt)
}

func TestMeshHazardAndProgress(t *testing.T) {
	cats := raster.New(10, 10, 1, terrain)
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			cats.Set(0, row, col, 3)
		}
	}

	var calls [][2]int
	opts := DefaultMeshOptions()
	opts.Hazard = cats
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

	s, err := NewMesh(squareMesh(), terrain, terrainHeight, []orb.Point{startPt}, opts)
	require.NoError(t, err)

	e, ok := s.Edge(orb.Point{0, 0}, orb.Point{0, 10})
	require.True(t, ok)
	assert.True(t, e.HasCategory)
	assert.Equal(t, 3, e.Category)

	// (10,0) lies on the raster's outer edge
	e, ok = s.Edge(orb.Point{0, 0}, orb.Point{10, 0})
	require.True(t, ok)
	assert.False(t, e.HasCategory)

	assert.Equal(t, [][2]int{{2, 2}}, calls)
}
