package surface

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/mesh"
	"avalanche-planner/pkg/raster"
)

// DefaultMaxSlope is the steepest traversable rise over run.
const DefaultMaxSlope = 0.6

// MeshOptions configures NewMesh.
type MeshOptions struct {
	// MaxSlope prunes edges whose |rise|/distance exceeds it. Zero means
	// DefaultMaxSlope.
	MaxSlope float64
	// UphillCoefficient and DownhillCoefficient scale the slope term of
	// climbing and descending edges. Zero means 1.
	UphillCoefficient   float64
	DownhillCoefficient float64
	// Hazard is an optional category raster sampled at each edge's
	// destination and kept as edge metadata.
	Hazard raster.Source
	// Progress is called as triangles are processed.
	Progress func(done, total int)
}

// DefaultMeshOptions returns the standard mesh settings.
func DefaultMeshOptions() MeshOptions {
	return MeshOptions{
		MaxSlope:            DefaultMaxSlope,
		UphillCoefficient:   1,
		DownhillCoefficient: 1,
	}
}

// MeshEdge is a directed edge of the mesh graph. Rise is the altitude of
// the destination minus the altitude of the source.
type MeshEdge struct {
	To          orb.Point
	Distance    float64
	Rise        float64
	Category    int
	HasCategory bool
}

// Mesh is the graph of a triangulated elevation mesh with injected endpoint
// nodes. Nodes are projected vertex positions.
type Mesh struct {
	adj      map[orb.Point][]MeshEdge
	pos      map[orb.Point]map[orb.Point]int
	altitude map[orb.Point]float64
	nodes    []orb.Point

	hazard *raster.Raster
	opts   MeshOptions
}

var _ graph.Graph[orb.Point] = (*Mesh)(nil)

// progressEvery is the triangle interval between progress callbacks.
const progressEvery = 1000

// NewMesh builds the graph of m. transform is the georeferencing of the
// terrain raster the mesh was generated from and height its row count; mesh
// vertices use a bottom-left origin. Every endpoint, given in projected
// coordinates, is connected to the corners of the triangle containing it.
func NewMesh(m *mesh.Mesh, transform raster.Affine, height int, endpoints []orb.Point, opts MeshOptions) (*Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxSlope == 0 {
		opts.MaxSlope = DefaultMaxSlope
	}
	if opts.UphillCoefficient == 0 {
		opts.UphillCoefficient = 1
	}
	if opts.DownhillCoefficient == 0 {
		opts.DownhillCoefficient = 1
	}

	world := m.Transformed(mesh.FlipTransform(transform, height))

	idx := mesh.NewIndex(world)
	injected := make(map[int][]orb.Point)
	for _, p := range endpoints {
		tri, ok := idx.Locate(p)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not inside the mesh", ErrOutOfDomain, p)
		}
		injected[tri] = append(injected[tri], p)
	}

	s := &Mesh{
		adj:      make(map[orb.Point][]MeshEdge),
		pos:      make(map[orb.Point]map[orb.Point]int),
		altitude: make(map[orb.Point]float64),
		opts:     opts,
	}
	if opts.Hazard != nil {
		h, w := opts.Hazard.Size()
		data, err := opts.Hazard.ReadWindow(raster.Full(h, w))
		if err != nil {
			return nil, err
		}
		s.hazard = data
	}

	total := len(world.Triangles)
	for i := range world.Triangles {
		t := world.Triangle(i)
		for k := 0; k < 3; k++ {
			p1, p2 := t[k], t[(k+1)%3]
			a, b := p1.XY(), p2.XY()
			d := math.Hypot(b[0]-a[0], b[1]-a[1])
			s.setAltitude(a, p1.Z)
			s.setAltitude(b, p2.Z)
			s.addEdge(a, b, d, p2.Z-p1.Z)
			s.addEdge(b, a, d, p1.Z-p2.Z)
		}

		for _, p := range injected[i] {
			z, err := mesh.InterpolateAltitude(p, t)
			if err != nil {
				return nil, fmt.Errorf("surface: endpoint %v: %w", p, err)
			}
			s.setAltitude(p, z)
			for _, v := range t {
				q := v.XY()
				if q == p {
					continue
				}
				d := math.Hypot(q[0]-p[0], q[1]-p[1])
				s.addEdge(p, q, d, v.Z-z)
				s.addEdge(q, p, d, z-v.Z)
			}
		}

		if opts.Progress != nil && ((i+1)%progressEvery == 0 || i+1 == total) {
			opts.Progress(i+1, total)
		}
	}
	return s, nil
}

func (s *Mesh) setAltitude(p orb.Point, z float64) {
	if _, ok := s.altitude[p]; !ok {
		s.nodes = append(s.nodes, p)
	}
	s.altitude[p] = z
}

// addEdge inserts or replaces the edge from a to b. A replaced edge keeps
// its position in a's adjacency list.
func (s *Mesh) addEdge(a, b orb.Point, dist, rise float64) {
	e := MeshEdge{To: b, Distance: dist, Rise: rise}
	e.Category, e.HasCategory = s.categoryAt(b)

	idx, ok := s.pos[a]
	if !ok {
		idx = make(map[orb.Point]int)
		s.pos[a] = idx
	}
	if i, ok := idx[b]; ok {
		s.adj[a][i] = e
		return
	}
	idx[b] = len(s.adj[a])
	s.adj[a] = append(s.adj[a], e)
}

func (s *Mesh) categoryAt(p orb.Point) (int, bool) {
	if s.hazard == nil {
		return 0, false
	}
	row, col, ok := s.hazard.Transform.RowCol(p[0], p[1])
	if !ok {
		return 0, false
	}
	return categoryAt(s.hazard, row, col)
}

// Neighbors returns the adjacent nodes reachable within the slope cutoff.
// Zero-length edges are skipped.
func (s *Mesh) Neighbors(n orb.Point) []orb.Point {
	edges := s.adj[n]
	out := make([]orb.Point, 0, len(edges))
	for _, e := range edges {
		if e.Distance == 0 {
			continue
		}
		if math.Abs(e.Rise)/e.Distance > s.opts.MaxSlope {
			continue
		}
		out = append(out, e.To)
	}
	return out
}

// Cost is |rise| plus the slope scaled by the uphill or downhill
// coefficient. It panics when from and to are not adjacent.
func (s *Mesh) Cost(from, to orb.Point) float64 {
	e, ok := s.Edge(from, to)
	if !ok {
		panic(fmt.Sprintf("surface: cost of non-adjacent nodes %v -> %v", from, to))
	}
	if e.Distance == 0 {
		return math.Inf(1)
	}
	slope := math.Abs(e.Rise) / e.Distance
	coef := s.opts.DownhillCoefficient
	if e.Rise > 0 {
		coef = s.opts.UphillCoefficient
	}
	return math.Abs(e.Rise) + coef*slope
}

// Edge returns the edge from a to b regardless of slope.
func (s *Mesh) Edge(from, to orb.Point) (MeshEdge, bool) {
	i, ok := s.pos[from][to]
	if !ok {
		return MeshEdge{}, false
	}
	return s.adj[from][i], true
}

// Altitude returns the altitude of node n.
func (s *Mesh) Altitude(n orb.Point) (float64, bool) {
	z, ok := s.altitude[n]
	return z, ok
}

// Nodes returns the nodes in insertion order.
func (s *Mesh) Nodes() []orb.Point {
	return s.nodes
}

// Len returns the number of nodes.
func (s *Mesh) Len() int {
	return len(s.nodes)
}
