package surface

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/hazard"
	"avalanche-planner/pkg/raster"
)

// ClassifiedGrid is a four-connected lattice over a full RGBA hazard raster.
// Nodes are projected coordinates spaced one step apart.
type ClassifiedGrid struct {
	data   *raster.Raster
	costs  hazard.CostTable
	step   float64
	bounds orb.Bound
}

var _ graph.Graph[orb.Point] = (*ClassifiedGrid)(nil)

// NewClassifiedGrid loads the whole of src. step is the lattice spacing in
// world units; zero selects the raster cell width.
func NewClassifiedGrid(src raster.Source, costs hazard.CostTable, step float64) (*ClassifiedGrid, error) {
	if src.Bands() < 4 {
		return nil, fmt.Errorf("%w: classified grid needs RGBA, got %d bands", ErrBands, src.Bands())
	}
	h, w := src.Size()
	data, err := src.ReadWindow(raster.Full(h, w))
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		step, _ = data.Transform.CellSize()
	}
	return &ClassifiedGrid{
		data:   data,
		costs:  costs,
		step:   step,
		bounds: data.Bounds(),
	}, nil
}

// Step returns the lattice spacing.
func (g *ClassifiedGrid) Step() float64 {
	return g.step
}

// Bounds returns the covered area.
func (g *ClassifiedGrid) Bounds() orb.Bound {
	return g.bounds
}

// Neighbors returns the in-bounds east, west, north and south lattice
// points, in reverse order when (x+y)/step rounds to an even number. The
// parity flips with every step, so the order alternates like a checkerboard.
func (g *ClassifiedGrid) Neighbors(p orb.Point) []orb.Point {
	x, y, s := p[0], p[1], g.step
	candidates := [4]orb.Point{{x + s, y}, {x - s, y}, {x, y - s}, {x, y + s}}
	if math.Mod(math.Floor((x+y)/s+0.5), 2) == 0 {
		candidates[0], candidates[1], candidates[2], candidates[3] = candidates[3], candidates[2], candidates[1], candidates[0]
	}

	out := make([]orb.Point, 0, 4)
	for _, c := range candidates {
		if g.bounds.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Cost is the table cost of to's category, or +Inf when to cannot be
// classified.
func (g *ClassifiedGrid) Cost(_, to orb.Point) float64 {
	cat, ok := g.Category(to)
	if !ok {
		return math.Inf(1)
	}
	c, ok := g.costs.Cost(cat)
	if !ok {
		return math.Inf(1)
	}
	return c
}

// Category classifies the pixel under p to the nearest palette entry.
func (g *ClassifiedGrid) Category(p orb.Point) (int, bool) {
	row, col, ok := g.data.Transform.RowCol(p[0], p[1])
	if !ok {
		return 0, false
	}
	return categoryAt(g.data, row, col)
}

// Heuristic returns weight times the Manhattan distance in lattice steps.
// With unit weight it never exceeds the cost of a path when every category
// costs at least 1.
func (g *ClassifiedGrid) Heuristic(weight float64) graph.Heuristic[orb.Point] {
	return Weighted(func(a, b orb.Point) float64 {
		return ManhattanPoint(a, b) / g.step
	}, weight)
}

// Snap moves p to the centre of the pixel containing it.
func (g *ClassifiedGrid) Snap(p orb.Point) (orb.Point, error) {
	row, col, ok := g.data.Transform.RowCol(p[0], p[1])
	if !ok || !g.data.InBounds(row, col) {
		return p, fmt.Errorf("%w: %v", ErrOutOfDomain, p)
	}
	x, y := g.data.Transform.XY(row, col)
	return orb.Point{x, y}, nil
}

// SnapTo moves p to the nearest lattice point reachable from origin. When
// rounding lands outside the raster the point is pulled one step back
// towards origin on the offending axis.
func (g *ClassifiedGrid) SnapTo(origin, p orb.Point) (orb.Point, error) {
	if !g.inRaster(p) {
		return p, fmt.Errorf("%w: %v", ErrOutOfDomain, p)
	}
	var k, back [2]float64
	for i := range k {
		k[i] = math.Round((p[i] - origin[i]) / g.step)
		back[i] = k[i]
		switch {
		case k[i] > 0:
			back[i]--
		case k[i] < 0:
			back[i]++
		}
	}
	for _, c := range [4][2]float64{{k[0], k[1]}, {back[0], k[1]}, {k[0], back[1]}, {back[0], back[1]}} {
		q := orb.Point{origin[0] + c[0]*g.step, origin[1] + c[1]*g.step}
		if g.inRaster(q) {
			return q, nil
		}
	}
	return p, fmt.Errorf("%w: no lattice point near %v", ErrOutOfDomain, p)
}

func (g *ClassifiedGrid) inRaster(p orb.Point) bool {
	row, col, ok := g.data.Transform.RowCol(p[0], p[1])
	return ok && g.data.InBounds(row, col)
}
