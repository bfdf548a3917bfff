package surface

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/hazard"
	"avalanche-planner/pkg/raster"
)

const (
	// DefaultBorder is the padding in cells around the endpoint box.
	DefaultBorder = 100
	// DefaultDiagonalFactor scales the cost of diagonal moves.
	DefaultDiagonalFactor = 1.14
)

// WindowedOptions configures NewWindowed.
type WindowedOptions struct {
	// Border pads the endpoint bounding box. Negative means DefaultBorder.
	Border int
	// DiagonalFactor multiplies diagonal move costs. Zero means
	// DefaultDiagonalFactor.
	DiagonalFactor float64
	// FullExtent reads the whole raster instead of a window.
	FullExtent bool
	// Mask is an optional binary raster with the same geometry as the
	// category raster. Set pixels take the route class of the cost table.
	Mask raster.Source
	// Routes are optional route polygons burnt into the window as a mask.
	Routes *hazard.RouteIndex
}

// DefaultWindowedOptions returns the standard window settings.
func DefaultWindowedOptions() WindowedOptions {
	return WindowedOptions{Border: DefaultBorder, DiagonalFactor: DefaultDiagonalFactor}
}

// Windowed is an eight-connected grid over a window of a category raster.
// Single-band rasters hold the category index; RGBA rasters are classified
// against the hazard palette. Nodes are cells in the pixel space of the full
// raster.
type Windowed struct {
	window    raster.Window
	transform raster.Affine
	diagonal  float64
	cats      []uint16
	costs     []float64
}

var _ graph.Graph[raster.Cell] = (*Windowed)(nil)

// NewWindowed reads the window around start and end from src, applies the
// mask and builds the combined cost grid.
func NewWindowed(src raster.Source, start, end raster.Cell, costs hazard.CostTable, opts WindowedOptions) (*Windowed, error) {
	if b := src.Bands(); b != 1 && b < 4 {
		return nil, fmt.Errorf("%w: category raster needs 1 or 4 bands, got %d", ErrBands, b)
	}
	if opts.Border < 0 {
		opts.Border = DefaultBorder
	}
	if opts.DiagonalFactor == 0 {
		opts.DiagonalFactor = DefaultDiagonalFactor
	}

	h, w := src.Size()
	win := raster.BoundingWindow(start, end, opts.Border, h, w)
	if opts.FullExtent {
		win = raster.Full(h, w)
	}
	if win.Empty() {
		return nil, fmt.Errorf("%w: %v to %v in %dx%d raster", ErrOutOfDomain, start, end, h, w)
	}

	data, err := src.ReadWindow(win)
	if err != nil {
		return nil, err
	}

	var masks []*raster.Raster
	if opts.Mask != nil {
		if !sameGeometry(src, opts.Mask) {
			return nil, ErrMaskMismatch
		}
		m, err := opts.Mask.ReadWindow(win)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	if opts.Routes != nil && opts.Routes.Len() > 0 {
		masks = append(masks, opts.Routes.Rasterize(win.Height, win.Width, data.Transform))
	}
	route, hasRoute := costs.RouteClass()
	if len(masks) > 0 && !hasRoute {
		return nil, ErrNoRouteClass
	}

	s := &Windowed{
		window:    win,
		transform: src.GeoTransform(),
		diagonal:  opts.DiagonalFactor,
		cats:      make([]uint16, win.Height*win.Width),
		costs:     make([]float64, win.Height*win.Width),
	}
	for row := 0; row < win.Height; row++ {
		for col := 0; col < win.Width; col++ {
			cat, known := categoryAt(data, row, col)
			for _, m := range masks {
				if m.At(0, row, col) != 0 {
					cat, known = route, true
					break
				}
			}
			c, ok := costs.Cost(cat)
			if !known || !ok {
				c = math.Inf(1)
			}
			i := row*win.Width + col
			s.cats[i] = uint16(cat)
			s.costs[i] = c
		}
	}
	return s, nil
}

// Window returns the loaded window.
func (s *Windowed) Window() raster.Window {
	return s.window
}

// Neighbors returns the eight surrounding cells inside the window, in
// reverse order when row+col is even.
func (s *Windowed) Neighbors(c raster.Cell) []raster.Cell {
	r, k := c.Row, c.Col
	candidates := [8]raster.Cell{
		{Row: r + 1, Col: k}, {Row: r - 1, Col: k}, {Row: r, Col: k - 1}, {Row: r, Col: k + 1},
		{Row: r + 1, Col: k + 1}, {Row: r + 1, Col: k - 1}, {Row: r - 1, Col: k - 1}, {Row: r - 1, Col: k + 1},
	}
	if (r+k)%2 == 0 {
		for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		}
	}

	out := make([]raster.Cell, 0, 8)
	for _, n := range candidates {
		if s.window.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Cost is the cost grid value at to, scaled by the diagonal factor for
// diagonal moves. Cells outside the window cost +Inf.
func (s *Windowed) Cost(from, to raster.Cell) float64 {
	if !s.window.Contains(to) {
		return math.Inf(1)
	}
	l := s.window.Local(to)
	c := s.costs[l.Row*s.window.Width+l.Col]
	if from.Row != to.Row && from.Col != to.Col {
		c *= s.diagonal
	}
	return c
}

// Category returns the effective category of c after the mask override.
func (s *Windowed) Category(c raster.Cell) (int, bool) {
	if !s.window.Contains(c) {
		return 0, false
	}
	l := s.window.Local(c)
	return int(s.cats[l.Row*s.window.Width+l.Col]), true
}

// XY returns the projected centre of c.
func (s *Windowed) XY(c raster.Cell) orb.Point {
	x, y := s.transform.XY(c.Row, c.Col)
	return orb.Point{x, y}
}

// Centrality is 1 at the window centre and falls off linearly with the
// Manhattan distance from it, reaching 0 at the corners.
func (s *Windowed) Centrality(c raster.Cell) float64 {
	l := s.window.Local(c)
	cr, cc := float64(s.window.Height)/2, float64(s.window.Width)/2
	return 1 - (math.Abs(float64(l.Row)-cr)+math.Abs(float64(l.Col)-cc))/(cr+cc)
}

// Heuristic returns weight times the Manhattan distance in cells. A positive
// centralityWeight subtracts the scaled centrality of the node, which biases
// the search towards the window centre but is not admissible.
func (s *Windowed) Heuristic(weight, centralityWeight float64) graph.Heuristic[raster.Cell] {
	base := Weighted(ManhattanCell, weight)
	if centralityWeight <= 0 {
		return base
	}
	return func(n, goal raster.Cell) float64 {
		return base(n, goal) - centralityWeight*s.Centrality(n)
	}
}
