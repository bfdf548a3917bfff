// Package planner turns projected start and end points into routes over the
// configured cost surfaces.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"avalanche-planner/pkg/config"
	"avalanche-planner/pkg/graph"
	"avalanche-planner/pkg/hazard"
	"avalanche-planner/pkg/raster"
	"avalanche-planner/pkg/surface"
)

// RouteStore persists computed routes.
type RouteStore interface {
	Put(r *Route, key string) error
	Get(id string) (*Route, error)
	Lookup(key string) (*Route, bool, error)
}

// Planner computes routes. It is safe for concurrent use.
type Planner struct {
	data    *Datasets
	cfg     config.Config
	store   RouteStore
	metrics *Metrics
	logger  *slog.Logger

	classifiedOnce sync.Once
	classified     *surface.ClassifiedGrid
	classifiedErr  error
}

// Option configures a Planner.
type Option func(*Planner)

// WithStore persists routes and serves repeated requests from it.
func WithStore(s RouteStore) Option {
	return func(p *Planner) { p.store = s }
}

// WithMetrics records search metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// New returns a planner over data.
func New(data *Datasets, cfg config.Config, logger *slog.Logger, opts ...Option) *Planner {
	p := &Planner{data: data, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if cfg.Windowed.CentralityWeight > 0 {
		logger.Warn("centrality-weighted heuristic enabled, windowed routes may be suboptimal",
			"weight", cfg.Windowed.CentralityWeight)
	}
	return p
}

// Available lists the surfaces whose data is loaded.
func (p *Planner) Available() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if p.data.Available(k) {
			out = append(out, k)
		}
	}
	return out
}

// Route returns a stored route by id.
func (p *Planner) Route(id string) (*Route, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.Get(id)
}

// ComputePath searches for the cheapest route of req. A route that was not
// found is returned with Found false and no error; errors are reserved for
// invalid requests and data failures.
func (p *Planner) ComputePath(ctx context.Context, req Request) (*Route, error) {
	if _, err := ParseKind(string(req.Surface)); err != nil {
		return nil, err
	}
	if !p.data.Available(req.Surface) {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceUnavailable, req.Surface)
	}
	if req.Simplify == 0 {
		req.Simplify = p.cfg.Search.SimplifyTolerance
	}

	key := req.Key()
	if p.store != nil {
		if r, ok, err := p.store.Lookup(key); err != nil {
			p.logger.Warn("route cache lookup failed", "key", key, "error", err)
		} else if ok {
			p.logger.Debug("route served from cache", "id", r.ID)
			return r, nil
		}
	}

	if p.cfg.Search.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Search.Timeout)
		defer cancel()
	}

	started := time.Now()
	logger := p.logger.With("surface", req.Surface)
	logger.Info("computing route", "start", req.Start, "end", req.End)

	var (
		route *Route
		err   error
	)
	switch req.Surface {
	case Classified:
		route, err = p.classifiedRoute(ctx, req, logger)
	case Windowed:
		route, err = p.windowedRoute(ctx, req, logger)
	case Mesh:
		route, err = p.meshRoute(ctx, req, logger)
	}
	if err != nil {
		logger.Error("route failed", "error", err)
		return nil, err
	}

	route.ID = uuid.NewString()
	route.Surface = req.Surface
	route.Start, route.End = req.Start, req.End
	route.Elapsed = time.Since(started)
	route.CreatedAt = started.UTC()
	if req.Simplify > 0 && len(route.Path) > 2 {
		route.Path = simplify.DouglasPeucker(req.Simplify).Simplify(route.Path.Clone()).(orb.LineString)
	}
	p.metrics.observe(route)

	switch {
	case route.Found:
		logger.Info("route found", "id", route.ID, "nodes", route.Nodes, "cost", route.Cost,
			"explored", route.Explored, "elapsed", route.Elapsed)
	case route.Stopped:
		logger.Warn("search stopped before reaching goal", "id", route.ID, "explored", route.Explored,
			"elapsed", route.Elapsed)
	default:
		logger.Warn("no route found", "id", route.ID, "explored", route.Explored)
	}

	if p.store != nil && !route.Stopped {
		if err := p.store.Put(route, key); err != nil {
			logger.Warn("route not stored", "id", route.ID, "error", err)
		}
	}
	return route, nil
}

func (p *Planner) classifiedGrid() (*surface.ClassifiedGrid, error) {
	p.classifiedOnce.Do(func() {
		p.classified, p.classifiedErr = surface.NewClassifiedGrid(p.data.Hazard, hazard.HazardCosts(), p.cfg.Classified.Step)
	})
	return p.classified, p.classifiedErr
}

func (p *Planner) classifiedRoute(ctx context.Context, req Request, logger *slog.Logger) (*Route, error) {
	g, err := p.classifiedGrid()
	if err != nil {
		return nil, err
	}
	start, err := g.Snap(req.Start)
	if err != nil {
		return nil, err
	}
	goal, err := g.SnapTo(start, req.End)
	if err != nil {
		return nil, err
	}

	path, res := runSearch[orb.Point](ctx, g, start, goal, g.Heuristic(p.cfg.Search.HeuristicWeight),
		p.cfg.Search.MaxIterations, logger)

	r := summarize(path, res, goal, func(n orb.Point) orb.Point { return n })
	r.MaxCategory = maxCategory(path, g.Category)
	return r, nil
}

func (p *Planner) windowedRoute(ctx context.Context, req Request, logger *slog.Logger) (*Route, error) {
	src := p.data.Categories
	start, ok := raster.Locate(src, req.Start)
	if !ok {
		return nil, fmt.Errorf("%w: start %v", surface.ErrOutOfDomain, req.Start)
	}
	goal, ok := raster.Locate(src, req.End)
	if !ok {
		return nil, fmt.Errorf("%w: end %v", surface.ErrOutOfDomain, req.End)
	}

	opts := surface.WindowedOptions{
		Border:         p.cfg.Windowed.Border,
		DiagonalFactor: p.cfg.Windowed.DiagonalFactor,
		FullExtent:     p.cfg.Windowed.FullExtent,
		Mask:           p.data.Mask,
		Routes:         p.data.Routes,
	}
	s, err := surface.NewWindowed(src, start, goal, hazard.CompactCosts(), opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("window loaded", "window", s.Window())

	h := s.Heuristic(p.cfg.Search.HeuristicWeight, p.cfg.Windowed.CentralityWeight)
	path, res := runSearch[raster.Cell](ctx, s, start, goal, h, p.cfg.Search.MaxIterations, logger)

	r := summarize(path, res, goal, s.XY)
	r.MaxCategory = maxCategory(path, s.Category)
	return r, nil
}

func (p *Planner) meshRoute(ctx context.Context, req Request, logger *slog.Logger) (*Route, error) {
	terrainHeight, _ := p.data.Terrain.Size()
	opts := surface.MeshOptions{
		MaxSlope:            p.cfg.Mesh.MaxSlope,
		UphillCoefficient:   p.cfg.Mesh.UphillCoefficient,
		DownhillCoefficient: p.cfg.Mesh.DownhillCoefficient,
		Hazard:              p.data.Categories,
		Progress:            req.Progress,
	}
	if opts.Hazard == nil && p.data.Hazard != nil {
		opts.Hazard = p.data.Hazard
	}

	s, err := surface.NewMesh(p.data.Mesh, p.data.Terrain.GeoTransform(), terrainHeight,
		[]orb.Point{req.Start, req.End}, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("mesh graph built", "nodes", s.Len())

	h := surface.Weighted(surface.ManhattanPoint, p.cfg.Search.HeuristicWeight)
	path, res := runSearch[orb.Point](ctx, s, req.Start, req.End, h, p.cfg.Search.MaxIterations, logger)

	r := summarize(path, res, req.End, func(n orb.Point) orb.Point { return n })
	r.MaxCategory = -1
	for i := 1; i < len(path); i++ {
		e, _ := s.Edge(path[i-1], path[i])
		if e.Rise > 0 {
			r.Ascent += e.Rise
		} else {
			r.Descent -= e.Rise
		}
		if e.HasCategory && e.Category > r.MaxCategory {
			r.MaxCategory = e.Category
		}
	}
	return r, nil
}

// runSearch runs A* bounded by the iteration cap and ctx.
func runSearch[N comparable](ctx context.Context, g graph.Graph[N], start, goal N, h graph.Heuristic[N], maxIter int, logger *slog.Logger) ([]N, graph.Result[N]) {
	return graph.ShortestPath(g, start, goal, graph.Options[N]{
		Heuristic:     h,
		MaxIterations: maxIter,
		Interrupt:     func() bool { return ctx.Err() != nil },
		Logger:        logger,
	})
}

// summarize maps a node path to projected coordinates and fills the search
// statistics.
func summarize[N comparable](path []N, res graph.Result[N], goal N, xy func(N) orb.Point) *Route {
	r := &Route{
		Found:       res.Found,
		Stopped:     res.Stopped,
		Explored:    res.Explored,
		Nodes:       len(path),
		MaxCategory: -1,
	}
	if !res.Found {
		return r
	}
	r.Cost = res.CostSoFar[goal]
	r.Path = make(orb.LineString, len(path))
	for i, n := range path {
		r.Path[i] = xy(n)
	}
	r.Length = planar.Length(r.Path)
	if math.IsInf(r.Cost, 0) || math.IsNaN(r.Cost) {
		r.Cost = 0
	}
	return r
}

func maxCategory[N comparable](path []N, category func(N) (int, bool)) int {
	out := -1
	for _, n := range path {
		if c, ok := category(n); ok && c > out {
			out = c
		}
	}
	return out
}
