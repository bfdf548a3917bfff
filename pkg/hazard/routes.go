package hazard

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"avalanche-planner/pkg/raster"
)

// boundsEps pads zero-width boxes so rtreego accepts them.
const boundsEps = 1e-9

type routeEntry struct {
	polygon orb.Polygon
	bbox    rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *routeEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// RouteIndex holds maintained-route polygons (groomed runs, marked
// ski-touring tracks) in an R-tree.
type RouteIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewRouteIndex indexes the given polygons. Empty polygons are ignored.
func NewRouteIndex(polygons []orb.Polygon) *RouteIndex {
	tree := rtreego.NewTree(2, 25, 50)
	n := 0
	for _, p := range polygons {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		rect, err := boundToRect(p.Bound())
		if err != nil {
			continue
		}
		tree.Insert(&routeEntry{polygon: p, bbox: rect})
		n++
	}
	return &RouteIndex{tree: tree, size: n}
}

// Len returns the number of indexed polygons.
func (ri *RouteIndex) Len() int {
	return ri.size
}

// Query returns the polygons whose bounding box intersects b.
func (ri *RouteIndex) Query(b orb.Bound) []orb.Polygon {
	rect, err := boundToRect(b)
	if err != nil {
		return nil
	}
	results := ri.tree.SearchIntersect(rect)
	polygons := make([]orb.Polygon, 0, len(results))
	for _, item := range results {
		polygons = append(polygons, item.(*routeEntry).polygon)
	}
	return polygons
}

// Contains reports whether p lies inside any route polygon.
func (ri *RouteIndex) Contains(p orb.Point) bool {
	for _, poly := range ri.Query(orb.Bound{Min: p, Max: p}) {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}

// Rasterize burns the polygons into a single-band mask of the given size and
// georeferencing. A pixel is set to 1 when its centre lies inside a polygon.
func (ri *RouteIndex) Rasterize(height, width int, t raster.Affine) *raster.Raster {
	mask := raster.New(height, width, 1, t)
	if ri.size == 0 || height == 0 || width == 0 {
		return mask
	}

	for _, poly := range ri.Query(mask.Bounds()) {
		r0, r1, c0, c1, ok := pixelRange(poly.Bound(), t, height, width)
		if !ok {
			continue
		}
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				if mask.At(0, row, col) != 0 {
					continue
				}
				x, y := t.XY(row, col)
				if planar.PolygonContains(poly, orb.Point{x, y}) {
					mask.Set(0, row, col, 1)
				}
			}
		}
	}
	return mask
}

// pixelRange returns the inclusive pixel rectangle covering b, clamped to the
// raster.
func pixelRange(b orb.Bound, t raster.Affine, height, width int) (r0, r1, c0, c1 int, ok bool) {
	r0, c0 = height, width
	r1, c1 = -1, -1
	for _, p := range []orb.Point{b.Min, b.Max, {b.Min[0], b.Max[1]}, {b.Max[0], b.Min[1]}} {
		row, col, valid := t.RowCol(p[0], p[1])
		if !valid {
			return 0, 0, 0, 0, false
		}
		r0, r1 = min(r0, row), max(r1, row)
		c0, c1 = min(c0, col), max(c1, col)
	}
	r0, c0 = max(r0, 0), max(c0, 0)
	r1, c1 = min(r1, height-1), min(c1, width-1)
	return r0, r1, c0, c1, r0 <= r1 && c0 <= c1
}

func boundToRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - boundsEps, b.Min[1] - boundsEps},
		[]float64{b.Max[0] - b.Min[0] + 2*boundsEps, b.Max[1] - b.Min[1] + 2*boundsEps},
	)
}

// ParseRoutes extracts polygons from a GeoJSON feature collection. Features
// of other geometry types are skipped.
func ParseRoutes(data []byte) ([]orb.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("hazard: parse routes: %w", err)
	}

	var polygons []orb.Polygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		}
	}
	return polygons, nil
}

// LoadRoutes reads route polygons from a GeoJSON file, or from every
// *.geojson file when path is a directory.
func LoadRoutes(path string, logger *slog.Logger) (*RouteIndex, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("hazard: routes: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.geojson"))
		if err != nil {
			return nil, err
		}
	}

	var all []orb.Polygon
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("hazard: routes: %w", err)
		}
		polygons, err := ParseRoutes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		logger.Debug("loaded route polygons", "file", filepath.Base(file), "count", len(polygons))
		all = append(all, polygons...)
	}

	kept := RemoveContained(all)
	logger.Info("route polygons loaded", "files", len(files), "polygons", len(kept),
		"contained", len(all)-len(kept))
	return NewRouteIndex(kept), nil
}
