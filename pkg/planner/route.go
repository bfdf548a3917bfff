package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrUnknownSurface is returned for a surface kind the planner does not
	// implement.
	ErrUnknownSurface = errors.New("planner: unknown surface")
	// ErrSurfaceUnavailable is returned when the data a surface needs was not
	// configured.
	ErrSurfaceUnavailable = errors.New("planner: surface data not loaded")
	// ErrNoStore is returned when stored routes are requested from a planner
	// without a route store.
	ErrNoStore = errors.New("planner: no route store configured")
)

// Kind names a cost surface.
type Kind string

const (
	Classified Kind = "classified"
	Windowed   Kind = "windowed"
	Mesh       Kind = "mesh"
)

// Kinds lists every surface kind.
var Kinds = []Kind{Classified, Windowed, Mesh}

// ParseKind validates a surface name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSurface, s)
}

// Request asks for a route between two projected points.
type Request struct {
	Surface Kind
	Start   orb.Point
	End     orb.Point
	// Simplify is the Douglas-Peucker tolerance in metres applied to the
	// returned path. Zero uses the configured default.
	Simplify float64
	// Progress receives mesh construction progress.
	Progress func(done, total int)
}

// Key identifies equivalent requests for the route cache.
func (r Request) Key() string {
	return fmt.Sprintf("%s|%.3f,%.3f|%.3f,%.3f|%g",
		r.Surface, r.Start[0], r.Start[1], r.End[0], r.End[1], r.Simplify)
}

// Route is a computed route and its summary.
type Route struct {
	ID      string         `json:"id"`
	Surface Kind           `json:"surface"`
	Found   bool           `json:"found"`
	Stopped bool           `json:"stopped,omitempty"`
	Start   orb.Point      `json:"start"`
	End     orb.Point      `json:"end"`
	Path    orb.LineString `json:"path"`
	// Nodes is the node count of the unsimplified path.
	Nodes int `json:"nodes"`
	// Cost is the accumulated search cost, zero when no route was found.
	Cost float64 `json:"cost"`
	// Length is the planar length of the unsimplified path in metres.
	Length   float64 `json:"length"`
	Explored int     `json:"explored"`
	// Ascent and Descent are the summed altitude gains and losses along a
	// mesh route.
	Ascent  float64 `json:"ascent,omitempty"`
	Descent float64 `json:"descent,omitempty"`
	// MaxCategory is the most dangerous hazard category crossed, or -1.
	MaxCategory int           `json:"max_category"`
	Elapsed     time.Duration `json:"elapsed"`
	CreatedAt   time.Time     `json:"created_at"`
}

// FeatureCollection renders r as GeoJSON: the path, when found, followed by
// the start and end points.
func (r *Route) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(r.Path) > 0 {
		f := geojson.NewFeature(r.Path)
		f.ID = r.ID
		f.Properties["surface"] = string(r.Surface)
		f.Properties["cost"] = r.Cost
		f.Properties["length"] = r.Length
		f.Properties["nodes"] = r.Nodes
		f.Properties["max_category"] = r.MaxCategory
		if r.Surface == Mesh {
			f.Properties["ascent"] = r.Ascent
			f.Properties["descent"] = r.Descent
		}
		fc.Append(f)
	}
	start := geojson.NewFeature(r.Start)
	start.Properties["role"] = "start"
	end := geojson.NewFeature(r.End)
	end.Properties["role"] = "end"
	fc.Append(start)
	fc.Append(end)
	return fc
}
