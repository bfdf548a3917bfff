// Package surface implements the cost surfaces searched by the planner: a
// classified hazard grid in projected coordinates, a windowed category
// raster in pixel space and a slope-costed elevation mesh.
//
// Surfaces load all their data at construction time and are read-only
// afterwards, so a built surface may be shared between concurrent searches.
package surface

import (
	"errors"

	"avalanche-planner/pkg/hazard"
	"avalanche-planner/pkg/raster"
)

var (
	// ErrOutOfDomain is returned when a requested coordinate lies outside the
	// data a surface is built from.
	ErrOutOfDomain = errors.New("surface: coordinate outside coverage")
	// ErrMaskMismatch is returned when a mask raster does not share the
	// geometry of the category raster.
	ErrMaskMismatch = errors.New("surface: mask geometry mismatch")
	// ErrBands is returned when a raster has too few bands for the surface.
	ErrBands = errors.New("surface: unexpected band count")
	// ErrNoRouteClass is returned when a mask is supplied with a cost table
	// lacking a maintained-route class.
	ErrNoRouteClass = errors.New("surface: cost table has no route class")
)

// categoryAt classifies the pixel at (row, col). Four-band rasters are
// matched against the hazard palette, single-band rasters hold the category
// index directly.
func categoryAt(r *raster.Raster, row, col int) (int, bool) {
	if !r.InBounds(row, col) {
		return 0, false
	}
	if r.Count >= 4 {
		c, err := r.RGBA(row, col)
		if err != nil {
			return 0, false
		}
		return hazard.Classify(c), true
	}
	if r.Count == 0 {
		return 0, false
	}
	return int(r.At(0, row, col)), true
}

func sameGeometry(a, b raster.Source) bool {
	ah, aw := a.Size()
	bh, bw := b.Size()
	return ah == bh && aw == bw && a.GeoTransform() == b.GeoTransform()
}
