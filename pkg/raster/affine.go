// Package raster holds georeferenced multi-band rasters, the affine
// transforms that map pixels to world coordinates, and windowed reads over
// them.
package raster

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingular is returned when inverting a transform with a zero determinant.
var ErrSingular = errors.New("raster: singular transform")

// Affine maps pixel (col, row) to world (x, y):
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translation returns a transform shifting by (tx, ty).
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, C: tx, E: 1, F: ty}
}

// Scale returns a transform scaling by (sx, sy).
func Scale(sx, sy float64) Affine {
	return Affine{A: sx, E: sy}
}

// NorthUp returns the transform of a north-up raster whose upper-left corner
// sits at (west, north) with square cells of the given size.
func NorthUp(west, north, size float64) Affine {
	return Affine{A: size, C: west, E: -size, F: north}
}

// Apply maps (col, row) to world coordinates.
func (t Affine) Apply(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// Multiply returns t*o, the transform that applies o first and then t.
func (t Affine) Multiply(o Affine) Affine {
	return Affine{
		A: t.A*o.A + t.B*o.D,
		B: t.A*o.B + t.B*o.E,
		C: t.A*o.C + t.B*o.F + t.C,
		D: t.D*o.A + t.E*o.D,
		E: t.D*o.B + t.E*o.E,
		F: t.D*o.C + t.E*o.F + t.F,
	}
}

// Determinant of the linear part.
func (t Affine) Determinant() float64 {
	return t.A*t.E - t.B*t.D
}

// Inverse returns the transform mapping world coordinates back to pixels.
func (t Affine) Inverse() (Affine, error) {
	det := t.Determinant()
	if det == 0 || math.IsNaN(det) {
		return Affine{}, fmt.Errorf("%w: %+v", ErrSingular, t)
	}
	ia := t.E / det
	ib := -t.B / det
	id := -t.D / det
	ie := t.A / det
	return Affine{
		A: ia, B: ib, C: -t.C*ia - t.F*ib,
		D: id, E: ie, F: -t.C*id - t.F*ie,
	}, nil
}

// RowCol returns the pixel containing world point (x, y). Fractional
// indices are floored, so a point on the shared edge of two cells belongs to
// the cell with the larger index. ok is false for a singular transform.
func (t Affine) RowCol(x, y float64) (row, col int, ok bool) {
	inv, err := t.Inverse()
	if err != nil {
		return 0, 0, false
	}
	fc, fr := inv.Apply(x, y)
	return int(math.Floor(fr)), int(math.Floor(fc)), true
}

// XY returns the world coordinates of the centre of pixel (row, col).
func (t Affine) XY(row, col int) (x, y float64) {
	return t.Apply(float64(col)+0.5, float64(row)+0.5)
}

// CellSize returns the pixel width and height in world units.
func (t Affine) CellSize() (w, h float64) {
	return math.Hypot(t.A, t.D), math.Hypot(t.B, t.E)
}
