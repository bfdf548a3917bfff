package raster

import "fmt"

// Cell addresses a pixel by row and column.
type Cell struct {
	Row, Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Window is a rectangular sub-region of a raster.
type Window struct {
	RowOff, ColOff int
	Height, Width  int
}

// Empty reports whether the window covers no pixels.
func (w Window) Empty() bool {
	return w.Height <= 0 || w.Width <= 0
}

// Contains reports whether c lies inside the window.
func (w Window) Contains(c Cell) bool {
	return c.Row >= w.RowOff && c.Row < w.RowOff+w.Height &&
		c.Col >= w.ColOff && c.Col < w.ColOff+w.Width
}

// Local converts a global cell to window-relative indices.
func (w Window) Local(c Cell) Cell {
	return Cell{Row: c.Row - w.RowOff, Col: c.Col - w.ColOff}
}

// Global converts window-relative indices to a global cell.
func (w Window) Global(c Cell) Cell {
	return Cell{Row: c.Row + w.RowOff, Col: c.Col + w.ColOff}
}

// Transform returns the georeferencing of the window given the transform t
// of the full raster.
func (w Window) Transform(t Affine) Affine {
	return t.Multiply(Translation(float64(w.ColOff), float64(w.RowOff)))
}

// BoundingWindow returns the smallest window containing a and b, grown by
// border pixels on every side and clamped to a raster of the given size.
func BoundingWindow(a, b Cell, border, height, width int) Window {
	r0 := clamp(min(a.Row, b.Row)-border, 0, height)
	r1 := clamp(max(a.Row, b.Row)+border+1, 0, height)
	c0 := clamp(min(a.Col, b.Col)-border, 0, width)
	c1 := clamp(max(a.Col, b.Col)+border+1, 0, width)
	return Window{RowOff: r0, ColOff: c0, Height: r1 - r0, Width: c1 - c0}
}

// Full returns the window covering a whole raster.
func Full(height, width int) Window {
	return Window{Height: height, Width: width}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
