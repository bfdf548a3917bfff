package raster

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/paulmach/orb"
)

var (
	// ErrWindow is returned for reads outside the raster or of empty windows.
	ErrWindow = errors.New("raster: window out of bounds")
	// ErrShape is returned when band data does not match the raster size.
	ErrShape = errors.New("raster: band shape mismatch")
)

// Source is a georeferenced raster that can be read window by window.
type Source interface {
	// Size returns the raster dimensions in pixels.
	Size() (height, width int)
	// Bands returns the number of bands.
	Bands() int
	// GeoTransform returns the pixel to world transform.
	GeoTransform() Affine
	// ReadWindow copies the pixels of w into a new in-memory raster whose
	// transform is the window's transform.
	ReadWindow(w Window) (*Raster, error)
}

// Raster is an in-memory multi-band raster of unsigned integer samples.
// Samples are stored band-major.
type Raster struct {
	Width, Height int
	Count         int
	Transform     Affine

	pix []uint16
}

var _ Source = (*Raster)(nil)

// New allocates a zeroed raster.
func New(height, width, bands int, t Affine) *Raster {
	return &Raster{
		Width:     width,
		Height:    height,
		Count:     bands,
		Transform: t,
		pix:       make([]uint16, height*width*bands),
	}
}

// FromBands builds a raster from row-major band arrays, each holding
// height*width samples.
func FromBands(height, width int, t Affine, bands ...[]uint16) (*Raster, error) {
	r := New(height, width, len(bands), t)
	for b, data := range bands {
		if len(data) != height*width {
			return nil, fmt.Errorf("%w: band %d has %d samples, want %d", ErrShape, b, len(data), height*width)
		}
		copy(r.pix[b*height*width:], data)
	}
	return r, nil
}

// InBounds reports whether (row, col) is inside the raster.
func (r *Raster) InBounds(row, col int) bool {
	return row >= 0 && row < r.Height && col >= 0 && col < r.Width
}

// At returns the sample of band b at (row, col).
func (r *Raster) At(b, row, col int) uint16 {
	return r.pix[r.offset(b, row, col)]
}

// Set stores v in band b at (row, col).
func (r *Raster) Set(b, row, col int, v uint16) {
	r.pix[r.offset(b, row, col)] = v
}

func (r *Raster) offset(b, row, col int) int {
	return (b*r.Height+row)*r.Width + col
}

// RGBA returns the first four bands at (row, col) as a colour.
func (r *Raster) RGBA(row, col int) (color.NRGBA, error) {
	if r.Count < 4 {
		return color.NRGBA{}, fmt.Errorf("raster: %d bands, RGBA needs 4", r.Count)
	}
	if !r.InBounds(row, col) {
		return color.NRGBA{}, fmt.Errorf("%w: (%d,%d)", ErrWindow, row, col)
	}
	return color.NRGBA{
		R: uint8(r.At(0, row, col)),
		G: uint8(r.At(1, row, col)),
		B: uint8(r.At(2, row, col)),
		A: uint8(r.At(3, row, col)),
	}, nil
}

// Size implements Source.
func (r *Raster) Size() (height, width int) {
	return r.Height, r.Width
}

// Bands implements Source.
func (r *Raster) Bands() int {
	return r.Count
}

// GeoTransform implements Source.
func (r *Raster) GeoTransform() Affine {
	return r.Transform
}

// ReadWindow implements Source.
func (r *Raster) ReadWindow(w Window) (*Raster, error) {
	if w.Empty() || w.RowOff < 0 || w.ColOff < 0 ||
		w.RowOff+w.Height > r.Height || w.ColOff+w.Width > r.Width {
		return nil, fmt.Errorf("%w: %+v in %dx%d", ErrWindow, w, r.Height, r.Width)
	}

	out := New(w.Height, w.Width, r.Count, w.Transform(r.Transform))
	for b := 0; b < r.Count; b++ {
		for row := 0; row < w.Height; row++ {
			src := r.offset(b, row+w.RowOff, w.ColOff)
			dst := out.offset(b, row, 0)
			copy(out.pix[dst:dst+w.Width], r.pix[src:src+w.Width])
		}
	}
	return out, nil
}

// Bounds returns the world-space bounding box of the raster.
func (r *Raster) Bounds() orb.Bound {
	return Bounds(r)
}

// Bounds returns the world-space bounding box of any source.
func Bounds(s Source) orb.Bound {
	h, w := s.Size()
	t := s.GeoTransform()
	b := orb.Bound{Min: orb.Point{t.C, t.F}, Max: orb.Point{t.C, t.F}}
	for _, c := range [][2]float64{{float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}} {
		x, y := t.Apply(c[0], c[1])
		b = b.Extend(orb.Point{x, y})
	}
	return b
}

// Locate returns the cell containing world point p and whether it lies
// inside s.
func Locate(s Source, p orb.Point) (Cell, bool) {
	row, col, ok := s.GeoTransform().RowCol(p[0], p[1])
	if !ok {
		return Cell{}, false
	}
	h, w := s.Size()
	if row < 0 || row >= h || col < 0 || col >= w {
		return Cell{Row: row, Col: col}, false
	}
	return Cell{Row: row, Col: col}, true
}
