package raster

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineRoundTrip(t *testing.T) {
	tr := NorthUp(600000, 200000, 10)

	x, y := tr.XY(3, 7)
	assert.InDelta(t, 600075, x, 1e-9)
	assert.InDelta(t, 199965, y, 1e-9)

	row, col, ok := tr.RowCol(x, y)
	require.True(t, ok)
	assert.Equal(t, 3, row)
	assert.Equal(t, 7, col)

	// the upper-left corner belongs to pixel (0,0)
	row, col, ok = tr.RowCol(600000, 200000)
	require.True(t, ok)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	inv, err := tr.Inverse()
	require.NoError(t, err)
	id := tr.Multiply(inv)
	assert.InDelta(t, 1, id.A, 1e-12)
	assert.InDelta(t, 1, id.E, 1e-12)
	assert.InDelta(t, 0, id.C, 1e-6)
	assert.InDelta(t, 0, id.F, 1e-6)
}

func TestAffineSingular(t *testing.T) {
	_, err := Affine{A: 1, B: 2, D: 2, E: 4}.Inverse()
	assert.ErrorIs(t, err, ErrSingular)

	_, _, ok := Affine{}.RowCol(1, 1)
	assert.False(t, ok)
}

func TestBoundingWindow(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Cell
		border int
		want   Window
	}{
		{"interior", Cell{10, 10}, Cell{20, 15}, 2, Window{RowOff: 8, ColOff: 8, Height: 15, Width: 10}},
		{"clamped", Cell{1, 1}, Cell{48, 2}, 100, Window{RowOff: 0, ColOff: 0, Height: 50, Width: 40}},
		{"single cell", Cell{5, 5}, Cell{5, 5}, 0, Window{RowOff: 5, ColOff: 5, Height: 1, Width: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := BoundingWindow(tt.a, tt.b, tt.border, 50, 40)
			assert.Equal(t, tt.want, w)
			assert.True(t, w.Contains(tt.a))
			assert.True(t, w.Contains(tt.b))
		})
	}
}

func TestBoundingWindowOutside(t *testing.T) {
	w := BoundingWindow(Cell{-20, -20}, Cell{-10, -10}, 2, 50, 40)
	assert.True(t, w.Empty())

	r := New(50, 40, 1, Identity())
	_, err := r.ReadWindow(w)
	assert.ErrorIs(t, err, ErrWindow)
}

func TestReadWindow(t *testing.T) {
	band := make([]uint16, 4*5)
	for i := range band {
		band[i] = uint16(i)
	}
	r, err := FromBands(4, 5, NorthUp(100, 200, 2), band)
	require.NoError(t, err)

	w := Window{RowOff: 1, ColOff: 2, Height: 2, Width: 3}
	sub, err := r.ReadWindow(w)
	require.NoError(t, err)

	assert.Equal(t, 2, sub.Height)
	assert.Equal(t, 3, sub.Width)
	assert.Equal(t, uint16(7), sub.At(0, 0, 0))
	assert.Equal(t, uint16(14), sub.At(0, 1, 2))

	// pixel centres agree between the window and the full raster
	x0, y0 := r.Transform.XY(2, 4)
	x1, y1 := sub.Transform.XY(1, 2)
	assert.InDelta(t, x0, x1, 1e-9)
	assert.InDelta(t, y0, y1, 1e-9)

	// windows are copies
	sub.Set(0, 0, 0, 99)
	assert.Equal(t, uint16(7), r.At(0, 1, 2))

	_, err = r.ReadWindow(Window{RowOff: 3, ColOff: 0, Height: 2, Width: 1})
	assert.ErrorIs(t, err, ErrWindow)
}

func TestFromBandsShape(t *testing.T) {
	_, err := FromBands(2, 2, Identity(), []uint16{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)
}

func TestBoundsAndLocate(t *testing.T) {
	r := New(4, 5, 1, NorthUp(100, 200, 2))
	b := r.Bounds()
	assert.Equal(t, orb.Point{100, 192}, b.Min)
	assert.Equal(t, orb.Point{110, 200}, b.Max)

	c, ok := Locate(r, orb.Point{103, 197})
	assert.True(t, ok)
	assert.Equal(t, Cell{Row: 1, Col: 1}, c)

	_, ok = Locate(r, orb.Point{99, 197})
	assert.False(t, ok)
}

func TestParseWorldFile(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("10\n0\n0\n-10\n600005\n199995\n"))
	tr, err := ParseWorldFile(sc)
	require.NoError(t, err)
	assert.Equal(t, NorthUp(600000, 200000, 10), tr)

	_, err = ParseWorldFile(bufio.NewScanner(strings.NewReader("1\n2\n")))
	assert.ErrorIs(t, err, ErrWorldFile)

	_, err = ParseWorldFile(bufio.NewScanner(strings.NewReader("1\n0\n0\nx\n0\n0\n")))
	assert.ErrorIs(t, err, ErrWorldFile)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestOpenPNG(t *testing.T) {
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(2, 1, color.NRGBA{R: 220, G: 43, B: 43, A: 192})
	path := filepath.Join(dir, "hazard.png")
	writePNG(t, path, img)

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNoTransform)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hazard.pgw"),
		[]byte("10\n0\n0\n-10\n600005\n199995\n"), 0o644))

	ds, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Bands())
	h, w := ds.Size()
	assert.Equal(t, 2, h)
	assert.Equal(t, 3, w)
	assert.Equal(t, NorthUp(600000, 200000, 10), ds.GeoTransform())

	c, err := ds.RGBA(1, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 220, G: 43, B: 43, A: 192}, c)
}

func TestOpenGrayPNG(t *testing.T) {
	dir := t.TempDir()

	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 0, color.Gray{Y: 7})
	path := filepath.Join(dir, "classes.png")
	writePNG(t, path, img)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classes.wld"),
		[]byte("1\n0\n0\n-1\n0.5\n1.5\n"), 0o644))

	ds, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Bands())
	assert.Equal(t, uint16(7), ds.At(0, 0, 1))
	assert.Equal(t, uint16(0), ds.At(0, 1, 1))
}
