package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/tiff"
)

var (
	// ErrNoTransform is returned when no world file accompanies an image.
	ErrNoTransform = errors.New("raster: no georeferencing world file")
	// ErrWorldFile is returned for malformed world files.
	ErrWorldFile = errors.New("raster: malformed world file")
)

// Dataset is a georeferenced image decoded from disk.
type Dataset struct {
	*Raster
	Path string
}

// Open decodes a PNG or TIFF image and georeferences it with its world file
// sidecar (.tfw, .pgw, .wld and their four-letter variants). Single-channel
// images load as one band; everything else loads as four RGBA bands.
func Open(path string) (*Dataset, error) {
	t, err := readWorldFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w", path, err)
	}
	return &Dataset{Raster: FromImage(img, t), Path: path}, nil
}

// FromImage converts a decoded image to a raster with transform t.
func FromImage(img image.Image, t Affine) *Raster {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()

	switch src := img.(type) {
	case *image.Gray:
		r := New(h, w, 1, t)
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				r.Set(0, row, col, uint16(src.GrayAt(b.Min.X+col, b.Min.Y+row).Y))
			}
		}
		return r
	case *image.Gray16:
		r := New(h, w, 1, t)
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				r.Set(0, row, col, src.Gray16At(b.Min.X+col, b.Min.Y+row).Y)
			}
		}
		return r
	}

	r := New(h, w, 4, t)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+col, b.Min.Y+row)).(color.NRGBA)
			r.Set(0, row, col, uint16(c.R))
			r.Set(1, row, col, uint16(c.G))
			r.Set(2, row, col, uint16(c.B))
			r.Set(3, row, col, uint16(c.A))
		}
	}
	return r
}

func worldFileCandidates(path string) []string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	lower := strings.ToLower(ext)

	var out []string
	if len(lower) >= 4 {
		// .tif -> .tfw, .png -> .pgw
		out = append(out, base+lower[:2]+lower[len(lower)-1:]+"w")
	}
	if lower != "" {
		out = append(out, base+lower+"w")
	}
	return append(out, base+".wld")
}

func readWorldFile(path string) (Affine, error) {
	for _, candidate := range worldFileCandidates(path) {
		f, err := os.Open(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Affine{}, fmt.Errorf("raster: open %s: %w", candidate, err)
		}
		defer f.Close()
		t, err := ParseWorldFile(bufio.NewScanner(f))
		if err != nil {
			return Affine{}, fmt.Errorf("%s: %w", candidate, err)
		}
		return t, nil
	}
	return Affine{}, fmt.Errorf("%w for %s", ErrNoTransform, path)
}

// ParseWorldFile reads the six world file lines (A, D, B, E, C, F) and
// returns the corner-based transform. World files reference the centre of
// the upper-left pixel.
func ParseWorldFile(sc *bufio.Scanner) (Affine, error) {
	var v []float64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Affine{}, fmt.Errorf("%w: %q", ErrWorldFile, line)
		}
		v = append(v, f)
	}
	if err := sc.Err(); err != nil {
		return Affine{}, err
	}
	if len(v) != 6 {
		return Affine{}, fmt.Errorf("%w: %d values, want 6", ErrWorldFile, len(v))
	}

	a, d, b, e, c, f := v[0], v[1], v[2], v[3], v[4], v[5]
	return Affine{
		A: a, B: b, C: c - a/2 - b/2,
		D: d, E: e, F: f - d/2 - e/2,
	}, nil
}
