package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrFormat is returned for VTK input this reader does not understand.
var ErrFormat = errors.New("mesh: unsupported vtk format")

const vtkTriangle = 5

// Load reads a legacy VTK file from disk.
func Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ReadVTK(f)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", path, err)
	}
	return m, nil
}

// ReadVTK parses a legacy ASCII VTK file holding an unstructured grid or
// polydata. Both the version 4 cell layout and the version 5 offsets and
// connectivity layout are accepted. Only triangle cells are kept. Point and
// cell attribute sections are ignored.
func ReadVTK(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)

	header, err := readLine(br)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.ToLower(header), "# vtk datafile") {
		return nil, fmt.Errorf("%w: bad header %q", ErrFormat, header)
	}
	if _, err := readLine(br); err != nil { // title
		return nil, err
	}
	encoding, err := readLine(br)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(encoding), "ASCII") {
		return nil, fmt.Errorf("%w: %s encoding", ErrFormat, strings.TrimSpace(encoding))
	}

	tok := newTokenizer(br)
	var (
		m         Mesh
		cells     [][]int
		cellTypes []int
		polydata  bool
	)

loop:
	for {
		word, err := tok.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(word) {
		case "DATASET":
			kind, err := tok.next()
			if err != nil {
				return nil, err
			}
			switch strings.ToUpper(kind) {
			case "UNSTRUCTURED_GRID":
			case "POLYDATA":
				polydata = true
			default:
				return nil, fmt.Errorf("%w: dataset %s", ErrFormat, kind)
			}

		case "POINTS":
			n, err := tok.int()
			if err != nil {
				return nil, err
			}
			if _, err := tok.next(); err != nil { // data type
				return nil, err
			}
			m.Vertices = make([]Vertex, n)
			for i := range m.Vertices {
				var xyz [3]float64
				for k := range xyz {
					if xyz[k], err = tok.float(); err != nil {
						return nil, err
					}
				}
				m.Vertices[i] = Vertex{X: xyz[0], Y: xyz[1], Z: xyz[2]}
			}

		case "CELLS", "POLYGONS":
			if cells, err = readCells(tok); err != nil {
				return nil, err
			}

		case "CELL_TYPES":
			n, err := tok.int()
			if err != nil {
				return nil, err
			}
			cellTypes = make([]int, n)
			for i := range cellTypes {
				if cellTypes[i], err = tok.int(); err != nil {
					return nil, err
				}
			}

		case "POINT_DATA", "CELL_DATA":
			break loop
		}
	}

	if cellTypes != nil && len(cellTypes) != len(cells) {
		return nil, fmt.Errorf("%w: %d cell types for %d cells", ErrFormat, len(cellTypes), len(cells))
	}
	for i, c := range cells {
		if len(c) != 3 {
			continue
		}
		if !polydata && cellTypes != nil && cellTypes[i] != vtkTriangle {
			continue
		}
		m.Triangles = append(m.Triangles, [3]int{c[0], c[1], c[2]})
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// readCells reads a CELLS or POLYGONS section in either layout.
func readCells(tok *tokenizer) ([][]int, error) {
	a, err := tok.int()
	if err != nil {
		return nil, err
	}
	b, err := tok.int()
	if err != nil {
		return nil, err
	}

	word, err := tok.peek()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(word, "OFFSETS") {
		// version 4: a cells, b integers of "count idx..." records
		cells := make([][]int, 0, a)
		read := 0
		for len(cells) < a {
			n, err := tok.int()
			if err != nil {
				return nil, err
			}
			c := make([]int, n)
			for k := range c {
				if c[k], err = tok.int(); err != nil {
					return nil, err
				}
			}
			cells = append(cells, c)
			read += n + 1
		}
		if read != b {
			return nil, fmt.Errorf("%w: cell list size %d, header says %d", ErrFormat, read, b)
		}
		return cells, nil
	}

	// version 5: a offsets followed by b connectivity entries
	offsets, err := readArray(tok, "OFFSETS", a)
	if err != nil {
		return nil, err
	}
	conn, err := readArray(tok, "CONNECTIVITY", b)
	if err != nil {
		return nil, err
	}
	if a == 0 {
		return nil, nil
	}
	cells := make([][]int, 0, a-1)
	for i := 0; i+1 < a; i++ {
		lo, hi := offsets[i], offsets[i+1]
		if lo < 0 || hi < lo || hi > len(conn) {
			return nil, fmt.Errorf("%w: offsets %d..%d out of range", ErrFormat, lo, hi)
		}
		cells = append(cells, conn[lo:hi])
	}
	return cells, nil
}

func readArray(tok *tokenizer, name string, n int) ([]int, error) {
	word, err := tok.next()
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(word, name) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrFormat, name, word)
	}
	if _, err := tok.next(); err != nil { // data type
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		if out[i], err = tok.int(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: truncated header", ErrFormat)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type tokenizer struct {
	sc     *bufio.Scanner
	peeked *string
}

func newTokenizer(r io.Reader) *tokenizer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

func (t *tokenizer) next() (string, error) {
	if t.peeked != nil {
		w := *t.peeked
		t.peeked = nil
		return w, nil
	}
	if t.sc.Scan() {
		return t.sc.Text(), nil
	}
	if err := t.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (t *tokenizer) peek() (string, error) {
	w, err := t.next()
	if err != nil {
		return "", err
	}
	t.peeked = &w
	return w, nil
}

func (t *tokenizer) int() (int, error) {
	w, err := t.next()
	if err != nil {
		return 0, unexpected(err)
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer, got %q", ErrFormat, w)
	}
	return n, nil
}

func (t *tokenizer) float() (float64, error) {
	w, err := t.next()
	if err != nil {
		return 0, unexpected(err)
	}
	f, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected number, got %q", ErrFormat, w)
	}
	return f, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of file", ErrFormat)
	}
	return err
}
