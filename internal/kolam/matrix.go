package kolam

import (
	"fmt"
	"strings"
)

const (
	// MinGridSize is the smallest accepted row or column count.
	MinGridSize = 3
	// MaxGridSize is the largest accepted row or column count.
	MaxGridSize = 15
)

// Matrix is a rows x cols grid of connection masks.
type Matrix struct {
	rows, cols int
	cells      []Cell
}

// CheckSize validates a grid size against MinGridSize and MaxGridSize.
func CheckSize(rows, cols int) error {
	if rows < MinGridSize || cols < MinGridSize {
		return fmt.Errorf("%w: %dx%d (minimum %d)", ErrGridTooSmall, rows, cols, MinGridSize)
	}
	if rows > MaxGridSize || cols > MaxGridSize {
		return fmt.Errorf("%w: %dx%d (maximum %d)", ErrGridTooLarge, rows, cols, MaxGridSize)
	}
	return nil
}

// NewMatrix returns an all-disconnected matrix.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if err := CheckSize(rows, cols); err != nil {
		return nil, err
	}
	return &Matrix{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}, nil
}

// MatrixFromPatternIDs builds a matrix from rows of pattern ids and
// validates it.
func MatrixFromPatternIDs(ids [][]int) (*Matrix, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: 0x0", ErrGridTooSmall)
	}
	m, err := NewMatrix(len(ids), len(ids[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range ids {
		if len(row) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidMatrix, r, len(row), m.cols)
		}
		for c, id := range row {
			cell, err := CellFromPatternID(id)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", r, c, err)
			}
			m.Set(r, c, cell)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// At returns the cell at (r, c). Out-of-range positions read as empty.
func (m *Matrix) At(r, c int) Cell {
	if !m.inside(r, c) {
		return 0
	}
	return m.cells[r*m.cols+c]
}

// Set stores the cell at (r, c). Out-of-range positions are ignored.
func (m *Matrix) Set(r, c int, cell Cell) {
	if m.inside(r, c) {
		m.cells[r*m.cols+c] = cell & 0xF
	}
}

func (m *Matrix) inside(r, c int) bool {
	return r >= 0 && r < m.rows && c >= 0 && c < m.cols
}

// Validate checks neighbour agreement and the closed outer boundary.
func (m *Matrix) Validate() error {
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			cell := m.At(r, c)
			for _, d := range Directions {
				dr, dc := d.Delta()
				nr, nc := r+dr, c+dc
				if !m.inside(nr, nc) {
					if cell.Has(d) {
						return fmt.Errorf("%w: cell (%d,%d) connects %s across the boundary", ErrInvalidMatrix, r, c, d)
					}
					continue
				}
				if cell.Has(d) != m.At(nr, nc).Has(d.Opposite()) {
					return fmt.Errorf("%w: cells (%d,%d) and (%d,%d) disagree on their shared edge", ErrInvalidMatrix, r, c, nr, nc)
				}
			}
		}
	}
	return nil
}

// PatternIDs returns the matrix as rows of pattern ids.
func (m *Matrix) PatternIDs() [][]int {
	out := make([][]int, m.rows)
	for r := range out {
		out[r] = make([]int, m.cols)
		for c := range out[r] {
			out[r][c] = m.At(r, c).PatternID()
		}
	}
	return out
}

// Equal reports whether two matrices have the same size and cells.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Connected counts the connected interior edges.
func (m *Matrix) Connected() int {
	n := 0
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.At(r, c).Has(Right) {
				n++
			}
			if m.At(r, c).Has(Down) {
				n++
			}
		}
	}
	return n
}

// String renders pattern ids row by row, for logs and test failures.
func (m *Matrix) String() string {
	var b strings.Builder
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%2d", m.At(r, c).PatternID())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
