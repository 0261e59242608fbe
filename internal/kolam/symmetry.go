package kolam

import (
	"fmt"
	"strings"
)

// Symmetry names a symmetry group a matrix can be built to honour.
type Symmetry string

const (
	SymmetryNone        Symmetry = "none"
	SymmetryHorizontal  Symmetry = "horizontal"  // left-right mirror
	SymmetryVertical    Symmetry = "vertical"    // top-bottom mirror
	SymmetryMirror      Symmetry = "mirror"      // both mirrors
	SymmetryRotational2 Symmetry = "rotational2" // half turn
	SymmetryRotational  Symmetry = "rotational"  // quarter turn
	SymmetryDiagonal    Symmetry = "diagonal"    // transpose
)

// DefaultSymmetry is used when a request does not name one.
const DefaultSymmetry = SymmetryMirror

var symmetryAliases = map[string]Symmetry{
	"none":        SymmetryNone,
	"horizontal":  SymmetryHorizontal,
	"vertical":    SymmetryVertical,
	"mirror":      SymmetryMirror,
	"radial":      SymmetryMirror,
	"1d":          SymmetryMirror,
	"rotational2": SymmetryRotational2,
	"point":       SymmetryRotational2,
	"rotational":  SymmetryRotational,
	"rotational4": SymmetryRotational,
	"diagonal":    SymmetryDiagonal,
}

// Symmetries lists the canonical modes.
func Symmetries() []Symmetry {
	return []Symmetry{
		SymmetryNone, SymmetryHorizontal, SymmetryVertical, SymmetryMirror,
		SymmetryRotational2, SymmetryRotational, SymmetryDiagonal,
	}
}

// ParseSymmetry resolves a mode name or alias, case-insensitively. Unknown
// names return SymmetryNone and false.
func ParseSymmetry(name string) (Symmetry, bool) {
	s, ok := symmetryAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return SymmetryNone, false
	}
	return s, true
}

// RequiresSquare reports whether the mode only applies to square grids.
func (s Symmetry) RequiresSquare() bool {
	return s == SymmetryRotational || s == SymmetryDiagonal
}

// Check validates the grid size for the mode.
func (s Symmetry) Check(rows, cols int) error {
	if err := CheckSize(rows, cols); err != nil {
		return err
	}
	if s.RequiresSquare() && rows != cols {
		return fmt.Errorf("%w: %s on %dx%d", ErrSymmetryNeedsSquare, s, rows, cols)
	}
	return nil
}

// transform maps a cell side to its image under one symmetry generator.
type transform func(r, c int, d Direction) (int, int, Direction)

// generators returns transforms that generate the symmetry group on a
// rows x cols grid.
func (s Symmetry) generators(rows, cols int) []transform {
	mirrorX := func(r, c int, d Direction) (int, int, Direction) {
		return r, cols - 1 - c, flipLR(d)
	}
	mirrorY := func(r, c int, d Direction) (int, int, Direction) {
		return rows - 1 - r, c, flipUD(d)
	}
	switch s {
	case SymmetryHorizontal:
		return []transform{mirrorX}
	case SymmetryVertical:
		return []transform{mirrorY}
	case SymmetryMirror:
		return []transform{mirrorX, mirrorY}
	case SymmetryRotational2:
		return []transform{func(r, c int, d Direction) (int, int, Direction) {
			return rows - 1 - r, cols - 1 - c, d.Opposite()
		}}
	case SymmetryRotational:
		return []transform{func(r, c int, d Direction) (int, int, Direction) {
			return c, rows - 1 - r, rotateCW(d)
		}}
	case SymmetryDiagonal:
		return []transform{func(r, c int, d Direction) (int, int, Direction) {
			return c, r, transpose(d)
		}}
	}
	return nil
}

// Satisfies reports whether m is invariant under every generator of s.
// Rotational and diagonal modes are never satisfied by non-square matrices.
func Satisfies(m *Matrix, s Symmetry) bool {
	if s.RequiresSquare() && m.rows != m.cols {
		return false
	}
	for _, g := range s.generators(m.rows, m.cols) {
		for r := 0; r < m.rows; r++ {
			for c := 0; c < m.cols; c++ {
				r2, c2, _ := g(r, c, Up)
				want := m.At(r, c).Map(func(d Direction) Direction {
					_, _, d2 := g(r, c, d)
					return d2
				})
				if m.At(r2, c2) != want {
					return false
				}
			}
		}
	}
	return true
}

// detectOrder lists the modes Detect tries, larger groups first.
var detectOrder = []Symmetry{
	SymmetryRotational, SymmetryMirror, SymmetryDiagonal,
	SymmetryRotational2, SymmetryHorizontal, SymmetryVertical,
}

// Detect returns every mode m satisfies, larger groups first. A matrix
// without any symmetry yields nil.
func Detect(m *Matrix) []Symmetry {
	var out []Symmetry
	for _, s := range detectOrder {
		if Satisfies(m, s) {
			out = append(out, s)
		}
	}
	return out
}
