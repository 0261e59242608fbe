package kolam

import "fmt"

// DefaultCellSpacing is the distance between neighbouring dots in pattern
// coordinates.
const DefaultCellSpacing = 60.0

const (
	defaultDotRadius   = 3.0
	defaultStrokeWidth = 2.0
	defaultColor       = "#000000"
)

// Point is a position in pattern coordinates (y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CurveSet holds the curve points for each pattern id, indexed by id-1.
// Points are in unit-cell coordinates centred on the cell's dot.
type CurveSet [16][]Point

// For returns the unit-cell points drawn around a cell with the given mask.
func (s *CurveSet) For(c Cell) []Point { return s[c.PatternID()-1] }

// Dot is one grid dot.
type Dot struct {
	ID     string  `json:"id"`
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Filled bool    `json:"filled"`
}

// Curve is one stroked polyline. Row and Col name the cell it belongs to.
type Curve struct {
	ID          string  `json:"id"`
	Row         int     `json:"row"`
	Col         int     `json:"col"`
	Start       Point   `json:"start"`
	End         Point   `json:"end"`
	Points      []Point `json:"curve_points"`
	StrokeWidth float64 `json:"stroke_width"`
	Color       string  `json:"color"`
}

// GridCell describes one cell of the connectivity matrix.
type GridCell struct {
	Row         int      `json:"row"`
	Col         int      `json:"col"`
	PatternID   int      `json:"pattern_id"`
	Connections []string `json:"connections"`
	DotCenter   Point    `json:"dot_center"`
}

// Grid is the cell layout of a pattern.
type Grid struct {
	Rows        int          `json:"rows"`
	Cols        int          `json:"cols"`
	CellSpacing float64      `json:"cell_spacing"`
	Cells       [][]GridCell `json:"cells"`
}

// Dimensions is the pattern's extent in pattern coordinates.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pattern is the structured description of a kolam.
type Pattern struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Symmetry   Symmetry   `json:"symmetry_type"`
	Theme      string     `json:"theme"`
	Grid       Grid       `json:"grid"`
	Dots       []Dot      `json:"dots"`
	Curves     []Curve    `json:"curves"`
	Dimensions Dimensions `json:"dimensions"`
}

// Describe maps m onto curve points scaled by spacing. Dot (r, c) sits at
// ((c+1)*spacing, (r+1)*spacing). A non-positive spacing selects
// DefaultCellSpacing.
func Describe(m *Matrix, curves *CurveSet, spacing float64) *Pattern {
	if spacing <= 0 {
		spacing = DefaultCellSpacing
	}
	p := &Pattern{
		ID:   fmt.Sprintf("kolam-%dx%d", m.rows, m.cols),
		Name: fmt.Sprintf("Kolam %dx%d", m.rows, m.cols),
		Grid: Grid{
			Rows:        m.rows,
			Cols:        m.cols,
			CellSpacing: spacing,
			Cells:       make([][]GridCell, m.rows),
		},
		Dimensions: Dimensions{
			Width:  float64(m.cols+1) * spacing,
			Height: float64(m.rows+1) * spacing,
		},
	}

	for r := 0; r < m.rows; r++ {
		p.Grid.Cells[r] = make([]GridCell, m.cols)
		for c := 0; c < m.cols; c++ {
			cell := m.At(r, c)
			center := Point{X: float64(c+1) * spacing, Y: float64(r+1) * spacing}
			p.Grid.Cells[r][c] = GridCell{
				Row:         r,
				Col:         c,
				PatternID:   cell.PatternID(),
				Connections: cell.Connections(),
				DotCenter:   center,
			}
			p.Dots = append(p.Dots, Dot{
				ID:     fmt.Sprintf("dot-%d-%d", r, c),
				Center: center,
				Radius: defaultDotRadius,
				Color:  defaultColor,
				Filled: true,
			})

			unit := curves.For(cell)
			if len(unit) < 2 {
				continue
			}
			pts := make([]Point, len(unit))
			for i, u := range unit {
				pts[i] = Point{X: center.X + u.X*spacing, Y: center.Y + u.Y*spacing}
			}
			p.Curves = append(p.Curves, Curve{
				ID:          fmt.Sprintf("curve-%d-%d", r, c),
				Row:         r,
				Col:         c,
				Start:       pts[0],
				End:         pts[len(pts)-1],
				Points:      pts,
				StrokeWidth: defaultStrokeWidth,
				Color:       defaultColor,
			})
		}
	}
	return p
}

// Matrix rebuilds the connectivity matrix from the grid cells.
func (p *Pattern) Matrix() (*Matrix, error) {
	ids := make([][]int, len(p.Grid.Cells))
	for r, row := range p.Grid.Cells {
		ids[r] = make([]int, len(row))
		for c, cell := range row {
			ids[r][c] = cell.PatternID
		}
	}
	return MatrixFromPatternIDs(ids)
}

// Clone returns a deep copy of p.
func (p *Pattern) Clone() *Pattern {
	out := *p
	out.Grid.Cells = make([][]GridCell, len(p.Grid.Cells))
	for r, row := range p.Grid.Cells {
		out.Grid.Cells[r] = make([]GridCell, len(row))
		for c, cell := range row {
			cell.Connections = append([]string(nil), cell.Connections...)
			out.Grid.Cells[r][c] = cell
		}
	}
	out.Dots = append([]Dot(nil), p.Dots...)
	out.Curves = make([]Curve, len(p.Curves))
	for i, cv := range p.Curves {
		cv.Points = append([]Point(nil), cv.Points...)
		out.Curves[i] = cv
	}
	return &out
}
