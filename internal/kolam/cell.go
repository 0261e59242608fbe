package kolam

import "fmt"

// Direction is one side of a grid cell.
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists the four sides in clockwise order starting at Up.
var Directions = [4]Direction{Up, Right, Down, Left}

var directionNames = [4]string{"up", "right", "down", "left"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Opposite returns the side facing d.
func (d Direction) Opposite() Direction { return (d + 2) % 4 }

// Delta returns the row and column offset of the neighbour across side d.
func (d Direction) Delta() (dr, dc int) {
	switch d {
	case Up:
		return -1, 0
	case Right:
		return 0, 1
	case Down:
		return 1, 0
	default:
		return 0, -1
	}
}

// Cell is a 4-bit connection mask, one bit per Direction.
type Cell uint8

// Has reports whether the cell connects across side d.
func (c Cell) Has(d Direction) bool { return c&(1<<d) != 0 }

// With returns c with side d connected.
func (c Cell) With(d Direction) Cell { return c | 1<<d }

// Map returns the cell obtained by moving every connected side through f.
func (c Cell) Map(f func(Direction) Direction) Cell {
	var out Cell
	for _, d := range Directions {
		if c.Has(d) {
			out = out.With(f(d))
		}
	}
	return out
}

// Connections returns the names of the connected sides in clockwise order.
func (c Cell) Connections() []string {
	out := make([]string, 0, 4)
	for _, d := range Directions {
		if c.Has(d) {
			out = append(out, d.String())
		}
	}
	return out
}

// patternMasks maps pattern id (index) to connection mask. Index 0 is unused.
//
//	1 none  2 D    3 R    4 U    5 L    6 RD   7 UR   8 UL
//	9 DL    10 RL  11 UD  12 RDL 13 URD 14 URL 15 UDL 16 URDL
var patternMasks = [17]Cell{0, 0, 4, 2, 1, 8, 6, 3, 9, 12, 10, 5, 14, 7, 11, 13, 15}

var maskPatterns = func() [16]int {
	var out [16]int
	for id := 1; id <= 16; id++ {
		out[patternMasks[id]] = id
	}
	return out
}()

// PatternID returns the dataset index (1..16) of the cell's mask.
func (c Cell) PatternID() int { return maskPatterns[c&0xF] }

// CellFromPatternID returns the mask for a dataset index.
func CellFromPatternID(id int) (Cell, error) {
	if id < 1 || id > 16 {
		return 0, fmt.Errorf("%w: pattern id %d out of range 1..16", ErrInvalidMatrix, id)
	}
	return patternMasks[id], nil
}

func flipLR(d Direction) Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

func flipUD(d Direction) Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

func rotateCW(d Direction) Direction { return (d + 1) % 4 }

// transpose swaps Up with Left and Right with Down (reflection in the main
// diagonal).
func transpose(d Direction) Direction {
	switch d {
	case Up:
		return Left
	case Left:
		return Up
	case Right:
		return Down
	default:
		return Right
	}
}
