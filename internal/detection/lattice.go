package detection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

var (
	// ErrTooFewDots is returned when fewer dots than a minimal lattice holds
	// were found.
	ErrTooFewDots = errors.New("detection: too few dots for a lattice")

	// ErrIrregularLattice is returned when the dots do not cluster into a
	// grid.
	ErrIrregularLattice = errors.New("detection: dots do not form a lattice")
)

// minLatticeDots is the dot count of the smallest lattice worth fitting.
const minLatticeDots = 4

// Lattice is the dot grid recovered from a set of dots.
type Lattice struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Spacing is the median nearest-neighbour distance between dots.
	Spacing float64 `json:"spacing"`

	// Corners are the corner dots in the order top-left, top-right,
	// bottom-right, bottom-left.
	Corners [4]imaging.PointF `json:"corners"`

	// Coverage is the share of lattice positions that have a dot.
	Coverage float64 `json:"coverage"`

	// Rotation is the lattice's tilt against the image axes, in degrees
	// within [-45, 45).
	Rotation float64 `json:"rotation_degrees"`
}

// EstimateLattice clusters dot coordinates into columns and rows.
//
// The dots are first turned by the lattice's tilt, measured from the
// directions between neighbouring dots, so a rotated photo clusters like an
// upright one. Clusters are split wherever consecutive sorted coordinates
// differ by more than 0.4 of the dot spacing. At least 60% of the
// rows x cols positions must be occupied.
func EstimateLattice(dots []Dot) (*Lattice, error) {
	if len(dots) < minLatticeDots {
		return nil, fmt.Errorf("%w: found %d", ErrTooFewDots, len(dots))
	}

	spacing := medianNearest(dots)
	if spacing <= 0 {
		return nil, fmt.Errorf("%w: coincident dots", ErrIrregularLattice)
	}
	tol := 0.4 * spacing

	angle := orientation(dots, spacing)
	upright := derotate(dots, angle)
	xs := make([]float64, len(dots))
	ys := make([]float64, len(dots))
	for i, p := range upright {
		xs[i] = p.X
		ys[i] = p.Y
	}
	cols := len(cluster1D(xs, tol))
	rows := len(cluster1D(ys, tol))
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: %d rows x %d cols", ErrIrregularLattice, rows, cols)
	}

	coverage := float64(len(dots)) / float64(rows*cols)
	if coverage < 0.6 {
		return nil, fmt.Errorf("%w: %d dots cover %.0f%% of %dx%d", ErrIrregularLattice, len(dots), coverage*100, rows, cols)
	}

	return &Lattice{
		Rows:     rows,
		Cols:     cols,
		Spacing:  spacing,
		Corners:  corners(dots, upright),
		Coverage: math.Min(coverage, 1),
		Rotation: angle * 180 / math.Pi,
	}, nil
}

// orientation returns the lattice tilt in radians within [-pi/4, pi/4).
// Directions between dots about one spacing apart are folded modulo a
// quarter turn by averaging them as 4*theta on the unit circle.
func orientation(dots []Dot, spacing float64) float64 {
	lo, hi := 0.7*spacing, 1.3*spacing
	var sumCos, sumSin float64
	for i, a := range dots {
		for _, b := range dots[i+1:] {
			dx, dy := b.Center.X-a.Center.X, b.Center.Y-a.Center.Y
			if d := math.Hypot(dx, dy); d < lo || d > hi {
				continue
			}
			theta := 4 * math.Atan2(dy, dx)
			sumCos += math.Cos(theta)
			sumSin += math.Sin(theta)
		}
	}
	if math.Hypot(sumCos, sumSin) < 1e-9 {
		return 0
	}
	angle := math.Atan2(sumSin, sumCos) / 4
	if math.Abs(angle) < 1e-9 || angle >= math.Pi/4 {
		angle = 0
	}
	return angle
}

// derotate turns the dot centres by -angle about the origin.
func derotate(dots []Dot, angle float64) []imaging.PointF {
	sin, cos := math.Sincos(angle)
	out := make([]imaging.PointF, len(dots))
	for i, d := range dots {
		p := d.Center
		out[i] = imaging.PointF{X: p.X*cos + p.Y*sin, Y: -p.X*sin + p.Y*cos}
	}
	return out
}

// corners picks the extreme dots along the two diagonals of the upright
// frame: top-left minimizes x+y, bottom-right maximizes it, top-right
// maximizes x-y and bottom-left minimizes it. The chosen dots are returned
// at their image positions.
func corners(dots []Dot, upright []imaging.PointF) [4]imaging.PointF {
	var tl, tr, br, bl int
	for i, p := range upright {
		if p.X+p.Y < upright[tl].X+upright[tl].Y {
			tl = i
		}
		if p.X+p.Y > upright[br].X+upright[br].Y {
			br = i
		}
		if p.X-p.Y > upright[tr].X-upright[tr].Y {
			tr = i
		}
		if p.X-p.Y < upright[bl].X-upright[bl].Y {
			bl = i
		}
	}
	return [4]imaging.PointF{dots[tl].Center, dots[tr].Center, dots[br].Center, dots[bl].Center}
}

// medianNearest returns the median distance from each dot to its nearest
// neighbour.
func medianNearest(dots []Dot) float64 {
	nearest := make([]float64, len(dots))
	for i, a := range dots {
		best := math.Inf(1)
		for j, b := range dots {
			if i == j {
				continue
			}
			best = math.Min(best, math.Hypot(a.Center.X-b.Center.X, a.Center.Y-b.Center.Y))
		}
		nearest[i] = best
	}
	sort.Float64s(nearest)
	return nearest[len(nearest)/2]
}

// cluster1D groups sorted values separated by gaps larger than tol and
// returns the mean of each group.
func cluster1D(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var means []float64
	sum, n := sorted[0], 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > tol {
			means = append(means, sum/float64(n))
			sum, n = 0, 0
		}
		sum += sorted[i]
		n++
	}
	return append(means, sum/float64(n))
}
