package digitize

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/kolam-tools-mcp/internal/detection"
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

const (
	// sampleRadius is the radius of the ink sampling disc, as a fraction of
	// the dot spacing.
	sampleRadius = 0.08
	// inkShare is the share of the sampling disc that must be ink for an
	// edge to count as connected.
	inkShare = 0.1
	// skewTolerance is how far, in dot spacings, a corner may sit from the
	// axis-aligned rectangle before the image counts as perspective
	// corrected.
	skewTolerance = 0.1

	maxCanvas     = 1000
	minCellPx     = 16
	fallbackCells = 3
)

// grid is a rows x cols dot lattice located in an image.
type grid struct {
	rows, cols int
	spacing    float64

	// corners of the lattice in the image: TL, TR, BR, BL.
	corners [4]imaging.PointF
	// toImage maps lattice coordinates (col, row) to image pixels.
	toImage imaging.Homography
	// bounds of the source image.
	bounds image.Rectangle

	lattice *detection.Lattice
}

func newGrid(rows, cols int, corners [4]imaging.PointF, spacing float64, bounds image.Rectangle) (*grid, error) {
	h, err := imaging.SolveHomography(latticeCorners(rows, cols, 1, 0), corners)
	if err != nil {
		return nil, err
	}
	return &grid{
		rows:    rows,
		cols:    cols,
		spacing: spacing,
		corners: corners,
		toImage: h,
		bounds:  bounds,
	}, nil
}

// latticeCorners returns the corner positions of a rows x cols lattice with
// the given cell size and offset, ordered TL, TR, BR, BL.
func latticeCorners(rows, cols int, cell, offset float64) [4]imaging.PointF {
	right := offset + float64(cols-1)*cell
	bottom := offset + float64(rows-1)*cell
	return [4]imaging.PointF{
		{X: offset, Y: offset},
		{X: right, Y: offset},
		{X: right, Y: bottom},
		{X: offset, Y: bottom},
	}
}

// fallbackGrid spreads a 3x3 lattice over the ink of m, or over the whole
// image when m is empty.
func fallbackGrid(m *imaging.Mask) *grid {
	r, ok := imaging.InkBounds(m, 0)
	if !ok || r.Dx() < 2 || r.Dy() < 2 {
		r = image.Rect(0, 0, m.Width, m.Height)
	}
	// Thin images are widened to at least one pixel per cell and 1/50 of
	// the long side; the part outside the image samples as paper.
	left, top := float64(r.Min.X), float64(r.Min.Y)
	minSpan := math.Max(fallbackCells-1, float64(max(r.Dx(), r.Dy()))/50)
	right := math.Max(float64(r.Max.X-1), left+minSpan)
	bottom := math.Max(float64(r.Max.Y-1), top+minSpan)
	corners := [4]imaging.PointF{
		{X: left, Y: top},
		{X: right, Y: top},
		{X: right, Y: bottom},
		{X: left, Y: bottom},
	}
	spacing := math.Min(right-left, bottom-top) / (fallbackCells - 1)
	g, err := newGrid(fallbackCells, fallbackCells, corners, spacing, image.Rect(0, 0, m.Width, m.Height))
	if err != nil {
		// Neither side is shorter than 1/50 of the other, so the rectangle
		// is never degenerate.
		panic(fmt.Sprintf("digitize: fallback lattice: %v", err))
	}
	return g
}

// skewed reports whether the corners deviate from the rectangle spanned by
// the top-left and bottom-right corners, i.e. whether the homography does
// more than scale and translate.
func (g *grid) skewed() bool {
	tl, br := g.corners[0], g.corners[2]
	ideal := [4]imaging.PointF{tl, {X: br.X, Y: tl.Y}, br, {X: tl.X, Y: br.Y}}
	limit := skewTolerance * g.spacing
	for i, c := range g.corners {
		if math.Hypot(c.X-ideal[i].X, c.Y-ideal[i].Y) > limit {
			return true
		}
	}
	return false
}

// classify samples m at the midpoint of every interior edge of the lattice
// and connects the edges that carry ink.
func (g *grid) classify(m *imaging.Mask) *kolam.Matrix {
	out, err := kolam.NewMatrix(g.rows, g.cols)
	if err != nil {
		// Grid sizes are checked before a grid is built.
		panic(fmt.Sprintf("digitize: %v", err))
	}
	radius := math.Max(1, sampleRadius*g.spacing)
	inked := func(x, y float64) bool {
		px, py := g.toImage.Apply(x, y)
		ink, total := m.InkIn(px, py, radius)
		return total > 0 && ink >= max(2, int(math.Ceil(inkShare*float64(total))))
	}

	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if c+1 < g.cols && inked(float64(c)+0.5, float64(r)) {
				out.Set(r, c, out.At(r, c).With(kolam.Right))
				out.Set(r, c+1, out.At(r, c+1).With(kolam.Left))
			}
			if r+1 < g.rows && inked(float64(c), float64(r)+0.5) {
				out.Set(r, c, out.At(r, c).With(kolam.Down))
				out.Set(r+1, c, out.At(r+1, c).With(kolam.Up))
			}
		}
	}
	return out
}

// overlay rectifies gray onto an ideal lattice canvas and marks the lattice
// and the detected dots. When rectification is impossible the overlay is
// drawn on the unwarped image.
func (g *grid) overlay(gray *image.Gray, dots []detection.Dot) image.Image {
	label := fmt.Sprintf("%dx%d", g.rows, g.cols)

	cell := math.Round(g.spacing)
	limit := float64(maxCanvas / (max(g.rows, g.cols) + 1))
	cell = math.Max(minCellPx, math.Min(cell, limit))
	w := int(cell) * (g.cols + 1)
	h := int(cell) * (g.rows + 1)

	canvas := latticeCorners(g.rows, g.cols, cell, cell)
	toSrc, err1 := imaging.SolveHomography(canvas, g.corners)
	toCanvas, err2 := imaging.SolveHomography(g.corners, canvas)
	if err1 != nil || err2 != nil {
		return imaging.LatticeOverlay(gray, g.points(g.toImage), dotCenters(dots, nil), imaging.OverlayOptions{Label: label})
	}

	warped := imaging.Warp(gray, toSrc, w, h)
	canvasLattice := make([][]imaging.PointF, g.rows)
	for r := range canvasLattice {
		canvasLattice[r] = make([]imaging.PointF, g.cols)
		for c := range canvasLattice[r] {
			canvasLattice[r][c] = imaging.PointF{X: float64(c+1) * cell, Y: float64(r+1) * cell}
		}
	}
	return imaging.LatticeOverlay(warped, canvasLattice, dotCenters(dots, &toCanvas), imaging.OverlayOptions{Label: label})
}

// points maps every lattice position through h, indexed [row][col].
func (g *grid) points(h imaging.Homography) [][]imaging.PointF {
	pts := make([][]imaging.PointF, g.rows)
	for r := range pts {
		pts[r] = make([]imaging.PointF, g.cols)
		for c := range pts[r] {
			pts[r][c] = h.ApplyPoint(imaging.PointF{X: float64(c), Y: float64(r)})
		}
	}
	return pts
}

func dotCenters(dots []detection.Dot, h *imaging.Homography) []imaging.PointF {
	out := make([]imaging.PointF, len(dots))
	for i, d := range dots {
		out[i] = d.Center
		if h != nil {
			out[i] = h.ApplyPoint(d.Center)
		}
	}
	return out
}
