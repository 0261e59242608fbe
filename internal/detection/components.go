package detection

import (
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width is X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height is Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Component is one 8-connected group of ink pixels.
type Component struct {
	// Label is the component's value in Labeling.Labels (1-based).
	Label int `json:"label"`

	// Area is the number of pixels in the component.
	Area int `json:"area"`

	// Bounds is the component's bounding box.
	Bounds Bounds `json:"bounds"`

	// Centroid is the mean pixel centre.
	Centroid imaging.PointF `json:"centroid"`

	// CentroidInk is set when the pixel under the centroid belongs to the
	// component. Rings and open curves usually fail this.
	CentroidInk bool `json:"centroid_ink"`

	// TouchesBorder is set when the component reaches the image edge.
	TouchesBorder bool `json:"touches_border"`
}

// FillRatio is the share of the bounding box covered by the component.
func (c Component) FillRatio() float64 {
	box := c.Bounds.Width() * c.Bounds.Height()
	if box == 0 {
		return 0
	}
	return float64(c.Area) / float64(box)
}

// Aspect is the long side of the bounding box over the short side (>= 1).
func (c Component) Aspect() float64 {
	w, h := float64(c.Bounds.Width()), float64(c.Bounds.Height())
	if w == 0 || h == 0 {
		return 0
	}
	return max(w, h) / min(w, h)
}

// Labeling holds a label per mask pixel (0 for paper) and the components.
type Labeling struct {
	Width      int
	Height     int
	Labels     []int32
	Components []Component
}

// Label groups the ink of m into 8-connected components.
func Label(m *imaging.Mask) *Labeling {
	l := &Labeling{
		Width:  m.Width,
		Height: m.Height,
		Labels: make([]int32, m.Width*m.Height),
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) && l.Labels[y*m.Width+x] == 0 {
				l.Components = append(l.Components, l.floodFill(m, x, y, len(l.Components)+1))
			}
		}
	}
	return l
}

// floodFill performs iterative flood-fill from a starting point, labelling
// every reached pixel and collecting the component's statistics.
//
// Uses a stack rather than recursion so large strokes cannot overflow the
// goroutine stack. Uses 8-connectivity (includes diagonal neighbors).
func (l *Labeling) floodFill(m *imaging.Mask, startX, startY, label int) Component {
	c := Component{
		Label:  label,
		Bounds: Bounds{X1: startX, Y1: startY, X2: startX + 1, Y2: startY + 1},
	}
	var sumX, sumY float64

	l.Labels[startY*l.Width+startX] = int32(label)
	stack := []Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c.Area++
		sumX += float64(p.X) + 0.5
		sumY += float64(p.Y) + 0.5
		c.Bounds.X1 = min(c.Bounds.X1, p.X)
		c.Bounds.Y1 = min(c.Bounds.Y1, p.Y)
		c.Bounds.X2 = max(c.Bounds.X2, p.X+1)
		c.Bounds.Y2 = max(c.Bounds.Y2, p.Y+1)
		if p.X == 0 || p.Y == 0 || p.X == l.Width-1 || p.Y == l.Height-1 {
			c.TouchesBorder = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if (dx == 0 && dy == 0) || !m.At(nx, ny) || l.Labels[ny*l.Width+nx] != 0 {
					continue
				}
				l.Labels[ny*l.Width+nx] = int32(label)
				stack = append(stack, Point{X: nx, Y: ny})
			}
		}
	}

	c.Centroid = imaging.PointF{X: sumX / float64(c.Area), Y: sumY / float64(c.Area)}
	cx, cy := int(c.Centroid.X), int(c.Centroid.Y)
	c.CentroidInk = l.At(cx, cy) == label
	return c
}

// At returns the label at (x, y), 0 for paper or outside the image.
func (l *Labeling) At(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0
	}
	return int(l.Labels[y*l.Width+x])
}

// Mask returns a mask holding only the components keep accepts.
func (l *Labeling) Mask(keep func(Component) bool) *imaging.Mask {
	accepted := make([]bool, len(l.Components)+1)
	for _, c := range l.Components {
		accepted[c.Label] = keep(c)
	}
	m := imaging.NewMask(l.Width, l.Height)
	for i, lab := range l.Labels {
		m.Pix[i] = lab != 0 && accepted[lab]
	}
	return m
}
