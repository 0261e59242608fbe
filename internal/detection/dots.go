package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

// Dot is a detected lattice dot.
type Dot struct {
	Center imaging.PointF `json:"center"`
	Radius float64        `json:"radius"`
	Area   int            `json:"area"`
}

// DotOptions controls DetectDots.
type DotOptions struct {
	// MaxSize is the largest bounding-box side of a dot, in pixels.
	MaxSize int
	// MinFill is the smallest fill ratio of a dot's bounding box. A disc
	// covers about 0.785 of its box.
	MinFill float64
	// MaxAspect is the largest long-side/short-side ratio of a dot's box.
	MaxAspect float64
}

// DefaultDotOptions derives options from the image size.
func DefaultDotOptions(width, height int) DotOptions {
	return DotOptions{
		MaxSize:   max(6, min(width, height)/6),
		MinFill:   0.5,
		MaxAspect: 1.6,
	}
}

// DetectDots picks the dot-shaped components of l. Components whose area is
// far from the median dot area are dropped as stray marks.
//
// Results are sorted top-to-bottom, then left-to-right.
func DetectDots(l *Labeling, opts DotOptions) []Dot {
	var dots []Dot
	for _, c := range l.Components {
		if !c.CentroidInk || c.FillRatio() < opts.MinFill || c.Aspect() > opts.MaxAspect {
			continue
		}
		if c.Bounds.Width() > opts.MaxSize || c.Bounds.Height() > opts.MaxSize {
			continue
		}
		dots = append(dots, Dot{
			Center: c.Centroid,
			Radius: math.Sqrt(float64(c.Area) / math.Pi),
			Area:   c.Area,
		})
	}
	if len(dots) == 0 {
		return nil
	}

	areas := make([]int, len(dots))
	for i, d := range dots {
		areas[i] = d.Area
	}
	sort.Ints(areas)
	median := float64(areas[len(areas)/2])

	kept := dots[:0]
	for _, d := range dots {
		if r := float64(d.Area) / median; r >= 0.35 && r <= 3 {
			kept = append(kept, d)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if math.Abs(kept[i].Center.Y-kept[j].Center.Y) > 0.5 {
			return kept[i].Center.Y < kept[j].Center.Y
		}
		return kept[i].Center.X < kept[j].Center.X
	})
	return kept
}
