package kolam

import (
	"fmt"
	"strings"
)

// Density controls how many curves a pattern carries.
type Density string

const (
	DensitySparse Density = "sparse"
	DensityMedium Density = "medium"
	DensityDense  Density = "dense"
)

// echoScale is the size of a dense pattern's inner loop relative to the
// cell's main curve.
const echoScale = 0.6

// ParseDensity resolves a density name. Unknown names return DensityMedium
// and false.
func ParseDensity(name string) (Density, bool) {
	switch d := Density(strings.ToLower(strings.TrimSpace(name))); d {
	case DensitySparse, DensityMedium, DensityDense:
		return d, true
	case "":
		return DensityMedium, true
	}
	return DensityMedium, false
}

// Customization adjusts stroke, dots and density of a described pattern.
// Zero values keep the pattern's current settings.
type Customization struct {
	LineThickness float64 `json:"line_thickness,omitempty"`
	DotSize       float64 `json:"dot_size,omitempty"`
	Density       Density `json:"density,omitempty"`
	StrokeColor   string  `json:"stroke_color,omitempty"`
	DotColor      string  `json:"dot_color,omitempty"`
}

// Customize returns a modified copy of p; p itself is left untouched.
func Customize(p *Pattern, c Customization) *Pattern {
	out := p.Clone()
	for i := range out.Dots {
		if c.DotSize > 0 {
			out.Dots[i].Radius = c.DotSize
		}
		if c.DotColor != "" {
			out.Dots[i].Color = c.DotColor
		}
	}

	curves := out.Curves[:0:0]
	for _, cv := range out.Curves {
		if c.Density == DensitySparse && (cv.Row+cv.Col)%2 != 0 {
			continue
		}
		curves = append(curves, cv)
		if c.Density == DensityDense {
			curves = append(curves, echo(cv, out.Grid.Cells[cv.Row][cv.Col].DotCenter))
		}
	}
	for i := range curves {
		if c.LineThickness > 0 {
			curves[i].StrokeWidth = c.LineThickness
		}
		if c.StrokeColor != "" {
			curves[i].Color = c.StrokeColor
		}
	}
	out.Curves = curves
	return out
}

// echo returns cv shrunk toward center.
func echo(cv Curve, center Point) Curve {
	pts := make([]Point, len(cv.Points))
	for i, pt := range cv.Points {
		pts[i] = Point{
			X: center.X + (pt.X-center.X)*echoScale,
			Y: center.Y + (pt.Y-center.Y)*echoScale,
		}
	}
	cv.ID = fmt.Sprintf("echo-%d-%d", cv.Row, cv.Col)
	cv.Points = pts
	cv.Start = pts[0]
	cv.End = pts[len(pts)-1]
	return cv
}
