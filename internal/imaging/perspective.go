package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateQuad is returned when four correspondence points do not span
// a quadrilateral (three or more collinear).
var ErrDegenerateQuad = errors.New("imaging: degenerate quadrilateral")

// PointF is a sub-pixel position.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Homography is a 3x3 projective transform stored row-major with h[8] = 1.
type Homography [9]float64

// SolveHomography returns the transform mapping each src[i] onto dst[i].
//
// The eight unknowns come from the standard direct linear system, two rows
// per correspondence:
//
//	[x y 1 0 0 0 -u*x -u*y] h = u
//	[0 0 0 x y 1 -v*x -v*y] h = v
func SolveHomography(src, dst [4]PointF) (Homography, error) {
	if degenerate(src) || degenerate(dst) {
		return Homography{}, ErrDegenerateQuad
	}
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}
	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("failed to solve homography: %w", err)
	}
	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
	}
	out[8] = 1
	return out, nil
}

// degenerate reports whether any three of the points are (nearly) collinear.
func degenerate(q [4]PointF) bool {
	var span float64
	for i := range q {
		for j := i + 1; j < len(q); j++ {
			span = math.Max(span, math.Hypot(q[i].X-q[j].X, q[i].Y-q[j].Y))
		}
	}
	if span == 0 {
		return true
	}
	for i := 0; i < 4; i++ {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		area := math.Abs((b.X-a.X)*(c.Y-a.Y)-(b.Y-a.Y)*(c.X-a.X)) / 2
		if area < 1e-3*span*span {
			return true
		}
	}
	return false
}

// Apply maps (x, y) through the transform.
func (h Homography) Apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return math.Inf(1), math.Inf(1)
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// ApplyPoint maps p through the transform.
func (h Homography) ApplyPoint(p PointF) PointF {
	x, y := h.Apply(p.X, p.Y)
	return PointF{X: x, Y: y}
}

// Warp builds a width x height image whose pixel (x, y) is src sampled at
// toSrc(x, y). Samples falling outside src read as white.
func Warp(src *image.Gray, toSrc Homography, width, height int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := toSrc.Apply(float64(x)+0.5, float64(y)+0.5)
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(bilinear(src, sx-0.5, sy-0.5)))})
		}
	}
	return out
}

// bilinear samples g at a fractional pixel position, treating the area
// outside the image as white.
func bilinear(g *image.Gray, x, y float64) float64 {
	b := g.Bounds()
	if math.IsInf(x, 0) || math.IsNaN(x) || x < -1 || y < -1 ||
		x > float64(b.Dx()) || y > float64(b.Dy()) {
		return 255
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	xFrac := x - float64(x0)
	yFrac := y - float64(y0)

	at := func(px, py int) float64 {
		if px < 0 || py < 0 || px >= b.Dx() || py >= b.Dy() {
			return 255
		}
		return float64(g.GrayAt(b.Min.X+px, b.Min.Y+py).Y)
	}
	v0 := at(x0, y0)*(1-xFrac) + at(x0+1, y0)*xFrac
	v1 := at(x0, y0+1)*(1-xFrac) + at(x0+1, y0+1)*xFrac
	return v0*(1-yFrac) + v1*yFrac
}
