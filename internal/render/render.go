// Package render draws kolam pattern descriptions as PNG and SVG.
//
// Patterns are scaled to fit the canvas with a 10% margin and centred.
// Curves are stroked as polylines with round joins; dots are filled discs.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

// Canvas limits.
const (
	DefaultSize = 500
	MinSize     = 64
	MaxSize     = 4096
)

const (
	fitMargin = 0.8

	minStrokePx = 2.5
	minDotPx    = 3

	// discSegments is the polygon resolution of dots and round joins.
	discSegments = 24
)

// ErrCanvasSize is returned for canvases outside [MinSize, MaxSize].
var ErrCanvasSize = errors.New("render: canvas size out of range")

// Options controls a render.
type Options struct {
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	IncludeDots bool `json:"include_dots"`
	SVG         bool `json:"svg"`
}

// DefaultOptions renders a 500x500 PNG with dots and no SVG.
func DefaultOptions() Options {
	return Options{Width: DefaultSize, Height: DefaultSize, IncludeDots: true}
}

// Result is a rendered pattern.
type Result struct {
	imaging.ImageResult
	SVG string `json:"svg,omitempty"`
}

// Render rasterizes p with palette and encodes it as PNG. The SVG text is
// included when opts.SVG is set.
func Render(p *kolam.Pattern, palette dataset.Palette, opts Options) (*Result, error) {
	img, err := Rasterize(p, palette, opts)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	res := &Result{ImageResult: *encoded}
	if opts.SVG {
		res.SVG = SVG(p, palette, opts)
	}
	return res, nil
}

// Rasterize draws p onto a new RGBA canvas.
func Rasterize(p *kolam.Pattern, palette dataset.Palette, opts Options) (*image.RGBA, error) {
	if err := checkSize(opts); err != nil {
		return nil, err
	}
	tf := fit(p, opts)

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(toRGBA(palette.Background)), image.Point{}, draw.Src)

	if opts.IncludeDots {
		layers := newLayers(opts.Width, opts.Height)
		for _, d := range p.Dots {
			z := layers.get(colorOr(d.Color, palette.Fill))
			x, y := tf.apply(d.Center)
			disc(z, x, y, math.Max(minDotPx, d.Radius*tf.scale))
		}
		layers.draw(img)
	}

	layers := newLayers(opts.Width, opts.Height)
	for _, cv := range p.Curves {
		z := layers.get(colorOr(cv.Color, palette.Stroke))
		stroke(z, tf, cv.Points, math.Max(minStrokePx, cv.StrokeWidth*tf.scale))
	}
	layers.draw(img)

	return img, nil
}

// SVG renders p as a standalone SVG document using the same layout as
// Rasterize.
func SVG(p *kolam.Pattern, palette dataset.Palette, opts Options) string {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultSize, DefaultSize
	}
	tf := fit(p, opts)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", palette.Background.Hex())

	if opts.IncludeDots {
		b.WriteString(`  <g id="dots">` + "\n")
		for _, d := range p.Dots {
			x, y := tf.apply(d.Center)
			fmt.Fprintf(&b, `    <circle id="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
				d.ID, x, y, math.Max(minDotPx, d.Radius*tf.scale), colorOr(d.Color, palette.Fill).Hex())
		}
		b.WriteString("  </g>\n")
	}

	b.WriteString(`  <g id="curves" fill="none" stroke-linecap="round" stroke-linejoin="round">` + "\n")
	for _, cv := range p.Curves {
		if len(cv.Points) < 2 {
			continue
		}
		pts := make([]string, len(cv.Points))
		for i, pt := range cv.Points {
			x, y := tf.apply(pt)
			pts[i] = fmt.Sprintf("%.2f,%.2f", x, y)
		}
		fmt.Fprintf(&b, `    <polyline id="%s" points="%s" stroke="%s" stroke-width="%.2f"/>`+"\n",
			cv.ID, strings.Join(pts, " "), colorOr(cv.Color, palette.Stroke).Hex(),
			math.Max(minStrokePx, cv.StrokeWidth*tf.scale))
	}
	b.WriteString("  </g>\n</svg>\n")
	return b.String()
}

func checkSize(opts Options) error {
	for _, v := range []int{opts.Width, opts.Height} {
		if v < MinSize || v > MaxSize {
			return fmt.Errorf("%w: %dx%d (allowed %d-%d)", ErrCanvasSize, opts.Width, opts.Height, MinSize, MaxSize)
		}
	}
	return nil
}

// transform maps pattern coordinates onto the canvas.
type transform struct {
	scale  float64
	dx, dy float64
}

func (t transform) apply(p kolam.Point) (float64, float64) {
	return p.X*t.scale + t.dx, p.Y*t.scale + t.dy
}

// Scale returns the pattern-to-canvas scale factor Rasterize uses.
func Scale(p *kolam.Pattern, opts Options) float64 { return fit(p, opts).scale }

func fit(p *kolam.Pattern, opts Options) transform {
	pw, ph := p.Dimensions.Width, p.Dimensions.Height
	if pw <= 0 || ph <= 0 {
		return transform{scale: 1}
	}
	w, h := float64(opts.Width), float64(opts.Height)
	s := math.Min(w/pw, h/ph) * fitMargin
	return transform{
		scale: s,
		dx:    (w - pw*s) / 2,
		dy:    (h - ph*s) / 2,
	}
}

// layers keeps one rasterizer per colour, in first-use order.
type layers struct {
	w, h   int
	order  []colorful.Color
	byName map[string]*vector.Rasterizer
}

func newLayers(w, h int) *layers {
	return &layers{w: w, h: h, byName: make(map[string]*vector.Rasterizer)}
}

func (l *layers) get(c colorful.Color) *vector.Rasterizer {
	key := c.Hex()
	if z, ok := l.byName[key]; ok {
		return z
	}
	z := vector.NewRasterizer(l.w, l.h)
	l.byName[key] = z
	l.order = append(l.order, c)
	return z
}

func (l *layers) draw(dst *image.RGBA) {
	for _, c := range l.order {
		z := l.byName[c.Hex()]
		z.Draw(dst, dst.Bounds(), image.NewUniform(toRGBA(c)), image.Point{})
	}
}

// stroke outlines a polyline as one quad per segment plus a disc at every
// vertex, which gives round joins and caps.
func stroke(z *vector.Rasterizer, tf transform, pts []kolam.Point, width float64) {
	if len(pts) < 2 {
		return
	}
	hw := width / 2
	px, py := tf.apply(pts[0])
	disc(z, px, py, hw)
	for _, pt := range pts[1:] {
		x, y := tf.apply(pt)
		dx, dy := x-px, y-py
		if l := math.Hypot(dx, dy); l > 1e-9 {
			nx, ny := -dy/l*hw, dx/l*hw
			polygon(z, [][2]float64{
				{px + nx, py + ny},
				{x + nx, y + ny},
				{x - nx, y - ny},
				{px - nx, py - ny},
			})
		}
		disc(z, x, y, hw)
		px, py = x, y
	}
}

func disc(z *vector.Rasterizer, cx, cy, r float64) {
	pts := make([][2]float64, discSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / discSegments
		pts[i] = [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	polygon(z, pts)
}

// polygon adds a closed path. The rasterizer accumulates signed coverage, so
// every path is emitted with the same winding; overlapping shapes then merge
// instead of cancelling.
func polygon(z *vector.Rasterizer, pts [][2]float64) {
	var area float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		area += p[0]*q[1] - q[0]*p[1]
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		z.LineTo(float32(p[0]), float32(p[1]))
	}
	z.ClosePath()
}

func colorOr(hex string, fallback colorful.Color) colorful.Color {
	if c, err := colorful.Hex(hex); err == nil {
		return c
	}
	return fallback
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
