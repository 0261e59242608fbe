package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// OverlayOptions styles LatticeOverlay.
type OverlayOptions struct {
	LineColor string // hex, default "#1976d2"
	DotColor  string // hex, default "#e91e63"
	Label     string // drawn in the top-left corner when non-empty
}

// LatticeOverlay draws the fitted dot lattice over base: lines between
// neighbouring lattice points, a cross on every detected dot and an optional
// label. lattice is indexed [row][col].
func LatticeOverlay(base image.Image, lattice [][]PointF, dots []PointF, opts OverlayOptions) *image.RGBA {
	bounds := base.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), base, bounds.Min, draw.Src)

	lineColor := hexOr(opts.LineColor, "#1976d2")
	dotColor := hexOr(opts.DotColor, "#e91e63")

	for r, row := range lattice {
		for c, p := range row {
			if c+1 < len(row) {
				blendLine(result, p, row[c+1], lineColor, 0.6)
			}
			if r+1 < len(lattice) && c < len(lattice[r+1]) {
				blendLine(result, p, lattice[r+1][c], lineColor, 0.6)
			}
		}
	}

	for _, d := range dots {
		x, y := int(math.Round(d.X)), int(math.Round(d.Y))
		for i := -3; i <= 3; i++ {
			blendPixel(result, x+i, y, dotColor, 1)
			blendPixel(result, x, y+i, dotColor, 1)
		}
	}

	if opts.Label != "" {
		drawLabel(result, 3, 3, opts.Label, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 200})
	}
	return result
}

func hexOr(hex, fallback string) colorful.Color {
	if c, err := colorful.Hex(hex); err == nil {
		return c
	}
	c, _ := colorful.Hex(fallback)
	return c
}

// blendLine steps along a->b one pixel at a time.
func blendLine(img *image.RGBA, a, b PointF, c colorful.Color, alpha float64) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := a.X + (b.X-a.X)*t
		y := a.Y + (b.Y-a.Y)*t
		blendPixel(img, int(math.Round(x)), int(math.Round(y)), c, alpha)
	}
}

func blendPixel(img *image.RGBA, x, y int, c colorful.Color, alpha float64) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	under, ok := colorful.MakeColor(img.RGBAAt(x, y))
	if !ok {
		under = colorful.Color{}
	}
	r, g, b := under.BlendRgb(c, alpha).Clamped().RGB255()
	img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font covering digits, 'x', ',' and ' '.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'x': {"000", "101", "010", "101", "000"},
		',': {"000", "000", "000", "010", "010"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := image.Pt(x+dx, y+dy); p.In(bounds) {
				img.SetRGBA(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if p := image.Pt(cx+col, y+row); pixel == '1' && p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
