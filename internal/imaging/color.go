package imaging

import (
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorFrequency represents a quantized color and how much of the image it
// covers.
type ColorFrequency struct {
	Hex        string  `json:"hex"`        // Hex color "#rrggbb" (quantized)
	Percentage float64 `json:"percentage"` // Share of sampled pixels (0-100)
	Lightness  float64 `json:"lightness"`  // HSL lightness (0-1)
}

// DominantColors returns up to count of the most common colors in img, most
// common first. A count of zero returns all of them.
//
// # Color Quantization
//
// Components are quantized to multiples of 16 before counting so that
// slightly different shades of the same floor or chalk group together:
//
//	quantized = (original / 16) * 16
//
// # Sampling
//
// Large regions are sampled on a stride so that at most about 250,000
// pixels are read.
func DominantColors(img image.Image, count int) []ColorFrequency {
	bounds := img.Bounds()
	step := 1
	for (bounds.Dx()/step)*(bounds.Dy()/step) > 250000 {
		step++
	}

	type key struct{ r, g, b uint8 }
	counts := make(map[key]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			counts[key{uint8((r >> 8) / 16 * 16), uint8((g >> 8) / 16 * 16), uint8((b >> 8) / 16 * 16)}]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		c := colorful.Color{R: float64(k.r) / 255, G: float64(k.g) / 255, B: float64(k.b) / 255}
		_, _, l := c.Hsl()
		colors = append(colors, ColorFrequency{
			Hex:        c.Hex(),
			Percentage: float64(n) / float64(total) * 100,
			Lightness:  l,
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors
}

// DarkBackground reports whether the most common color of img is dark
// (HSL lightness below one half), as with chalk drawn on a dark floor.
func DarkBackground(img image.Image) bool {
	colors := DominantColors(img, 1)
	if len(colors) == 0 {
		return false
	}
	return colors[0].Lightness < 0.5
}
