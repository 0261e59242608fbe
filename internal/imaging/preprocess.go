package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ThresholdOptions tunes AdaptiveThreshold.
type ThresholdOptions struct {
	// Radius of the box window used for the local mean. Zero derives it from
	// the image size: max(7, min(width, height)/40).
	Radius int

	// Offset is subtracted from the local mean; a pixel is ink only when it
	// is darker than mean - Offset.
	Offset float64

	// Global additionally requires ink to be darker than the image's Otsu
	// level, suppressing paper texture in bright regions.
	Global bool
}

// DefaultThresholdOptions returns the options used for photographed kolams.
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{Offset: 10, Global: true}
}

// FlattenAlpha composites img onto an opaque white canvas so transparent
// regions read as paper rather than black.
func FlattenAlpha(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// Grayscale converts img to 8-bit luminance after flattening transparency.
func Grayscale(img image.Image) *image.Gray {
	return redChannel(effect.Grayscale(FlattenAlpha(img)))
}

// redChannel converts the output of a bild filter run on a gray image back
// to gray. All three channels carry the same value, so one is copied.
func redChannel(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: img.RGBAAt(x, y).R})
		}
	}
	return out
}

// toGray copies an opaque image whose channels are equal into a gray image.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Invert returns the photographic negative of g.
func Invert(g *image.Gray) *image.Gray {
	return redChannel(effect.Invert(g))
}

// Denoise applies a Gaussian blur of the given radius.
func Denoise(g *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return g
	}
	return redChannel(blur.Gaussian(g, radius))
}

// FlattenIllumination divides g by an estimate of its background brightness,
// lifting shadowed regions toward paper white while keeping ink dark.
//
// The background is estimated by a dilation (local maximum) that erases
// strokes thinner than radius, followed by a box blur of twice the radius.
// Both run on a copy shrunk by about radius/2, so the dilation window stays
// at most 5x5 pixels whatever the radius.
func FlattenIllumination(g *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return g
	}
	b := g.Bounds()
	factor := max(1, radius/2)
	small := imaging.Resize(g, max(1, b.Dx()/factor), max(1, b.Dy()/factor), imaging.Box)
	r := float64(max(1, radius/factor))
	bgSmall := blur.Box(effect.Dilate(small, r), 2*r)
	bg := toGray(imaging.Resize(bgSmall, b.Dx(), b.Dy(), imaging.Linear))

	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(g.GrayAt(x, y).Y)
			base := math.Max(float64(bg.GrayAt(x-b.Min.X, y-b.Min.Y).Y), v)
			if base < 1 {
				out.SetGray(x, y, color.Gray{Y: 0})
				continue
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(255 * v / base))})
		}
	}
	return out
}

// AdaptiveThreshold marks pixels darker than their neighbourhood as ink.
//
// A pixel is ink when its value is below the box-filtered local mean minus
// opts.Offset. With opts.Global set it must also fall below the Otsu level
// of the whole image.
func AdaptiveThreshold(g *image.Gray, opts ThresholdOptions) *Mask {
	b := g.Bounds()
	radius := opts.Radius
	if radius <= 0 {
		radius = max(7, min(b.Dx(), b.Dy())/40)
	}
	mean := redChannel(blur.Box(g, float64(radius)))

	var global *image.Gray
	if opts.Global {
		global = segment.Threshold(g, Otsu(g))
	}

	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			local := float64(mean.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			ink := v < local-opts.Offset
			if ink && global != nil {
				ink = global.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0
			}
			m.Pix[y*m.Width+x] = ink
		}
	}
	return m
}

// Otsu returns the threshold that best separates g's histogram into two
// classes (maximum between-class variance).
func Otsu(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, best float64
	var wB int
	level := 128
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t + 1
		}
	}
	return uint8(min(level, 255))
}

// GrayStats returns the mean and standard deviation of g's pixel values.
func GrayStats(g *image.Gray) (mean, stddev float64) {
	b := g.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}
	var sum, sq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(g.GrayAt(x, y).Y)
			sum += v
			sq += v * v
		}
	}
	mean = sum / n
	return mean, math.Sqrt(math.Max(0, sq/n-mean*mean))
}
