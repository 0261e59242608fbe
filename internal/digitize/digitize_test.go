package digitize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/detection"
	"github.com/ironsheep/kolam-tools-mcp/internal/generator"
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

func newTestDigitizer() (*Digitizer, *generator.Generator) {
	gen := generator.New(dataset.Default(), generator.Options{})
	return New(gen, Options{}), gen
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// generated renders a pattern and returns its PNG bytes and matrix.
func generated(t *testing.T, gen *generator.Generator, req generator.Request) ([]byte, [][]int) {
	t.Helper()
	res, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	raw, err := imaging.DecodeBase64(res.Image.ImageBase64)
	require.NoError(t, err)
	return raw, res.Matrix
}

func seed(v uint64) *uint64 { return &v }

func TestDigitizeRoundTrip(t *testing.T) {
	d, gen := newTestDigitizer()
	for _, tc := range []struct {
		name string
		req  generator.Request
	}{
		{"5x5 mirror", generator.Request{Dots: 5, Seed: seed(42)}},
		{"7x7 rotational", generator.Request{Dots: 7, Symmetry: "rotational", Seed: seed(7)}},
		{"5x7 horizontal", generator.Request{Rows: 5, Cols: 7, Symmetry: "horizontal", Seed: seed(3)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, want := generated(t, gen, tc.req)

			res, err := d.Digitize(context.Background(), Request{Image: raw})
			require.NoError(t, err)
			require.False(t, res.Degraded, "warnings: %v", res.Warnings)

			assert.Equal(t, len(want), res.Rows)
			assert.Equal(t, len(want[0]), res.Cols)
			assert.Equal(t, want, res.Matrix)
			assert.Equal(t, res.Rows*res.Cols, res.DotsDetected)
			assert.False(t, res.Corrected)
			assert.False(t, res.Inverted)
			require.NotNil(t, res.Lattice)

			original, _, err := imaging.Decode(raw)
			require.NoError(t, err)
			digitizedRaw, err := imaging.DecodeBase64(res.DigitizedImage.ImageBase64)
			require.NoError(t, err)
			digitized, _, err := imaging.Decode(digitizedRaw)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, imaging.CompareImages(original, digitized).SimilarityScore, 0.99)
		})
	}
}

func TestDigitizeAnalyzedImage(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, _ := generated(t, gen, generator.Request{Dots: 5, Seed: seed(1)})

	res, err := d.Digitize(context.Background(), Request{Image: raw})
	require.NoError(t, err)
	require.NotNil(t, res.AnalyzedImage)
	assert.Equal(t, "image/png", res.AnalyzedImage.MimeType)
	// The rectified canvas holds one spare cell around the lattice.
	assert.Equal(t, res.AnalyzedImage.Width/(res.Cols+1), res.AnalyzedImage.Height/(res.Rows+1))
}

func TestDigitizeDarkBackground(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, want := generated(t, gen, generator.Request{Dots: 5, Seed: seed(21)})

	img, _, err := imaging.Decode(raw)
	require.NoError(t, err)
	negative := imaging.Invert(imaging.Grayscale(img))

	res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, negative)})
	require.NoError(t, err)
	assert.True(t, res.Inverted)
	assert.False(t, res.Degraded, "warnings: %v", res.Warnings)
	assert.Equal(t, want, res.Matrix)
}

func TestDigitizePerspective(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, want := generated(t, gen, generator.Request{Dots: 5, Seed: seed(8)})

	img, _, err := imaging.Decode(raw)
	require.NoError(t, err)

	// Output pixel (x, y) reads the flat render at toSrc(x, y); the flat
	// image's corners land on a tilted quadrilateral.
	frame := [4]imaging.PointF{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 500, Y: 500}, {X: 0, Y: 500}}
	tilted := [4]imaging.PointF{{X: 20, Y: 10}, {X: 480, Y: 35}, {X: 490, Y: 490}, {X: 5, Y: 470}}
	toSrc, err := imaging.SolveHomography(tilted, frame)
	require.NoError(t, err)
	warped := imaging.Warp(imaging.Grayscale(img), toSrc, 500, 500)

	res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, warped)})
	require.NoError(t, err)
	require.False(t, res.Degraded, "warnings: %v", res.Warnings)
	assert.True(t, res.Corrected)
	assert.Equal(t, want, res.Matrix)
}

func TestDigitizeRotated(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, want := generated(t, gen, generator.Request{
		Dots:   7,
		Seed:   seed(8),
		Output: generator.Output{Width: 300, Height: 300},
	})

	img, _, err := imaging.Decode(raw)
	require.NoError(t, err)

	// Turn the render 8 degrees about its centre and shrink it to 85%.
	const size = 300.0
	sin, cos := math.Sincos(8 * math.Pi / 180)
	frame := [4]imaging.PointF{{X: 0, Y: 0}, {X: size, Y: 0}, {X: size, Y: size}, {X: 0, Y: size}}
	var turned [4]imaging.PointF
	for i, p := range frame {
		x, y := (p.X-size/2)*0.85, (p.Y-size/2)*0.85
		turned[i] = imaging.PointF{X: size/2 + x*cos - y*sin, Y: size/2 + x*sin + y*cos}
	}
	toSrc, err := imaging.SolveHomography(turned, frame)
	require.NoError(t, err)
	warped := imaging.Warp(imaging.Grayscale(img), toSrc, int(size), int(size))

	res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, warped)})
	require.NoError(t, err)
	require.False(t, res.Degraded, "warnings: %v", res.Warnings)
	require.NotNil(t, res.Lattice)
	assert.InDelta(t, 8, res.Lattice.Rotation, 1)
	assert.True(t, res.Corrected)
	assert.Equal(t, want, res.Matrix)
}

func TestDigitizeDownscalesLargeInput(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, want := generated(t, gen, generator.Request{
		Dots:   5,
		Seed:   seed(4),
		Output: generator.Output{Width: 1200, Height: 1200},
	})

	res, err := d.Digitize(context.Background(), Request{Image: raw})
	require.NoError(t, err)
	assert.True(t, res.Input.Downscaled)
	assert.Equal(t, 1200, res.Input.Width)
	assert.Equal(t, want, res.Matrix)
}

func TestDigitizeTheme(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, _ := generated(t, gen, generator.Request{Dots: 4, Seed: seed(6)})

	res, err := d.Digitize(context.Background(), Request{
		Image:  raw,
		Theme:  "forest",
		Output: generator.Output{Width: 256, Height: 256, SVG: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "forest", res.Pattern.Theme)
	assert.Equal(t, "digitized-4x4", res.Pattern.ID)
	assert.Equal(t, 256, res.DigitizedImage.Width)
	assert.NotEmpty(t, res.DigitizedImage.SVG)
}

func TestDigitizeUnknownThemeWarns(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, _ := generated(t, gen, generator.Request{Dots: 4, Seed: seed(6)})

	res, err := d.Digitize(context.Background(), Request{Image: raw, Theme: "neon"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "neon")
	assert.Equal(t, "traditional", res.Pattern.Theme)
}

func TestDigitizeBlankImageDegrades(t *testing.T) {
	d, _ := newTestDigitizer()
	blank := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}

	res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, blank)})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.Cols)
	assert.Equal(t, [][]int{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}, res.Matrix)
	assert.Nil(t, res.Lattice)
	assert.NotNil(t, res.DigitizedImage)
	assert.NotNil(t, res.AnalyzedImage)
}

func TestDigitizeThinImages(t *testing.T) {
	d, _ := newTestDigitizer()
	for _, size := range []image.Point{{1, 1}, {1, 40}, {40, 1}} {
		t.Run(fmt.Sprintf("%dx%d", size.X, size.Y), func(t *testing.T) {
			img := image.NewGray(image.Rect(0, 0, size.X, size.Y))
			for i := range img.Pix {
				img.Pix[i] = 0xff
			}

			res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, img)})
			require.NoError(t, err)
			assert.True(t, res.Degraded)
			assert.Equal(t, [][]int{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}, res.Matrix)
			assert.NotNil(t, res.DigitizedImage)
			assert.NotNil(t, res.AnalyzedImage)
		})
	}
}

func TestDigitizeNoLatticeDegrades(t *testing.T) {
	d, _ := newTestDigitizer()
	img := image.NewGray(image.Rect(0, 0, 300, 300))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	// A cross with no dots at all.
	for i := 60; i < 240; i++ {
		for w := -2; w <= 2; w++ {
			img.SetGray(i, 150+w, color.Gray{})
			img.SetGray(150+w, i, color.Gray{})
		}
	}

	res, err := d.Digitize(context.Background(), Request{Image: encodePNG(t, img)})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Zero(t, res.DotsDetected)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "no dot lattice")

	// The fallback lattice spans the cross, whose arms run through the
	// middle of every edge between the centre and its neighbours.
	assert.Equal(t, [][]int{{1, 2, 1}, {3, 16, 5}, {1, 4, 1}}, res.Matrix)
}

func TestDigitizeUnreadable(t *testing.T) {
	d, _ := newTestDigitizer()
	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		_, err := d.Digitize(context.Background(), Request{Image: data})
		assert.ErrorIs(t, err, ErrUnreadableImage)
	}
}

func TestDigitizeCancelled(t *testing.T) {
	d, gen := newTestDigitizer()
	raw, _ := generated(t, gen, generator.Request{Dots: 3, Seed: seed(1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Digitize(ctx, Request{Image: raw})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGridSkewed(t *testing.T) {
	square := [4]imaging.PointF{{X: 10, Y: 10}, {X: 110, Y: 10}, {X: 110, Y: 110}, {X: 10, Y: 110}}
	g, err := newGrid(3, 3, square, 50, image.Rect(0, 0, 120, 120))
	require.NoError(t, err)
	assert.False(t, g.skewed())

	tilted := square
	tilted[1] = imaging.PointF{X: 110, Y: 25}
	g, err = newGrid(3, 3, tilted, 50, image.Rect(0, 0, 120, 120))
	require.NoError(t, err)
	assert.True(t, g.skewed())
}

func TestFitGridRejectsSmallLattice(t *testing.T) {
	var dots []detection.Dot
	for r := 0; r < 2; r++ {
		for c := 0; c < 5; c++ {
			dots = append(dots, detection.Dot{Center: imaging.PointF{X: float64(c) * 30, Y: float64(r) * 30}})
		}
	}
	_, err := fitGrid(dots, 200, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}
