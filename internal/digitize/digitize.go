// Package digitize recovers a kolam's connectivity matrix from a photograph
// or scan and re-renders it as a clean pattern.
//
// The pipeline is:
//
//  1. decode and downscale oversized input
//  2. grayscale, then invert when the background is dark so ink is dark
//  3. Gaussian denoise
//  4. illumination flattening and adaptive threshold
//  5. speckle and shadow removal
//  6. dot detection and lattice estimation
//  7. perspective correction from the lattice's corner dots
//  8. edge classification by sampling ink between neighbouring dots
//  9. re-rendering through the generator
//
// Images that defeat steps 4-7 (low contrast, no recognisable lattice) are
// not errors: the result is marked Degraded and classified against a 3x3
// lattice spread over the ink's bounding box.
package digitize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/kolam-tools-mcp/internal/detection"
	"github.com/ironsheep/kolam-tools-mcp/internal/generator"
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
	"github.com/ironsheep/kolam-tools-mcp/internal/render"
)

// ErrUnreadableImage is returned when the input cannot be decoded.
var ErrUnreadableImage = errors.New("digitize: unreadable image")

// lowContrastStdDev is the gray-level standard deviation below which an
// image is treated as blank.
const lowContrastStdDev = 10.0

// Options configures a Digitizer.
type Options struct {
	// MaxImageDim is the longest side processed; larger inputs are scaled
	// down. Zero uses imaging.DefaultMaxDimension.
	MaxImageDim int
	// Debug logs per-stage statistics.
	Debug bool
}

// Digitizer runs the recognition pipeline. It holds no per-request state.
type Digitizer struct {
	gen  *generator.Generator
	opts Options
}

// New returns a Digitizer that re-renders through gen.
func New(gen *generator.Generator, opts Options) *Digitizer {
	if opts.MaxImageDim <= 0 {
		opts.MaxImageDim = imaging.DefaultMaxDimension
	}
	return &Digitizer{gen: gen, opts: opts}
}

// Request is one image to digitize.
type Request struct {
	Image  []byte
	Theme  string
	Output generator.Output
}

// Result describes the recovered pattern.
type Result struct {
	Rows   int     `json:"rows"`
	Cols   int     `json:"cols"`
	Matrix [][]int `json:"matrix"`

	Pattern        *kolam.Pattern       `json:"pattern"`
	AnalyzedImage  *imaging.ImageResult `json:"analyzed_image"`
	DigitizedImage *render.Result       `json:"digitized_image"`

	Input        *imaging.ImageInfo   `json:"input"`
	Cleanup      detection.CleanStats `json:"cleanup"`
	Lattice      *detection.Lattice   `json:"lattice,omitempty"`
	DotsDetected int                  `json:"dots_detected"`
	Inverted     bool                 `json:"inverted"`
	Corrected    bool                 `json:"perspective_corrected"`
	Degraded     bool                 `json:"degraded"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// Digitize runs the pipeline on req.Image.
func (d *Digitizer) Digitize(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, info, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	img, info.Downscaled = imaging.LimitSize(img, d.opts.MaxImageDim)

	res := &Result{Input: info}

	gray := imaging.Grayscale(img)
	if imaging.DarkBackground(img) {
		gray = imaging.Invert(gray)
		res.Inverted = true
	}
	gray = imaging.Denoise(gray, 1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	minDim := min(w, h)

	var mask *imaging.Mask
	_, stddev := imaging.GrayStats(gray)
	if stddev < lowContrastStdDev {
		res.warn("low contrast image (stddev %.1f)", stddev)
		mask = imaging.NewMask(w, h)
	} else {
		flat := imaging.FlattenIllumination(gray, max(5, minDim/50))
		mask = imaging.AdaptiveThreshold(flat, imaging.DefaultThresholdOptions())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned, labels, stats := detection.Clean(mask, detection.DefaultCleanOptions(w, h))
	res.Cleanup = stats
	dots := detection.DetectDots(labels, detection.DefaultDotOptions(w, h))
	res.DotsDetected = len(dots)
	if d.opts.Debug {
		log.Printf("digitize: %dx%d input, %d components kept, %d speckles, %d shadows, %d dots",
			w, h, stats.Kept, stats.Speckles, stats.Shadows, len(dots))
	}

	grid, err := fitGrid(dots, w, h)
	if err != nil {
		if !res.Degraded {
			res.warn("%v", err)
		}
		grid = fallbackGrid(cleaned)
	} else {
		res.Lattice = grid.lattice
		res.Corrected = grid.skewed()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := grid.classify(cleaned)
	res.Rows, res.Cols = m.Rows(), m.Cols()

	analyzed, err := imaging.EncodePNG(grid.overlay(gray, dots))
	if err != nil {
		return nil, err
	}
	res.AnalyzedImage = analyzed

	out, err := d.gen.RenderMatrix(ctx, m, generator.RenderRequest{
		Theme:  req.Theme,
		Output: req.Output,
	})
	if err != nil {
		return nil, err
	}
	res.Pattern = out.Pattern
	res.Pattern.ID = fmt.Sprintf("digitized-%dx%d", m.Rows(), m.Cols())
	res.Pattern.Name = fmt.Sprintf("digitized %dx%d kolam", m.Rows(), m.Cols())
	res.Matrix = out.Matrix
	res.DigitizedImage = out.Image
	res.Warnings = append(res.Warnings, out.Warnings...)
	return res, nil
}

// warn records a degradation. Every warning raised before classification
// means the fallback lattice is in use.
func (r *Result) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("digitize: %s", msg)
	r.Warnings = append(r.Warnings, msg)
	r.Degraded = true
}

// fitGrid turns detected dots into a grid. The lattice must have a valid
// kolam size and non-degenerate corners.
func fitGrid(dots []detection.Dot, w, h int) (*grid, error) {
	lat, err := detection.EstimateLattice(dots)
	if err != nil {
		return nil, fmt.Errorf("no dot lattice found: %w", err)
	}
	if err := kolam.CheckSize(lat.Rows, lat.Cols); err != nil {
		return nil, fmt.Errorf("dot lattice rejected: %w", err)
	}
	g, err := newGrid(lat.Rows, lat.Cols, lat.Corners, lat.Spacing, image.Rect(0, 0, w, h))
	if err != nil {
		return nil, fmt.Errorf("dot lattice rejected: %w", err)
	}
	g.lattice = lat
	return g, nil
}
