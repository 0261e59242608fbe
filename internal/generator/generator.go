// Package generator produces themed kolam patterns: it draws a
// symmetric connectivity matrix, maps it onto a theme's curve points and
// renders the result.
package generator

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
	"github.com/ironsheep/kolam-tools-mcp/internal/render"
)

// Options configures a Generator.
type Options struct {
	// CanvasSize is the default render width and height.
	CanvasSize int
	// Debug enables per-request log lines.
	Debug bool
}

// Generator turns requests into rendered patterns. It is safe for
// concurrent use; the dataset is read-only.
type Generator struct {
	data *dataset.Dataset
	opts Options
}

// New returns a Generator over data. A nil dataset uses dataset.Default.
func New(data *dataset.Dataset, opts Options) *Generator {
	if data == nil {
		data = dataset.Default()
	}
	if opts.CanvasSize <= 0 {
		opts.CanvasSize = render.DefaultSize
	}
	return &Generator{data: data, opts: opts}
}

// Dataset returns the themes the generator draws from.
func (g *Generator) Dataset() *dataset.Dataset { return g.data }

// Request describes a pattern to generate.
//
// Dots selects a square grid; Rows and Cols override it. When only Rows is
// set the grid is square.
type Request struct {
	Dots     int    `json:"dots,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Cols     int    `json:"cols,omitempty"`
	Symmetry string `json:"symmetry,omitempty"`
	Theme    string `json:"theme,omitempty"`

	// Seed makes the draw reproducible. Nil picks a random seed, which is
	// reported in the result.
	Seed *uint64 `json:"seed,omitempty"`

	// Connectivity is the chance an edge orbit is connected. Zero uses
	// kolam.DefaultConnectivity.
	Connectivity float64 `json:"connectivity,omitempty"`

	Customization kolam.Customization `json:"customization"`
	Output        Output              `json:"output"`
}

// Output selects how a pattern is rendered. Zero sizes use the generator's
// canvas size.
type Output struct {
	Width    int  `json:"width,omitempty"`
	Height   int  `json:"height,omitempty"`
	HideDots bool `json:"hide_dots,omitempty"`
	SVG      bool `json:"svg,omitempty"`
}

// Result is a generated pattern.
type Result struct {
	Pattern  *kolam.Pattern     `json:"pattern"`
	Matrix   [][]int            `json:"matrix"`
	Image    *render.Result     `json:"image"`
	Palette  dataset.PaletteHex `json:"palette"`
	Seed     uint64             `json:"seed"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Generate draws a matrix for req and renders it.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, cols := req.Rows, req.Cols
	if rows == 0 && cols == 0 {
		rows, cols = req.Dots, req.Dots
	} else if cols == 0 {
		cols = rows
	} else if rows == 0 {
		rows = cols
	}
	if err := kolam.CheckSize(rows, cols); err != nil {
		return nil, err
	}

	var warnings []string
	sym := kolam.DefaultSymmetry
	if req.Symmetry != "" {
		s, ok := kolam.ParseSymmetry(req.Symmetry)
		sym = s
		if !ok {
			warnings = append(warnings, g.warn("unknown symmetry %q, using %s", req.Symmetry, sym))
		}
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	m, err := kolam.BuildMatrix(rows, cols, kolam.BuildOptions{
		Symmetry:     sym,
		Connectivity: req.Connectivity,
		Rand:         kolam.NewRand(seed),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %dx%d %s matrix: %w", rows, cols, sym, err)
	}
	if g.opts.Debug {
		log.Printf("generator: %dx%d %s seed=%d connected=%d", rows, cols, sym, seed, m.Connected())
	}

	res, err := g.RenderMatrix(ctx, m, RenderRequest{
		Symmetry:      sym,
		Theme:         req.Theme,
		Customization: req.Customization,
		Output:        req.Output,
	})
	if err != nil {
		return nil, err
	}
	res.Seed = seed
	res.Pattern.ID = fmt.Sprintf("kolam-%dx%d-%s-%d", rows, cols, sym, seed)
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// RenderRequest describes how to draw an existing matrix.
type RenderRequest struct {
	Symmetry      kolam.Symmetry
	Theme         string
	Customization kolam.Customization
	Output        Output
}

// RenderMatrix describes m with the requested theme, applies the
// customization and renders it. Unknown themes and densities fall back to
// defaults with a warning.
func (g *Generator) RenderMatrix(ctx context.Context, m *kolam.Matrix, req RenderRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var warnings []string
	theme, ok := g.data.Resolve(req.Theme)
	if !ok {
		warnings = append(warnings, g.warn("unknown theme %q, using %s", req.Theme, theme.Name))
	}

	custom := req.Customization
	if custom.Density != "" {
		d, ok := kolam.ParseDensity(string(custom.Density))
		if !ok {
			warnings = append(warnings, g.warn("unknown density %q, using %s", custom.Density, d))
		}
		custom.Density = d
	}

	p := kolam.Describe(m, &theme.Curves, g.data.CellSpacing())
	p.Symmetry = req.Symmetry
	if p.Symmetry == "" {
		p.Symmetry = kolam.SymmetryNone
	}
	p.Theme = theme.Name
	p.Name = fmt.Sprintf("%s %dx%d kolam", theme.Name, m.Rows(), m.Cols())
	paint(p, theme.Palette)
	p = kolam.Customize(p, custom)

	opts := render.Options{
		Width:       req.Output.Width,
		Height:      req.Output.Height,
		IncludeDots: !req.Output.HideDots,
		SVG:         req.Output.SVG,
	}
	if opts.Width == 0 {
		opts.Width = g.opts.CanvasSize
	}
	if opts.Height == 0 {
		opts.Height = g.opts.CanvasSize
	}
	img, err := render.Render(p, theme.Palette, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Pattern:  p,
		Matrix:   m.PatternIDs(),
		Image:    img,
		Palette:  theme.Palette.Hex(),
		Warnings: warnings,
	}, nil
}

// paint colours dots and curves with the theme palette.
func paint(p *kolam.Pattern, palette dataset.Palette) {
	fill, stroke := palette.Fill.Hex(), palette.Stroke.Hex()
	for i := range p.Dots {
		p.Dots[i].Color = fill
	}
	for i := range p.Curves {
		p.Curves[i].Color = stroke
	}
}

func (g *Generator) warn(format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	log.Printf("generator: %s", msg)
	return msg
}
