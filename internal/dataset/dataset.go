// Package dataset loads the curve-point themes used to draw kolam patterns.
//
// A dataset is a JSON document listing themes. Each theme carries a palette
// (background, stroke and dot fill colours) and sixteen curve-point sets,
// one per pattern id, either inline or inherited from another theme:
//
//	{
//	  "version": 1,
//	  "cell_spacing": 60,
//	  "default_theme": "traditional",
//	  "themes": [
//	    {"name": "traditional", "background": "#ffffff", "stroke": "#000000",
//	     "fill": "#000000", "patterns": [{"id": 1, "points": [[0, -0.28], ...]}, ...]},
//	    {"name": "ocean", "background": "#e3f2fd", "stroke": "#1976d2",
//	     "fill": "#03a9f4", "inherits": "traditional"}
//	  ]
//	}
//
// Points are in unit-cell coordinates centred on the cell's dot, y down.
// [Load] never fails: a missing or malformed file yields the built-in
// fallback dataset and a logged warning.
package dataset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

//go:embed kolam_patterns.json
var embedded []byte

// Source values reported by Dataset.Source.
const (
	SourceEmbedded = "embedded"
	SourceFallback = "fallback"
)

var (
	// ErrMalformed is returned by Parse for documents that cannot be used.
	ErrMalformed = errors.New("dataset: malformed dataset")
)

// Palette holds a theme's colours.
type Palette struct {
	Background colorful.Color
	Stroke     colorful.Color
	Fill       colorful.Color
}

// PaletteHex is the hex form of a Palette, for JSON results.
type PaletteHex struct {
	Background string `json:"background"`
	Stroke     string `json:"stroke"`
	Fill       string `json:"fill"`
}

// Hex returns the palette as "#rrggbb" strings.
func (p Palette) Hex() PaletteHex {
	return PaletteHex{Background: p.Background.Hex(), Stroke: p.Stroke.Hex(), Fill: p.Fill.Hex()}
}

// Theme is a named palette plus its curve-point sets.
type Theme struct {
	Name        string
	Description string
	Palette     Palette
	Curves      kolam.CurveSet
}

// Dataset is an immutable collection of themes.
type Dataset struct {
	version      int
	cellSpacing  float64
	defaultTheme string
	themes       map[string]*Theme
	source       string
}

type fileDoc struct {
	Version      int        `json:"version"`
	CellSpacing  float64    `json:"cell_spacing"`
	DefaultTheme string     `json:"default_theme"`
	Themes       []themeDoc `json:"themes"`
}

type themeDoc struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Background  string       `json:"background"`
	Stroke      string       `json:"stroke"`
	Fill        string       `json:"fill"`
	Inherits    string       `json:"inherits"`
	Patterns    []patternDoc `json:"patterns"`
}

type patternDoc struct {
	ID     int          `json:"id"`
	Points [][2]float64 `json:"points"`
}

// Load reads the dataset at path, or the embedded default when path is
// empty. Any failure is logged and answered with Fallback.
func Load(path string) *Dataset {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("dataset: cannot read %s, using built-in fallback: %v", path, err)
		return Fallback()
	}
	ds, err := Parse(data)
	if err != nil {
		log.Printf("dataset: cannot use %s, using built-in fallback: %v", path, err)
		return Fallback()
	}
	ds.source = path
	return ds
}

// Default returns the embedded dataset.
func Default() *Dataset {
	ds, err := Parse(embedded)
	if err != nil {
		log.Printf("dataset: embedded dataset unusable, using built-in fallback: %v", err)
		return Fallback()
	}
	ds.source = SourceEmbedded
	return ds
}

// Parse decodes and validates a dataset document.
func Parse(data []byte) (*Dataset, error) {
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Themes) == 0 {
		return nil, fmt.Errorf("%w: no themes", ErrMalformed)
	}

	ds := &Dataset{
		version:      doc.Version,
		cellSpacing:  doc.CellSpacing,
		defaultTheme: normalize(doc.DefaultTheme),
		themes:       make(map[string]*Theme, len(doc.Themes)),
	}
	if ds.cellSpacing <= 0 {
		ds.cellSpacing = kolam.DefaultCellSpacing
	}

	byName := make(map[string]themeDoc, len(doc.Themes))
	for _, td := range doc.Themes {
		name := normalize(td.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: theme without a name", ErrMalformed)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate theme %q", ErrMalformed, name)
		}
		byName[name] = td
	}

	for _, td := range doc.Themes {
		name := normalize(td.Name)
		pal, err := parsePalette(td)
		if err != nil {
			return nil, fmt.Errorf("%w: theme %q: %v", ErrMalformed, name, err)
		}
		curves, err := resolveCurves(name, byName)
		if err != nil {
			return nil, fmt.Errorf("%w: theme %q: %v", ErrMalformed, name, err)
		}
		ds.themes[name] = &Theme{Name: name, Description: td.Description, Palette: pal, Curves: curves}
	}

	if ds.defaultTheme == "" {
		ds.defaultTheme = normalize(doc.Themes[0].Name)
	}
	if _, ok := ds.themes[ds.defaultTheme]; !ok {
		return nil, fmt.Errorf("%w: default theme %q not defined", ErrMalformed, ds.defaultTheme)
	}
	return ds, nil
}

// resolveCurves follows the inheritance chain from name to a theme with
// inline patterns.
func resolveCurves(name string, byName map[string]themeDoc) (kolam.CurveSet, error) {
	visited := make(map[string]bool)
	for {
		if visited[name] {
			return kolam.CurveSet{}, fmt.Errorf("inheritance cycle at %q", name)
		}
		visited[name] = true
		td, ok := byName[name]
		if !ok {
			return kolam.CurveSet{}, fmt.Errorf("inherits unknown theme %q", name)
		}
		if len(td.Patterns) > 0 {
			return parseCurves(td.Patterns)
		}
		if td.Inherits == "" {
			return kolam.CurveSet{}, errors.New("no patterns and no parent theme")
		}
		name = normalize(td.Inherits)
	}
}

func parseCurves(patterns []patternDoc) (kolam.CurveSet, error) {
	var set kolam.CurveSet
	for _, p := range patterns {
		if p.ID < 1 || p.ID > 16 {
			return set, fmt.Errorf("pattern id %d out of range 1..16", p.ID)
		}
		if set[p.ID-1] != nil {
			return set, fmt.Errorf("pattern id %d defined twice", p.ID)
		}
		if len(p.Points) < 2 {
			return set, fmt.Errorf("pattern id %d needs at least 2 points", p.ID)
		}
		pts := make([]kolam.Point, len(p.Points))
		for i, xy := range p.Points {
			pts[i] = kolam.Point{X: xy[0], Y: xy[1]}
		}
		set[p.ID-1] = pts
	}
	for i, pts := range set {
		if pts == nil {
			return set, fmt.Errorf("pattern id %d missing", i+1)
		}
	}
	return set, nil
}

func parsePalette(td themeDoc) (Palette, error) {
	var pal Palette
	var err error
	if pal.Background, err = colorful.Hex(td.Background); err != nil {
		return pal, fmt.Errorf("background %q: %w", td.Background, err)
	}
	if pal.Stroke, err = colorful.Hex(td.Stroke); err != nil {
		return pal, fmt.Errorf("stroke %q: %w", td.Stroke, err)
	}
	if pal.Fill, err = colorful.Hex(td.Fill); err != nil {
		return pal, fmt.Errorf("fill %q: %w", td.Fill, err)
	}
	return pal, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Theme looks up a theme by name, case-insensitively.
func (d *Dataset) Theme(name string) (*Theme, bool) {
	t, ok := d.themes[normalize(name)]
	return t, ok
}

// DefaultTheme returns the dataset's default theme.
func (d *Dataset) DefaultTheme() *Theme { return d.themes[d.defaultTheme] }

// Resolve returns the named theme, or the default theme and false when the
// name is unknown. An empty name selects the default theme.
func (d *Dataset) Resolve(name string) (*Theme, bool) {
	if strings.TrimSpace(name) == "" {
		return d.DefaultTheme(), true
	}
	if t, ok := d.Theme(name); ok {
		return t, true
	}
	return d.DefaultTheme(), false
}

// Themes returns all themes sorted by name.
func (d *Dataset) Themes() []*Theme {
	out := make([]*Theme, 0, len(d.themes))
	for _, t := range d.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CellSpacing is the dot spacing in pattern coordinates.
func (d *Dataset) CellSpacing() float64 { return d.cellSpacing }

// Version is the document's version field.
func (d *Dataset) Version() int { return d.version }

// Source names where the dataset came from: a file path, SourceEmbedded or
// SourceFallback.
func (d *Dataset) Source() string { return d.source }

// IsFallback reports whether this is the built-in fallback dataset.
func (d *Dataset) IsFallback() bool { return d.source == SourceFallback }
