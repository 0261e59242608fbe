package dataset

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

const fallbackTheme = "traditional"

// Fallback returns the minimal built-in dataset: one black-on-white theme
// whose loops are octagons reaching out to the cell edge on connected sides.
func Fallback() *Dataset {
	var curves kolam.CurveSet
	for id := 1; id <= 16; id++ {
		cell, _ := kolam.CellFromPatternID(id)
		curves[id-1] = octagon(cell)
	}
	black := colorful.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return &Dataset{
		version:      1,
		cellSpacing:  kolam.DefaultCellSpacing,
		defaultTheme: fallbackTheme,
		themes: map[string]*Theme{
			fallbackTheme: {
				Name:        fallbackTheme,
				Description: "Built-in octagonal loops",
				Palette:     Palette{Background: white, Stroke: black, Fill: black},
				Curves:      curves,
			},
		},
		source: SourceFallback,
	}
}

// octagon returns a closed loop of radius 0.3 whose cardinal vertices move
// out to the cell edge (0.5) on connected sides.
func octagon(cell kolam.Cell) []kolam.Point {
	const r, d, edge = 0.3, 0.212, 0.5
	reach := func(dir kolam.Direction) float64 {
		if cell.Has(dir) {
			return edge
		}
		return r
	}
	return []kolam.Point{
		{X: 0, Y: -reach(kolam.Up)},
		{X: d, Y: -d},
		{X: reach(kolam.Right), Y: 0},
		{X: d, Y: d},
		{X: 0, Y: reach(kolam.Down)},
		{X: -d, Y: d},
		{X: -reach(kolam.Left), Y: 0},
		{X: -d, Y: -d},
		{X: 0, Y: -reach(kolam.Up)},
	}
}
