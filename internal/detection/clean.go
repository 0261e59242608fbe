package detection

import (
	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

// CleanOptions controls Clean.
type CleanOptions struct {
	// MinArea is the smallest component kept; smaller ones are speckles.
	MinArea int

	// MaxSolidArea is the largest solid component kept. Solid components
	// (fill ratio at least SolidFill) above it are treated as shadows.
	MaxSolidArea int

	// SolidFill is the fill ratio from which a component counts as solid.
	SolidFill float64
}

// DefaultCleanOptions derives thresholds from the mask size. The solid-area
// limit is the area of the largest plausible dot: a disc spanning a sixth of
// the short side.
func DefaultCleanOptions(width, height int) CleanOptions {
	side := min(width, height) / 6
	return CleanOptions{
		MinArea:      4,
		MaxSolidArea: max(64, side*side),
		SolidFill:    0.6,
	}
}

// CleanStats reports what Clean removed.
type CleanStats struct {
	Speckles int `json:"speckles"`
	Shadows  int `json:"shadows"`
	Kept     int `json:"kept"`
}

// Clean removes speckles and shadow blobs from m. It returns the cleaned
// mask together with the labelling of the kept components.
//
// A shadow is either a solid component larger than MaxSolidArea, or a
// component touching the frame that is both mostly solid (fill ratio of at
// least half SolidFill) and larger than a quarter of MaxSolidArea.
func Clean(m *imaging.Mask, opts CleanOptions) (*imaging.Mask, *Labeling, CleanStats) {
	var stats CleanStats
	labels := Label(m)
	cleaned := labels.Mask(func(c Component) bool {
		switch {
		case c.Area < opts.MinArea:
			stats.Speckles++
			return false
		case isShadow(c, opts):
			stats.Shadows++
			return false
		}
		stats.Kept++
		return true
	})
	return cleaned, Label(cleaned), stats
}

func isShadow(c Component, opts CleanOptions) bool {
	fill := c.FillRatio()
	if c.Area > opts.MaxSolidArea && fill >= opts.SolidFill {
		return true
	}
	return c.TouchesBorder && fill >= opts.SolidFill/2 && c.Area > opts.MaxSolidArea/4
}
