package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

func TestDefaultDataset(t *testing.T) {
	ds := Default()
	require.False(t, ds.IsFallback())
	assert.Equal(t, SourceEmbedded, ds.Source())
	assert.Equal(t, 60.0, ds.CellSpacing())
	assert.Equal(t, "traditional", ds.DefaultTheme().Name)

	names := make([]string, 0)
	for _, th := range ds.Themes() {
		names = append(names, th.Name)
	}
	assert.Equal(t, []string{"colorful", "forest", "geometric", "golden", "ocean", "sunset", "traditional"}, names)

	ocean, ok := ds.Theme("Ocean")
	require.True(t, ok)
	assert.Equal(t, PaletteHex{Background: "#e3f2fd", Stroke: "#1976d2", Fill: "#03a9f4"}, ocean.Palette.Hex())
	assert.Equal(t, ds.DefaultTheme().Curves, ocean.Curves, "ocean inherits traditional curves")
}

// Connected sides reach the cell edge; the others stay well inside it.
func TestDefaultCurvesTouchEdgesOnlyWhenConnected(t *testing.T) {
	for _, th := range Default().Themes() {
		for id := 1; id <= 16; id++ {
			cell, err := kolam.CellFromPatternID(id)
			require.NoError(t, err)
			pts := th.Curves[id-1]
			for _, d := range kolam.Directions {
				reach := 0.0
				for _, p := range pts {
					switch d {
					case kolam.Up:
						reach = math.Max(reach, -p.Y)
					case kolam.Right:
						reach = math.Max(reach, p.X)
					case kolam.Down:
						reach = math.Max(reach, p.Y)
					case kolam.Left:
						reach = math.Max(reach, -p.X)
					}
				}
				if cell.Has(d) {
					assert.InDelta(t, 0.5, reach, 1e-3, "%s pattern %d side %s", th.Name, id, d)
				} else {
					assert.Less(t, reach, 0.4, "%s pattern %d side %s", th.Name, id, d)
				}
			}
		}
	}
}

func TestResolve(t *testing.T) {
	ds := Default()

	th, ok := ds.Resolve("")
	assert.True(t, ok)
	assert.Equal(t, "traditional", th.Name)

	th, ok = ds.Resolve("neon")
	assert.False(t, ok)
	assert.Equal(t, "traditional", th.Name)

	th, ok = ds.Resolve("golden")
	assert.True(t, ok)
	assert.Equal(t, "golden", th.Name)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	ds := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NotNil(t, ds)
	assert.True(t, ds.IsFallback())
	th, ok := ds.Theme("traditional")
	require.True(t, ok)
	for i := range th.Curves {
		assert.Len(t, th.Curves[i], 9)
	}
}

func TestLoadMalformedFallsBack(t *testing.T) {
	tests := map[string]string{
		"bad json":       `{"themes": [`,
		"no themes":      `{"version": 1, "themes": []}`,
		"bad colour":     `{"themes": [{"name": "a", "background": "white", "stroke": "#000000", "fill": "#000000", "inherits": "a"}]}`,
		"missing parent": `{"themes": [{"name": "a", "background": "#ffffff", "stroke": "#000000", "fill": "#000000", "inherits": "b"}]}`,
		"short set":      `{"themes": [{"name": "a", "background": "#ffffff", "stroke": "#000000", "fill": "#000000", "patterns": [{"id": 1, "points": [[0, 0], [1, 1]]}]}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ds.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := Parse([]byte(body))
			assert.ErrorIs(t, err, ErrMalformed)

			ds := Load(path)
			assert.True(t, ds.IsFallback())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, os.WriteFile(path, embedded, 0o644))

	ds := Load(path)
	assert.False(t, ds.IsFallback())
	assert.Equal(t, path, ds.Source())
	assert.Len(t, ds.Themes(), 7)
}

func TestEmptyPathUsesEmbedded(t *testing.T) {
	assert.Equal(t, SourceEmbedded, Load("").Source())
}
