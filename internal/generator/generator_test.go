package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/kolam-tools-mcp/internal/dataset"
	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

func seed(v uint64) *uint64 { return &v }

func newTestGenerator() *Generator {
	return New(dataset.Default(), Options{CanvasSize: 300})
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator()
	res, err := g.Generate(context.Background(), Request{Dots: 5, Theme: "ocean", Seed: seed(42)})
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, 5, res.Pattern.Grid.Rows)
	assert.Equal(t, 5, res.Pattern.Grid.Cols)
	assert.Equal(t, kolam.SymmetryMirror, res.Pattern.Symmetry)
	assert.Equal(t, "ocean", res.Pattern.Theme)
	assert.Equal(t, "#1976d2", res.Palette.Stroke)
	assert.Len(t, res.Pattern.Dots, 25)
	assert.Equal(t, "#03a9f4", res.Pattern.Dots[0].Color)

	m, err := kolam.MatrixFromPatternIDs(res.Matrix)
	require.NoError(t, err)
	assert.True(t, kolam.Satisfies(m, kolam.SymmetryMirror))

	require.NotNil(t, res.Image)
	assert.Equal(t, 300, res.Image.Width)
	assert.Equal(t, 300, res.Image.Height)
	assert.NotEmpty(t, res.Image.ImageBase64)
	assert.Empty(t, res.Image.SVG)
}

func TestGenerateDeterministic(t *testing.T) {
	g := newTestGenerator()
	a, err := g.Generate(context.Background(), Request{Rows: 7, Symmetry: "rotational", Seed: seed(9)})
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), Request{Rows: 7, Symmetry: "rotational", Seed: seed(9)})
	require.NoError(t, err)

	assert.Equal(t, a.Matrix, b.Matrix)
	assert.Equal(t, a.Pattern.ID, b.Pattern.ID)
	assert.Equal(t, "kolam-7x7-rotational-9", a.Pattern.ID)
}

func TestGenerateRandomSeedIsReported(t *testing.T) {
	g := newTestGenerator()
	a, err := g.Generate(context.Background(), Request{Dots: 6})
	require.NoError(t, err)

	b, err := g.Generate(context.Background(), Request{Dots: 6, Seed: seed(a.Seed)})
	require.NoError(t, err)
	assert.Equal(t, a.Matrix, b.Matrix)
}

func TestGenerateGridShape(t *testing.T) {
	g := newTestGenerator()
	tests := []struct {
		name       string
		req        Request
		rows, cols int
	}{
		{"dots", Request{Dots: 4}, 4, 4},
		{"rows only", Request{Rows: 6}, 6, 6},
		{"cols only", Request{Cols: 8}, 8, 8},
		{"rectangular", Request{Rows: 4, Cols: 9, Symmetry: "horizontal"}, 4, 9},
		{"rows override dots", Request{Dots: 3, Rows: 5, Cols: 5}, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Seed = seed(1)
			res, err := g.Generate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, res.Pattern.Grid.Rows)
			assert.Equal(t, tt.cols, res.Pattern.Grid.Cols)
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	g := newTestGenerator()
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"too small", Request{Dots: 2}, kolam.ErrGridTooSmall},
		{"missing size", Request{}, kolam.ErrGridTooSmall},
		{"too large", Request{Dots: 16}, kolam.ErrGridTooLarge},
		{"rotational needs square", Request{Rows: 4, Cols: 6, Symmetry: "rotational"}, kolam.ErrSymmetryNeedsSquare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestGenerator().Generate(ctx, Request{Dots: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateWarnings(t *testing.T) {
	g := newTestGenerator()
	res, err := g.Generate(context.Background(), Request{
		Dots:          5,
		Theme:         "neon",
		Symmetry:      "spiral",
		Seed:          seed(3),
		Customization: kolam.Customization{Density: "heavy"},
	})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0], "spiral")
	assert.Contains(t, res.Warnings[1], "neon")
	assert.Contains(t, res.Warnings[2], "heavy")
	assert.Equal(t, "traditional", res.Pattern.Theme)
	assert.Equal(t, kolam.SymmetryNone, res.Pattern.Symmetry)
}

func TestGenerateCustomization(t *testing.T) {
	g := newTestGenerator()
	plain, err := g.Generate(context.Background(), Request{Dots: 5, Seed: seed(11)})
	require.NoError(t, err)

	dense, err := g.Generate(context.Background(), Request{
		Dots: 5,
		Seed: seed(11),
		Customization: kolam.Customization{
			Density:       kolam.DensityDense,
			LineThickness: 4,
			DotSize:       5,
		},
	})
	require.NoError(t, err)

	assert.Len(t, dense.Pattern.Curves, 2*len(plain.Pattern.Curves))
	assert.Equal(t, 4.0, dense.Pattern.Curves[0].StrokeWidth)
	assert.Equal(t, 5.0, dense.Pattern.Dots[0].Radius)
	assert.Equal(t, plain.Matrix, dense.Matrix)
}

func TestGenerateOutput(t *testing.T) {
	g := newTestGenerator()
	res, err := g.Generate(context.Background(), Request{
		Dots:   3,
		Seed:   seed(5),
		Output: Output{Width: 200, Height: 120, HideDots: true, SVG: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 200, res.Image.Width)
	assert.Equal(t, 120, res.Image.Height)
	assert.Contains(t, res.Image.SVG, "<polyline")
	assert.NotContains(t, res.Image.SVG, "<circle")
}

func TestRenderMatrix(t *testing.T) {
	m, err := kolam.MatrixFromPatternIDs([][]int{
		{6, 10, 9},
		{4, 1, 4},
		{1, 1, 1},
	})
	require.NoError(t, err)

	res, err := newTestGenerator().RenderMatrix(context.Background(), m, RenderRequest{Theme: "golden"})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{6, 10, 9}, {4, 1, 4}, {1, 1, 1}}, res.Matrix)
	assert.Equal(t, kolam.SymmetryNone, res.Pattern.Symmetry)
	assert.Equal(t, "golden", res.Pattern.Theme)
	assert.Empty(t, res.Warnings)
}

func TestFallbackDatasetGenerates(t *testing.T) {
	g := New(dataset.Fallback(), Options{})
	res, err := g.Generate(context.Background(), Request{Dots: 4, Seed: seed(2)})
	require.NoError(t, err)
	assert.Equal(t, "traditional", res.Pattern.Theme)
	assert.Equal(t, 500, res.Image.Width)
}
