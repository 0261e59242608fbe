package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/kolam-tools-mcp/internal/imaging"
)

// fillDisc marks a solid disc centred on (cx, cy).
func fillDisc(m *imaging.Mask, cx, cy, r float64) {
	for y := int(cy - r - 1); y <= int(cy+r+1); y++ {
		for x := int(cx - r - 1); x <= int(cx+r+1); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				m.Set(x, y, true)
			}
		}
	}
}

// fillRing marks an annulus between inner and outer radius.
func fillRing(m *imaging.Mask, cx, cy, inner, outer float64) {
	for y := int(cy - outer - 1); y <= int(cy+outer+1); y++ {
		for x := int(cx - outer - 1); x <= int(cx+outer+1); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := dx*dx + dy*dy
			if d <= outer*outer && d >= inner*inner {
				m.Set(x, y, true)
			}
		}
	}
}

// fillRect marks the rectangle [x1,x2) x [y1,y2).
func fillRect(m *imaging.Mask, x1, y1, x2, y2 int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			m.Set(x, y, true)
		}
	}
}

// createDotsMask marks a rows x cols lattice of dots starting one spacing
// in from the top-left corner.
func createDotsMask(width, height, rows, cols int, spacing, radius float64) *imaging.Mask {
	m := imaging.NewMask(width, height)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			fillDisc(m, float64(c+1)*spacing, float64(r+1)*spacing, radius)
		}
	}
	return m
}

func TestLabel(t *testing.T) {
	m := imaging.NewMask(200, 100)
	fillDisc(m, 30, 30, 8)
	fillDisc(m, 80, 30, 8)
	fillRing(m, 150, 50, 17, 20)

	l := Label(m)
	if len(l.Components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(l.Components))
	}

	for _, c := range l.Components {
		if c.Label < 1 || c.Label > 3 {
			t.Errorf("unexpected label %d", c.Label)
		}
		if l.At(int(c.Centroid.X), int(c.Centroid.Y)) == c.Label != c.CentroidInk {
			t.Errorf("component %d: CentroidInk inconsistent with labels", c.Label)
		}
		if c.TouchesBorder {
			t.Errorf("component %d should not touch the border", c.Label)
		}
	}

	// Components come out in raster order: the two discs start higher up.
	ring := l.Components[2]
	if ring.CentroidInk {
		t.Error("ring centroid should fall on paper")
	}
	if math.Abs(ring.Centroid.X-150) > 1 || math.Abs(ring.Centroid.Y-50) > 1 {
		t.Errorf("ring centroid: got (%.1f, %.1f), want (150, 50)", ring.Centroid.X, ring.Centroid.Y)
	}

	disc := l.Components[0]
	if !disc.CentroidInk {
		t.Error("disc centroid should be on ink")
	}
	if fill := disc.FillRatio(); fill < 0.7 || fill > 0.85 {
		t.Errorf("disc fill ratio: got %.3f, want about 0.785", fill)
	}
	if a := disc.Aspect(); a != 1 {
		t.Errorf("disc aspect: got %.3f, want 1", a)
	}
}

func TestLabel_DiagonalConnectivity(t *testing.T) {
	m := imaging.NewMask(10, 10)
	for i := 0; i < 10; i++ {
		m.Set(i, i, true)
	}

	l := Label(m)
	if len(l.Components) != 1 {
		t.Fatalf("diagonal line should be one component, got %d", len(l.Components))
	}
	if !l.Components[0].TouchesBorder {
		t.Error("diagonal line touches the border")
	}
	if l.Components[0].Area != 10 {
		t.Errorf("area: got %d, want 10", l.Components[0].Area)
	}
}

func TestLabel_Empty(t *testing.T) {
	l := Label(imaging.NewMask(20, 20))
	if len(l.Components) != 0 {
		t.Errorf("expected no components, got %d", len(l.Components))
	}
	if l.At(-1, 5) != 0 || l.At(5, 50) != 0 {
		t.Error("out-of-range At should return 0")
	}
}

func TestLabelingMask(t *testing.T) {
	m := imaging.NewMask(100, 50)
	fillDisc(m, 20, 25, 6)
	fillDisc(m, 70, 25, 10)

	l := Label(m)
	kept := l.Mask(func(c Component) bool { return c.Area < 200 })

	if !kept.At(20, 25) {
		t.Error("small disc should be kept")
	}
	if kept.At(70, 25) {
		t.Error("large disc should be removed")
	}
}

func TestClean(t *testing.T) {
	const size = 300
	m := createDotsMask(size, size, 3, 3, 60, 6)
	m.Set(250, 20, true)            // speckle
	fillRect(m, 200, 200, 290, 290) // solid shadow blob, far larger than a dot
	fillRect(m, 0, 200, 10, 290)    // shadow along the left edge

	opts := DefaultCleanOptions(size, size)
	if opts.MaxSolidArea != 2500 {
		t.Fatalf("MaxSolidArea: got %d, want 2500", opts.MaxSolidArea)
	}

	cleaned, labels, stats := Clean(m, opts)

	if stats.Speckles != 1 {
		t.Errorf("Speckles: got %d, want 1", stats.Speckles)
	}
	if stats.Shadows != 2 {
		t.Errorf("Shadows: got %d, want 2", stats.Shadows)
	}
	if stats.Kept != 9 || len(labels.Components) != 9 {
		t.Errorf("expected 9 dots kept, got %d (labels %d)", stats.Kept, len(labels.Components))
	}
	if cleaned.At(250, 250) || cleaned.At(5, 250) || cleaned.At(250, 20) {
		t.Error("removed components still present in cleaned mask")
	}
	if !cleaned.At(60, 60) {
		t.Error("dot at (60, 60) should survive")
	}
}

func TestClean_KeepsStrokes(t *testing.T) {
	m := createDotsMask(300, 300, 3, 3, 60, 6)
	// An open stroke is long but sparse within its box.
	fillRing(m, 240, 240, 40, 43)

	_, _, stats := Clean(m, DefaultCleanOptions(300, 300))
	if stats.Shadows != 0 {
		t.Errorf("strokes must not be treated as shadows, got %d", stats.Shadows)
	}
	if stats.Kept != 10 {
		t.Errorf("Kept: got %d, want 10", stats.Kept)
	}
}

func TestDetectDots(t *testing.T) {
	m := createDotsMask(300, 300, 4, 4, 60, 6)
	fillRect(m, 60, 80, 240, 84)  // horizontal stroke between dot rows
	fillRing(m, 150, 270, 10, 12) // ring: centroid on paper
	fillDisc(m, 280, 20, 1.5)     // tiny stray mark, an area outlier

	labels := Label(m)
	dots := DetectDots(labels, DefaultDotOptions(300, 300))

	if len(dots) != 16 {
		t.Fatalf("expected 16 dots, got %d", len(dots))
	}
	for i, d := range dots {
		wantX := float64(i%4+1) * 60
		wantY := float64(i/4+1) * 60
		if math.Abs(d.Center.X-wantX) > 0.5 || math.Abs(d.Center.Y-wantY) > 0.5 {
			t.Errorf("dot %d: got (%.1f, %.1f), want (%.0f, %.0f)", i, d.Center.X, d.Center.Y, wantX, wantY)
		}
		if math.Abs(d.Radius-6) > 0.5 {
			t.Errorf("dot %d radius: got %.2f, want about 6", i, d.Radius)
		}
	}
}

func TestDetectDots_None(t *testing.T) {
	m := imaging.NewMask(100, 100)
	fillRect(m, 10, 48, 90, 52)

	if dots := DetectDots(Label(m), DefaultDotOptions(100, 100)); dots != nil {
		t.Errorf("expected no dots, got %d", len(dots))
	}
}

func TestEstimateLattice(t *testing.T) {
	m := createDotsMask(400, 300, 4, 5, 60, 5)
	dots := DetectDots(Label(m), DefaultDotOptions(400, 300))

	lat, err := EstimateLattice(dots)
	if err != nil {
		t.Fatalf("EstimateLattice: %v", err)
	}
	if lat.Rows != 4 || lat.Cols != 5 {
		t.Errorf("lattice: got %dx%d, want 4x5", lat.Rows, lat.Cols)
	}
	if math.Abs(lat.Spacing-60) > 0.5 {
		t.Errorf("spacing: got %.2f, want 60", lat.Spacing)
	}
	if lat.Coverage != 1 {
		t.Errorf("coverage: got %.2f, want 1", lat.Coverage)
	}

	want := [4]imaging.PointF{{X: 60, Y: 60}, {X: 300, Y: 60}, {X: 300, Y: 240}, {X: 60, Y: 240}}
	for i, c := range lat.Corners {
		if math.Abs(c.X-want[i].X) > 0.5 || math.Abs(c.Y-want[i].Y) > 0.5 {
			t.Errorf("corner %d: got (%.1f, %.1f), want (%.0f, %.0f)", i, c.X, c.Y, want[i].X, want[i].Y)
		}
	}
}

func TestEstimateLattice_MissingDots(t *testing.T) {
	var dots []Dot
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			// Drop three interior dots.
			if (r == 1 && c == 1) || (r == 2 && c == 3) || (r == 3 && c == 2) {
				continue
			}
			dots = append(dots, Dot{Center: imaging.PointF{X: float64(c) * 40, Y: float64(r) * 40}})
		}
	}

	lat, err := EstimateLattice(dots)
	if err != nil {
		t.Fatalf("EstimateLattice: %v", err)
	}
	if lat.Rows != 5 || lat.Cols != 5 {
		t.Errorf("lattice: got %dx%d, want 5x5", lat.Rows, lat.Cols)
	}
	if math.Abs(lat.Coverage-22.0/25) > 1e-9 {
		t.Errorf("coverage: got %.3f, want 0.88", lat.Coverage)
	}
}

func TestEstimateLattice_Rotated(t *testing.T) {
	const (
		n       = 5
		spacing = 40.0
		degrees = 8.0
	)
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	at := func(r, c int) imaging.PointF {
		x, y := float64(c)*spacing, float64(r)*spacing
		return imaging.PointF{X: 200 + x*cos - y*sin, Y: 100 + x*sin + y*cos}
	}

	var dots []Dot
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			dots = append(dots, Dot{Center: at(r, c)})
		}
	}

	lat, err := EstimateLattice(dots)
	if err != nil {
		t.Fatalf("EstimateLattice: %v", err)
	}
	if lat.Rows != n || lat.Cols != n {
		t.Errorf("lattice: got %dx%d, want %dx%d", lat.Rows, lat.Cols, n, n)
	}
	if math.Abs(lat.Rotation-degrees) > 0.1 {
		t.Errorf("rotation: got %.2f, want %.0f", lat.Rotation, degrees)
	}

	want := [4]imaging.PointF{at(0, 0), at(0, n-1), at(n-1, n-1), at(n-1, 0)}
	for i, c := range lat.Corners {
		if math.Abs(c.X-want[i].X) > 1e-6 || math.Abs(c.Y-want[i].Y) > 1e-6 {
			t.Errorf("corner %d: got (%.1f, %.1f), want (%.1f, %.1f)", i, c.X, c.Y, want[i].X, want[i].Y)
		}
	}
}

func TestEstimateLattice_Upright(t *testing.T) {
	m := createDotsMask(400, 300, 4, 5, 60, 5)
	lat, err := EstimateLattice(DetectDots(Label(m), DefaultDotOptions(400, 300)))
	if err != nil {
		t.Fatalf("EstimateLattice: %v", err)
	}
	if math.Abs(lat.Rotation) > 0.5 {
		t.Errorf("rotation: got %.2f, want 0", lat.Rotation)
	}
}

func TestEstimateLattice_Errors(t *testing.T) {
	tests := []struct {
		name string
		dots []Dot
		want error
	}{
		{
			name: "too few",
			dots: []Dot{{Center: imaging.PointF{X: 0, Y: 0}}, {Center: imaging.PointF{X: 10, Y: 0}}},
			want: ErrTooFewDots,
		},
		{
			name: "single row",
			dots: []Dot{
				{Center: imaging.PointF{X: 0, Y: 0}},
				{Center: imaging.PointF{X: 10, Y: 0}},
				{Center: imaging.PointF{X: 20, Y: 0}},
				{Center: imaging.PointF{X: 30, Y: 0}},
			},
			want: ErrIrregularLattice,
		},
		{
			name: "scattered",
			dots: []Dot{
				{Center: imaging.PointF{X: 0, Y: 0}},
				{Center: imaging.PointF{X: 10, Y: 3}},
				{Center: imaging.PointF{X: 50, Y: 40}},
				{Center: imaging.PointF{X: 60, Y: 37}},
				{Center: imaging.PointF{X: 100, Y: 90}},
			},
			want: ErrIrregularLattice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EstimateLattice(tt.dots)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCluster1D(t *testing.T) {
	got := cluster1D([]float64{10, 11, 9, 50, 52, 100}, 5)
	want := []float64{10, 51, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("cluster %d: got %.2f, want %.2f", i, got[i], want[i])
		}
	}
}
