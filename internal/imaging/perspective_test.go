package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestSolveHomography_MapsCorners(t *testing.T) {
	src := [4]PointF{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	dst := [4]PointF{{52, 40}, {410, 61}, {430, 398}, {30, 420}}

	h, err := SolveHomography(src, dst)
	if err != nil {
		t.Fatalf("SolveHomography failed: %v", err)
	}
	for i := range src {
		got := h.ApplyPoint(src[i])
		if math.Abs(got.X-dst[i].X) > 1e-6 || math.Abs(got.Y-dst[i].Y) > 1e-6 {
			t.Errorf("corner %d: got (%.4f,%.4f), want (%.1f,%.1f)", i, got.X, got.Y, dst[i].X, dst[i].Y)
		}
	}
}

func TestSolveHomography_Affine(t *testing.T) {
	src := [4]PointF{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	dst := [4]PointF{{10, 20}, {30, 20}, {30, 40}, {10, 40}}

	h, err := SolveHomography(src, dst)
	if err != nil {
		t.Fatalf("SolveHomography failed: %v", err)
	}
	x, y := h.Apply(0.5, 0.25)
	if math.Abs(x-20) > 1e-9 || math.Abs(y-25) > 1e-9 {
		t.Errorf("midpoint: got (%.4f,%.4f), want (20,25)", x, y)
	}
}

func TestSolveHomography_Degenerate(t *testing.T) {
	src := [4]PointF{{0, 0}, {1, 0}, {2, 0}, {0, 1}}
	dst := [4]PointF{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	if _, err := SolveHomography(src, dst); !errors.Is(err, ErrDegenerateQuad) {
		t.Errorf("expected ErrDegenerateQuad, got %v", err)
	}
}

func TestWarp_Identity(t *testing.T) {
	img := createInMemoryImage(30, 30, color.White)
	fillRect(img, 10, 10, 20, 20, color.Black)
	g := Grayscale(img)

	unit := [4]PointF{{0, 0}, {30, 0}, {30, 30}, {0, 30}}
	h, err := SolveHomography(unit, unit)
	if err != nil {
		t.Fatalf("SolveHomography failed: %v", err)
	}

	out := Warp(g, h, 30, 30)
	for _, p := range []image.Point{{0, 0}, {15, 15}, {29, 29}, {10, 10}} {
		if out.GrayAt(p.X, p.Y).Y != g.GrayAt(p.X, p.Y).Y {
			t.Errorf("pixel %v: got %d, want %d", p, out.GrayAt(p.X, p.Y).Y, g.GrayAt(p.X, p.Y).Y)
		}
	}
}

func TestWarp_OutsideIsWhite(t *testing.T) {
	g := Grayscale(createInMemoryImage(10, 10, color.Black))
	src := [4]PointF{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	dst := [4]PointF{{100, 100}, {110, 100}, {110, 110}, {100, 110}}
	h, err := SolveHomography(src, dst)
	if err != nil {
		t.Fatalf("SolveHomography failed: %v", err)
	}

	out := Warp(g, h, 10, 10)
	if out.GrayAt(5, 5).Y != 255 {
		t.Errorf("sample outside source: got %d, want 255", out.GrayAt(5, 5).Y)
	}
}
