package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(40, 30, color.RGBA{10, 20, 30, 255}))

	img, info, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.SizeBytes != len(data) {
		t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(data))
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(16, 16, color.White), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	_, info, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.HasAlpha {
		t.Error("jpeg should not report alpha")
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		empty bool
	}{
		{"empty", nil, true},
		{"garbage", []byte("definitely not an image"), false},
		{"truncated png", encodePNG(t, createInMemoryImage(8, 8, color.Black))[:20], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.empty && !errors.Is(err, ErrEmptyImage) {
				t.Errorf("expected ErrEmptyImage, got %v", err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, encodePNG(t, createInMemoryImage(12, 9, color.White)), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	img, info, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if img.Bounds().Dx() != 12 || info.Height != 9 {
		t.Errorf("unexpected size %v", img.Bounds())
	}

	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLimitSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim        int
		wantW, wantH  int
		wantScaled    bool
	}{
		{"small unchanged", 300, 200, 1000, 300, 200, false},
		{"wide", 2000, 1000, 1000, 1000, 500, true},
		{"tall", 600, 1200, 600, 300, 600, true},
		{"default limit", 1500, 1500, 0, 1000, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, scaled := LimitSize(createInMemoryImage(tt.width, tt.height, color.White), tt.maxDim)
			if scaled != tt.wantScaled {
				t.Errorf("scaled: got %v, want %v", scaled, tt.wantScaled)
			}
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}
