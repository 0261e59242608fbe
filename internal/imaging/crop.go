package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// ImageResult is an encoded image returned to clients.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// DecodeBase64 decodes a base64 image payload. A "data:<mime>;base64,"
// prefix is accepted.
func DecodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

// InkBounds returns the bounding box of the ink in m grown by pad pixels on
// every side and clipped to the mask, or false when m has no ink.
func InkBounds(m *Mask, pad int) (image.Rectangle, bool) {
	r, ok := m.Bounds()
	if !ok {
		return image.Rectangle{}, false
	}
	r = image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad)
	return r.Intersect(image.Rect(0, 0, m.Width, m.Height)), true
}

// Crop extracts a rectangular region from an image.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	bounds := img.Bounds()
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: empty rectangle")
	}
	return imaging.Crop(img, r), nil
}

// CropToInk trims img to the bounding box of its ink grown by pad pixels.
// Ink is whatever falls below the Otsu level. Images without contrast are
// returned unchanged.
func CropToInk(img image.Image, pad int) image.Image {
	g := Grayscale(img)
	if !hasContrast(g) {
		return img
	}
	r, ok := InkBounds(MaskFromGray(g, Otsu(g)), pad)
	if !ok {
		return img
	}
	out, err := Crop(img, r.Add(img.Bounds().Min))
	if err != nil {
		return img
	}
	return out
}
