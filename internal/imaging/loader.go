package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptyImage is returned for zero-length input or a decoded image with
// no pixels.
var ErrEmptyImage = errors.New("imaging: empty image")

// DefaultMaxDimension is the longest side accepted before an input image is
// scaled down.
const DefaultMaxDimension = 1000

// ImageInfo describes a decoded input image.
type ImageInfo struct {
	// Width is the decoded width in pixels, before any downscaling.
	Width int `json:"width"`

	// Height is the decoded height in pixels, before any downscaling.
	Height int `json:"height"`

	// Format is the decoder that accepted the data: "png", "jpeg", "gif",
	// "bmp" or "webp".
	Format string `json:"format"`

	// HasAlpha indicates whether the image type carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the length of the encoded input.
	SizeBytes int `json:"size_bytes"`

	// Downscaled is set when the image was reduced to fit the size limit.
	Downscaled bool `json:"downscaled"`
}

// Decode decodes image data in any registered format.
//
// Returns:
//   - image.Image: The decoded image.
//   - *ImageInfo: Metadata about the input.
//   - error: ErrEmptyImage for empty input, or the decoder's error wrapped.
func Decode(data []byte) (image.Image, *ImageInfo, error) {
	if len(data) == 0 {
		return nil, nil, ErrEmptyImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, nil, ErrEmptyImage
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted:
		hasAlpha = true
	}

	return img, &ImageInfo{
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    format,
		HasAlpha:  hasAlpha,
		SizeBytes: len(data),
	}, nil
}

// ReadFile reads and decodes an image file.
func ReadFile(path string) (image.Image, *ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data)
}

// LimitSize scales img down so neither side exceeds maxDim, keeping the
// aspect ratio. Smaller images are returned unchanged with false.
func LimitSize(img image.Image, maxDim int) (image.Image, bool) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img, false
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), true
}
