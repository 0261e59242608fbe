package imaging

import (
	"image"
	"image/color"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillDisc paints a solid disc centred on (cx, cy).
func fillDisc(img *image.RGBA, cx, cy, r float64, c color.Color) {
	for y := int(cy - r - 1); y <= int(cy+r+1); y++ {
		for x := int(cx - r - 1); x <= int(cx+r+1); x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			}
		}
	}
}

// fillRect paints the rectangle [x1,x2) x [y1,y2).
func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.Set(x, y, c)
		}
	}
}

// createDotsImage draws a rows x cols lattice of black dots on white.
func createDotsImage(width, height, rows, cols int, spacing, radius float64) *image.RGBA {
	img := createInMemoryImage(width, height, color.White)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			fillDisc(img, float64(c+1)*spacing, float64(r+1)*spacing, radius, color.Black)
		}
	}
	return img
}
