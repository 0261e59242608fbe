package imaging

import "image"

// Mask is a binary image where true marks ink.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask returns an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is ink. Points outside the mask are not.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y). Points outside the mask are ignored.
func (m *Mask) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = ink
}

// Count returns the number of ink pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Bounds returns the smallest rectangle holding every ink pixel, and false
// when the mask is empty.
func (m *Mask) Bounds() (image.Rectangle, bool) {
	minX, minY, maxX, maxY := m.Width, m.Height, -1, -1
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// MaskFromGray marks pixels darker than level as ink.
func MaskFromGray(g *image.Gray, level uint8) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			m.Pix[y*m.Width+x] = g.GrayAt(b.Min.X+x, b.Min.Y+y).Y < level
		}
	}
	return m
}

// InkIn counts ink pixels inside a disc of radius r around (cx, cy) and
// returns that count with the number of pixels examined.
func (m *Mask) InkIn(cx, cy, r float64) (ink, total int) {
	r2 := r * r
	for y := int(cy - r); y <= int(cy+r)+1; y++ {
		for x := int(cx - r); x <= int(cx+r)+1; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > r2 {
				continue
			}
			total++
			if m.At(x, y) {
				ink++
			}
		}
	}
	return ink, total
}
