package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// CompareResult describes how closely two kolam images agree.
type CompareResult struct {
	// SimilarityScore is the intersection-over-union of the two ink masks
	// (1 when both are blank).
	SimilarityScore float64 `json:"similarity_score"`
	// PixelAgreement is the share of pixels where both images agree on ink
	// versus paper.
	PixelAgreement float64 `json:"pixel_agreement"`
	InkPixelsA     int     `json:"ink_pixels_a"`
	InkPixelsB     int     `json:"ink_pixels_b"`
	SameSize       bool    `json:"same_size"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// CompareImages binarizes a and b and compares their ink. b is resized to
// a's dimensions first when they differ.
func CompareImages(a, b image.Image) *CompareResult {
	ab, bb := a.Bounds(), b.Bounds()
	sameSize := ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy()
	if !sameSize {
		b = imaging.Resize(b, ab.Dx(), ab.Dy(), imaging.Lanczos)
	}

	ga, gb := Grayscale(a), Grayscale(b)
	ma := MaskFromGray(ga, Otsu(ga))
	mb := MaskFromGray(gb, Otsu(gb))
	if !hasContrast(ga) {
		ma = NewMask(ma.Width, ma.Height)
	}
	if !hasContrast(gb) {
		mb = NewMask(mb.Width, mb.Height)
	}

	var inter, union, agree int
	for i := range ma.Pix {
		switch {
		case ma.Pix[i] && mb.Pix[i]:
			inter++
			union++
			agree++
		case ma.Pix[i] || mb.Pix[i]:
			union++
		default:
			agree++
		}
	}

	score := 1.0
	if union > 0 {
		score = float64(inter) / float64(union)
	}
	return &CompareResult{
		SimilarityScore: math.Round(score*10000) / 10000,
		PixelAgreement:  math.Round(float64(agree)/float64(len(ma.Pix))*10000) / 10000,
		InkPixelsA:      ma.Count(),
		InkPixelsB:      mb.Count(),
		SameSize:        sameSize,
		Width:           ab.Dx(),
		Height:          ab.Dy(),
	}
}

// hasContrast rejects flat images, whose Otsu split is meaningless.
func hasContrast(g *image.Gray) bool {
	_, sd := GrayStats(g)
	return sd >= 1
}
