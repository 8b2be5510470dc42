package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"
)

// CountNonZero returns the number of nonzero pixels of mask inside r.
//
// The region must lie completely within the mask bounds; a region that
// extends past any edge is rejected with ErrOutOfBounds rather than clamped.
// An empty region is also rejected.
func CountNonZero(mask *image.Gray, r image.Rectangle) (int, error) {
	if r.Empty() {
		return 0, fmt.Errorf("invalid region %v: width and height must be positive", r)
	}
	bounds := mask.Bounds()
	if !r.In(bounds) {
		return 0, fmt.Errorf("%w: region %v, image %v", ErrOutOfBounds, r, bounds)
	}

	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(r.Min.X, y):mask.PixOffset(r.Max.X, y)]
		for _, v := range row {
			if v != 0 {
				count++
			}
		}
	}
	return count, nil
}

// IsBinary reports whether every pixel of mask is either 0 or 255.
func IsBinary(mask *image.Gray) bool {
	bounds := mask.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(bounds.Min.X, y):mask.PixOffset(bounds.Max.X, y)]
		for _, v := range row {
			if v != 0 && v != 255 {
				return false
			}
		}
	}
	return true
}

// binarize converts img to a single-channel mask where every pixel at or
// above half intensity becomes 255 and everything else becomes 0.
func binarize(img image.Image) *image.Gray {
	return segment.Threshold(img, 128)
}

// grayFromRGBA copies the red channel of an RGBA image whose channels are
// already equal (the output of the grayscale stage) into a Gray image.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Pix[dst.PixOffset(x, y)] = src.Pix[src.PixOffset(x, y)]
		}
	}
	return dst
}
