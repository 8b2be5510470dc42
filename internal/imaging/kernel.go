package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
)

// gaussianKernel builds a normalized one-dimensional Gaussian kernel of the
// given odd size.
//
// When sigma is not positive it is derived from the size the same way OpenCV
// does for getGaussianKernel:
//
//	sigma = 0.3*((size-1)*0.5 - 1) + 0.8
//
// For the 25-pixel adaptive threshold block this gives sigma = 4.1.
func gaussianKernel(size int, sigma float64) *convolution.Kernel {
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}

	k := convolution.NewKernel(size, 1)
	half := size / 2
	var sum float64
	for i := 0; i < size; i++ {
		x := float64(i - half)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k.Matrix[i]
	}
	for i := range k.Matrix {
		k.Matrix[i] /= sum
	}
	return k
}

// separableBlur convolves img with k horizontally and then with its transpose
// vertically. Border pixels use replicated edge values. Each pass rounds to
// the nearest 8-bit value; alpha is carried through untouched.
func separableBlur(img image.Image, k *convolution.Kernel) *image.RGBA {
	opts := &convolution.Options{Bias: 0.5, KeepAlpha: true}
	horizontal := convolution.Convolve(img, k, opts)
	return convolution.Convolve(horizontal, k.Transposed(), opts)
}
