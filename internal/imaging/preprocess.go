package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
)

// Backend names accepted by NewPreprocessor.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Params holds the tunable constants of the five preprocessing stages.
//
// The zero value is not usable; start from DefaultParams and override fields.
type Params struct {
	// BlurKernel is the side of the square Gaussian blur kernel (odd, >= 3).
	BlurKernel int `json:"blur_kernel" toml:"blur_kernel"`

	// BlurSigma is the Gaussian blur standard deviation. Values <= 0 derive
	// sigma from BlurKernel.
	BlurSigma float64 `json:"blur_sigma" toml:"blur_sigma"`

	// BlockSize is the side of the neighborhood used to compute the local
	// Gaussian-weighted mean of the adaptive threshold (odd, >= 3).
	BlockSize int `json:"block_size" toml:"block_size"`

	// Offset is subtracted from the local mean. A pixel becomes part of the
	// mask when it is at least Offset darker than its neighborhood.
	Offset float64 `json:"offset" toml:"offset"`

	// MedianKernel is the side of the median filter window (odd, >= 3).
	MedianKernel int `json:"median_kernel" toml:"median_kernel"`

	// DilateKernel is the side of the square structuring element (odd, >= 3).
	DilateKernel int `json:"dilate_kernel" toml:"dilate_kernel"`

	// DilateIterations is how many times dilation is applied (>= 1).
	DilateIterations int `json:"dilate_iterations" toml:"dilate_iterations"`
}

// DefaultParams returns the parameters the occupancy thresholds were tuned
// against: 3x3 blur with sigma 1, 25-pixel block with offset 16, 5x5 median,
// one 3x3 dilation.
func DefaultParams() Params {
	return Params{
		BlurKernel:       3,
		BlurSigma:        1,
		BlockSize:        25,
		Offset:           16,
		MedianKernel:     5,
		DilateKernel:     3,
		DilateIterations: 1,
	}
}

// Validate reports the first unusable parameter, wrapped in ErrInvalidParams.
func (p Params) Validate() error {
	kernels := []struct {
		name string
		size int
	}{
		{"blur_kernel", p.BlurKernel},
		{"block_size", p.BlockSize},
		{"median_kernel", p.MedianKernel},
		{"dilate_kernel", p.DilateKernel},
	}
	for _, k := range kernels {
		if k.size < 3 || k.size%2 == 0 {
			return fmt.Errorf("%w: %s must be odd and >= 3, got %d", ErrInvalidParams, k.name, k.size)
		}
	}
	if p.DilateIterations < 1 {
		return fmt.Errorf("%w: dilate_iterations must be >= 1, got %d", ErrInvalidParams, p.DilateIterations)
	}
	if math.IsNaN(p.Offset) || math.IsInf(p.Offset, 0) {
		return fmt.Errorf("%w: offset must be finite", ErrInvalidParams)
	}
	if math.IsNaN(p.BlurSigma) || math.IsInf(p.BlurSigma, 0) {
		return fmt.Errorf("%w: blur_sigma must be finite", ErrInvalidParams)
	}
	return nil
}

// Stages holds the output of every preprocessing stage for one frame, in
// pipeline order. Dilated is the final binary mask.
type Stages struct {
	Gray      *image.Gray
	Blurred   *image.Gray
	Threshold *image.Gray
	Median    *image.Gray
	Dilated   *image.Gray
}

// NamedStage pairs a stage image with a short file-friendly name.
type NamedStage struct {
	Name  string
	Image *image.Gray
}

// Named returns the stages in pipeline order with their names.
func (s *Stages) Named() []NamedStage {
	return []NamedStage{
		{"gray", s.Gray},
		{"blurred", s.Blurred},
		{"threshold", s.Threshold},
		{"median", s.Median},
		{"dilated", s.Dilated},
	}
}

// Preprocessor converts a color frame into a binary edge-density mask.
//
// Implementations are deterministic and hold no per-frame state, so one
// Preprocessor may be shared by concurrent callers.
type Preprocessor interface {
	// Name identifies the backend ("native" or "opencv").
	Name() string

	// Preprocess returns the binary mask for frame. The mask has the same
	// dimensions as frame, starts at (0,0), and contains only 0 and 255.
	Preprocess(frame image.Image) (*image.Gray, error)

	// Stages runs the same pipeline and keeps every intermediate image.
	Stages(frame image.Image) (*Stages, error)
}

// NewPreprocessor returns the Preprocessor for the named backend. An empty
// name selects the native backend.
func NewPreprocessor(backend string, params Params) (Preprocessor, error) {
	switch backend {
	case "", BackendNative:
		return NewNativePreprocessor(params)
	case BackendOpenCV:
		return newOpenCVPreprocessor(params)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, backend)
	}
}

// NativePreprocessor implements Preprocessor in pure Go on top of bild.
type NativePreprocessor struct {
	params Params
}

// NewNativePreprocessor validates params and returns a pure Go preprocessor.
func NewNativePreprocessor(params Params) (*NativePreprocessor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &NativePreprocessor{params: params}, nil
}

// Name returns BackendNative.
func (n *NativePreprocessor) Name() string {
	return BackendNative
}

// Params returns the parameters this preprocessor was built with.
func (n *NativePreprocessor) Params() Params {
	return n.params
}

// Preprocess returns the binary mask for frame.
func (n *NativePreprocessor) Preprocess(frame image.Image) (*image.Gray, error) {
	stages, err := n.Stages(frame)
	if err != nil {
		return nil, err
	}
	return stages.Dilated, nil
}

// Stages runs the five-stage pipeline:
//
//  1. Grayscale with ITU-R BT.601 weights (0.299R + 0.587G + 0.114B)
//  2. Gaussian blur (BlurKernel, BlurSigma)
//  3. Inverted adaptive threshold against a Gaussian-weighted local mean
//     (BlockSize, Offset): on when gray <= mean - Offset
//  4. Median filter (MedianKernel)
//  5. Dilation with a square structuring element (DilateKernel,
//     DilateIterations)
//
// Borders replicate the nearest edge pixel in every stage.
func (n *NativePreprocessor) Stages(frame image.Image) (*Stages, error) {
	if err := ValidateFrame(frame); err != nil {
		return nil, err
	}
	frame = normalize(frame)
	p := n.params

	gray := effect.GrayscaleWithWeights(frame, 0.299, 0.587, 0.114)
	blurred := separableBlur(gray, gaussianKernel(p.BlurKernel, p.BlurSigma))
	thresh := adaptiveThresholdInv(blurred, p.BlockSize, p.Offset)
	median := binarize(effect.Median(thresh, float64(p.MedianKernel/2)))

	dilated := median
	for i := 0; i < p.DilateIterations; i++ {
		dilated = binarize(effect.Dilate(dilated, float64(p.DilateKernel/2)))
	}

	return &Stages{
		Gray:      grayFromRGBA(gray),
		Blurred:   grayFromRGBA(blurred),
		Threshold: thresh,
		Median:    median,
		Dilated:   dilated,
	}, nil
}

// adaptiveThresholdInv marks pixels that are darker than their Gaussian
// weighted neighborhood by at least offset. The comparison mirrors OpenCV's
// THRESH_BINARY_INV with ADAPTIVE_THRESH_GAUSSIAN_C: the offset is floored
// and a pixel is set when src - mean <= -offset.
func adaptiveThresholdInv(src *image.RGBA, blockSize int, offset float64) *image.Gray {
	mean := separableBlur(src, gaussianKernel(blockSize, 0))
	delta := int(math.Floor(offset))

	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := int(src.Pix[src.PixOffset(x, y)])
			m := int(mean.Pix[mean.PixOffset(x, y)])
			if v-m <= -delta {
				dst.Pix[dst.PixOffset(x, y)] = 255
			}
		}
	}
	return dst
}
