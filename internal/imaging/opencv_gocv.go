//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVPreprocessor runs the preprocessing stages through OpenCV via gocv.
//
// It produces the same stages as NativePreprocessor, using OpenCV's own
// border handling and fixed-point rounding. Use it when masks must match
// OpenCV output pixel for pixel.
type OpenCVPreprocessor struct {
	params Params
}

func newOpenCVPreprocessor(params Params) (Preprocessor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &OpenCVPreprocessor{params: params}, nil
}

// Name returns BackendOpenCV.
func (o *OpenCVPreprocessor) Name() string {
	return BackendOpenCV
}

// Preprocess returns the binary mask for frame.
func (o *OpenCVPreprocessor) Preprocess(frame image.Image) (*image.Gray, error) {
	stages, err := o.Stages(frame)
	if err != nil {
		return nil, err
	}
	return stages.Dilated, nil
}

// Stages runs cvtColor, GaussianBlur, adaptiveThreshold, medianBlur and
// dilate in that order.
func (o *OpenCVPreprocessor) Stages(frame image.Image) (*Stages, error) {
	if err := ValidateFrame(frame); err != nil {
		return nil, err
	}
	p := o.params

	src, err := gocv.ImageToMatRGB(normalize(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame to mat: %w", err)
	}
	defer src.Close()

	return StagesFromMat(src, p)
}

// StagesFromMat runs the pipeline on a BGR mat, as produced by
// gocv.VideoCapture. The caller keeps ownership of src.
func StagesFromMat(src gocv.Mat, p Params) (*Stages, error) {
	if src.Empty() || src.Channels() != 3 {
		return nil, fmt.Errorf("%w: expected a 3-channel mat", ErrInvalidFrame)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	blurred := gocv.NewMat()
	defer blurred.Close()
	thresh := gocv.NewMat()
	defer thresh.Close()
	median := gocv.NewMat()
	defer median.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()

	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &blurred, image.Pt(p.BlurKernel, p.BlurKernel), p.BlurSigma, p.BlurSigma, gocv.BorderDefault)
	gocv.AdaptiveThreshold(blurred, &thresh, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, p.BlockSize, float32(p.Offset))
	gocv.MedianBlur(thresh, &median, p.MedianKernel)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(p.DilateKernel, p.DilateKernel))
	defer kernel.Close()
	median.CopyTo(&dilated)
	for i := 0; i < p.DilateIterations; i++ {
		gocv.Dilate(dilated, &dilated, kernel)
	}

	out := make([]*image.Gray, 0, 5)
	for _, m := range []gocv.Mat{gray, blurred, thresh, median, dilated} {
		g, err := matToGray(m)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	return &Stages{
		Gray:      out[0],
		Blurred:   out[1],
		Threshold: out[2],
		Median:    out[3],
		Dilated:   out[4],
	}, nil
}

func matToGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat to image: %w", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mat image type %T", img)
	}
	return g, nil
}
