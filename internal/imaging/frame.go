package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrInvalidFrame is returned for absent, empty, or single-channel frames.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrOutOfBounds is returned when a region does not fit inside an image.
	ErrOutOfBounds = errors.New("region outside image bounds")

	// ErrInvalidParams is returned when preprocessing parameters are unusable.
	ErrInvalidParams = errors.New("invalid preprocessing parameters")

	// ErrBackendUnavailable is returned when a preprocessing backend was not
	// compiled into the binary or is unknown.
	ErrBackendUnavailable = errors.New("preprocessing backend unavailable")
)

// ValidateFrame checks that img can be used as a color input frame.
//
// A frame is rejected with ErrInvalidFrame when it is nil, when its bounds are
// empty, or when it is a single-channel image (gray or alpha only). The
// preprocessor expects three color channels to collapse into intensity.
func ValidateFrame(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: frame is nil", ErrInvalidFrame)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%w: frame has zero size (%dx%d)", ErrInvalidFrame, bounds.Dx(), bounds.Dy())
	}

	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return fmt.Errorf("%w: expected a color frame, got a single-channel %T", ErrInvalidFrame, img)
	}

	return nil
}

// normalize returns img translated so that its bounds start at (0,0).
// Images that already start at the origin are returned unchanged.
func normalize(img image.Image) image.Image {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}
