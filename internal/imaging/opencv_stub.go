//go:build !gocv

package imaging

import "fmt"

// newOpenCVPreprocessor is unavailable without the gocv build tag.
func newOpenCVPreprocessor(params Params) (Preprocessor, error) {
	return nil, fmt.Errorf("%w: %s backend requires building with -tags gocv", ErrBackendUnavailable, BackendOpenCV)
}
