//go:build !gocv

package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ironsheep/parkwatch/internal/imaging"
)

// VideoSource is unavailable without the gocv build tag.
type VideoSource struct{}

// NewVideoSource always fails in builds without gocv.
func NewVideoSource(target string, loop bool, log zerolog.Logger) (*VideoSource, error) {
	return nil, fmt.Errorf("%w: video source %s requires building with -tags gocv", imaging.ErrBackendUnavailable, target)
}

// Next always reports the end of the stream.
func (s *VideoSource) Next(ctx context.Context) (Frame, error) {
	return Frame{}, ErrEndOfStream
}

// Close is a no-op.
func (s *VideoSource) Close() error {
	return nil
}
