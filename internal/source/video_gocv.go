//go:build gocv

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ironsheep/parkwatch/internal/imaging"
)

// VideoSource reads frames from a video file or capture device with OpenCV.
//
// A numeric target selects a capture device. When looping, the read position
// is rewound to the first frame once it reaches the frame count.
type VideoSource struct {
	target  string
	loop    bool
	log     zerolog.Logger
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     uint64
}

// NewVideoSource opens target.
func NewVideoSource(target string, loop bool, log zerolog.Logger) (*VideoSource, error) {
	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", target, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", target)
	}

	log.Debug().
		Str("target", target).
		Float64("frames", capture.Get(gocv.VideoCaptureFrameCount)).
		Float64("fps", capture.Get(gocv.VideoCaptureFPS)).
		Msg("opened video")

	return &VideoSource{
		target:  target,
		loop:    loop,
		log:     log,
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Next decodes the next frame.
func (s *VideoSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if s.loop {
		count := s.capture.Get(gocv.VideoCaptureFrameCount)
		if count > 0 && s.capture.Get(gocv.VideoCapturePosFrames) >= count {
			s.log.Debug().Str("target", s.target).Msg("restarting video")
			s.capture.Set(gocv.VideoCapturePosFrames, 0)
		}
	}

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return Frame{}, ErrEndOfStream
	}

	s.seq++
	frame := Frame{
		Seq:       s.seq,
		Name:      fmt.Sprintf("frame-%06d", s.seq),
		Timestamp: time.Now(),
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return frame, fmt.Errorf("%w: %w", imaging.ErrInvalidFrame, err)
	}
	frame.Image = img
	return frame, nil
}

// Close releases the capture.
func (s *VideoSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
