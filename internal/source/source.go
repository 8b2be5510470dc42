package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrEndOfStream is returned by Next when a source has no more frames.
var ErrEndOfStream = errors.New("end of frame stream")

// Frame is one decoded input frame.
type Frame struct {
	Image image.Image
	// Seq numbers frames from 1 in delivery order, including frames that
	// failed to decode.
	Seq uint64
	// Name identifies the frame: the file name for directory sources, a
	// frame label for video.
	Name      string
	Timestamp time.Time
}

// Source yields frames in order.
//
// Next blocks until a frame is available, ctx is done, or the stream ends.
// A frame that cannot be decoded is returned together with an error wrapping
// imaging.ErrInvalidFrame so the caller can decide to skip it.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Source kinds accepted by Open.
const (
	KindDir   = "dir"
	KindWatch = "watch"
	KindVideo = "video"
)

// Options tune the sources built by Open.
type Options struct {
	// Loop restarts directory and video sources after the last frame.
	Loop bool
	// Settle is how long a watched file must stay unchanged before it is
	// read. Zero uses DefaultSettle.
	Settle time.Duration
	Logger zerolog.Logger
}

// ParseSpec splits a source spec of the form "kind:target". A spec without
// a known kind prefix is a directory.
func ParseSpec(spec string) (kind, target string, err error) {
	if spec == "" {
		return "", "", fmt.Errorf("empty source")
	}
	if i := strings.Index(spec, ":"); i > 0 {
		switch k := spec[:i]; k {
		case KindDir, KindWatch, KindVideo:
			target = spec[i+1:]
			if target == "" {
				return "", "", fmt.Errorf("source %q has no target", spec)
			}
			return k, target, nil
		}
	}
	return KindDir, spec, nil
}

// Open builds the source described by spec.
func Open(spec string, opts Options) (Source, error) {
	kind, target, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindWatch:
		s, err := NewWatchSource(target, opts.Settle, opts.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindVideo:
		s, err := NewVideoSource(target, opts.Loop, opts.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			return nil, fmt.Errorf("source %s is a file; use video:%s for video files", target, target)
		}
		s, err := NewDirSource(target, opts.Loop, opts.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
