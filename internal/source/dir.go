package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/parkwatch/internal/imaging"
)

// DirSource replays the image files of a directory in file name order.
//
// When looping, the directory is listed again each time the end is reached,
// so files added during a run join the next pass.
type DirSource struct {
	dir  string
	loop bool
	log  zerolog.Logger

	files []string
	next  int
	seq   uint64
	now   func() time.Time
}

// NewDirSource lists dir and returns a source over its image files. A
// directory without image files is an error.
func NewDirSource(dir string, loop bool, log zerolog.Logger) (*DirSource, error) {
	s := &DirSource{dir: dir, loop: loop, log: log, now: time.Now}
	if err := s.scan(); err != nil {
		return nil, err
	}
	if len(s.files) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	return s, nil
}

func (s *DirSource) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list frames: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imaging.IsFrameFile(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	s.files = files
	s.next = 0
	return nil
}

// Len returns the number of files in the current pass.
func (s *DirSource) Len() int {
	return len(s.files)
}

// Next returns the next frame, or ErrEndOfStream after the last file when
// not looping.
func (s *DirSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	if s.next >= len(s.files) {
		if !s.loop {
			return Frame{}, ErrEndOfStream
		}
		if err := s.scan(); err != nil {
			return Frame{}, err
		}
		if len(s.files) == 0 {
			return Frame{}, ErrEndOfStream
		}
		s.log.Debug().Str("dir", s.dir).Int("files", len(s.files)).Msg("restarting frame directory")
	}

	name := s.files[s.next]
	s.next++
	s.seq++

	frame := Frame{Seq: s.seq, Name: name, Timestamp: s.now()}
	img, err := imaging.LoadFrame(filepath.Join(s.dir, name))
	if err != nil {
		return frame, fmt.Errorf("%w: %w", imaging.ErrInvalidFrame, err)
	}
	frame.Image = img
	return frame, nil
}

// Close is a no-op.
func (s *DirSource) Close() error {
	return nil
}
