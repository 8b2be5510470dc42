package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ironsheep/parkwatch/internal/imaging"
)

// DefaultSettle is the quiet period a written file must observe before it is
// decoded.
const DefaultSettle = 100 * time.Millisecond

type pendingFile struct {
	path string
	due  time.Time
}

// WatchSource yields image files as they are created or written in a
// directory, in the order their first event arrived.
//
// A file is read once no further write has been seen for the settle period,
// which keeps half-written frames out of the stream. Files present before
// the watch started are ignored.
type WatchSource struct {
	dir     string
	settle  time.Duration
	log     zerolog.Logger
	watcher *fsnotify.Watcher

	pending []pendingFile
	seq     uint64
}

// NewWatchSource starts watching dir.
func NewWatchSource(dir string, settle time.Duration, log zerolog.Logger) (*WatchSource, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log.Debug().Str("dir", dir).Dur("settle", settle).Msg("watching frame directory")
	return &WatchSource{dir: dir, settle: settle, log: log, watcher: watcher}, nil
}

// Next blocks until a settled image file is available.
func (s *WatchSource) Next(ctx context.Context) (Frame, error) {
	for {
		if path, ok := s.popReady(time.Now()); ok {
			return s.load(path)
		}

		var timer *time.Timer
		var timerC <-chan time.Time
		if len(s.pending) > 0 {
			timer = time.NewTimer(time.Until(s.earliestDue()))
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return Frame{}, ctx.Err()

		case event, ok := <-s.watcher.Events:
			stopTimer(timer)
			if !ok {
				return Frame{}, ErrEndOfStream
			}
			s.handle(event)

		case err, ok := <-s.watcher.Errors:
			stopTimer(timer)
			if !ok {
				return Frame{}, ErrEndOfStream
			}
			s.log.Warn().Err(err).Str("dir", s.dir).Msg("watch error")

		case <-timerC:
		}
	}
}

func (s *WatchSource) handle(event fsnotify.Event) {
	if !imaging.IsFrameFile(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		due := time.Now().Add(s.settle)
		for i := range s.pending {
			if s.pending[i].path == event.Name {
				s.pending[i].due = due
				return
			}
		}
		s.pending = append(s.pending, pendingFile{path: event.Name, due: due})

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		for i := range s.pending {
			if s.pending[i].path == event.Name {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				return
			}
		}
	}
}

// popReady removes and returns the oldest pending file if it has settled.
// Younger files wait behind it so frames keep their arrival order.
func (s *WatchSource) popReady(now time.Time) (string, bool) {
	if len(s.pending) == 0 || now.Before(s.pending[0].due) {
		return "", false
	}
	path := s.pending[0].path
	s.pending = s.pending[1:]
	return path, true
}

func (s *WatchSource) earliestDue() time.Time {
	return s.pending[0].due
}

func (s *WatchSource) load(path string) (Frame, error) {
	s.seq++
	frame := Frame{Seq: s.seq, Name: filepath.Base(path), Timestamp: time.Now()}

	img, err := imaging.LoadFrame(path)
	if err != nil {
		return frame, fmt.Errorf("%w: %w", imaging.ErrInvalidFrame, err)
	}
	frame.Image = img
	return frame, nil
}

// Close stops the watcher.
func (s *WatchSource) Close() error {
	return s.watcher.Close()
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
