package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/render"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// Sink consumes frame reports. The runner calls Write from a single
// goroutine, in frame order.
type Sink interface {
	Write(ctx context.Context, r *FrameReport) error
	Close() error
}

// CloseAll closes every sink and returns the first error.
func CloseAll(sinks []Sink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// JSONLSink writes one JSON object per report and line.
type JSONLSink struct {
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink writes reports to w. Closing the sink does not close w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// OpenJSONLSink writes reports to path, or to stdout when path is "-".
func OpenJSONLSink(path string) (*JSONLSink, error) {
	if path == "" || path == "-" {
		return NewJSONLSink(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &JSONLSink{enc: json.NewEncoder(f), closer: f}, nil
}

// Write encodes r as a single line.
func (s *JSONLSink) Write(_ context.Context, r *FrameReport) error {
	return s.enc.Encode(r)
}

// Close closes the output file, if the sink opened one.
func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OverlaySink saves an annotated PNG per frame into a directory.
type OverlaySink struct {
	dir       string
	layout    *slots.Config
	opts      render.Options
	timestamp bool
}

// NewOverlaySink creates dir if needed. With timestamp set, each overlay
// carries the frame timestamp.
func NewOverlaySink(dir string, layout *slots.Config, opts render.Options, timestamp bool) (*OverlaySink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create overlay directory: %w", err)
	}
	return &OverlaySink{dir: dir, layout: layout, opts: opts, timestamp: timestamp}, nil
}

// Write renders and saves the overlay for r.
func (s *OverlaySink) Write(_ context.Context, r *FrameReport) error {
	opts := s.opts
	if s.timestamp {
		opts.Timestamp = r.Timestamp
	}
	img, err := render.Overlay(r.Image, s.layout, r.Result, opts)
	if err != nil {
		return fmt.Errorf("failed to render overlay: %w", err)
	}
	return imaging.SaveImage(img, filepath.Join(s.dir, r.fileStem()+".png"))
}

// Close is a no-op.
func (s *OverlaySink) Close() error {
	return nil
}

// StageSink saves every preprocessing stage of each frame into a directory,
// one PNG per stage named after the frame and the stage.
type StageSink struct {
	dir string
}

// NewStageSink creates dir if needed.
func NewStageSink(dir string) (*StageSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stage directory: %w", err)
	}
	return &StageSink{dir: dir}, nil
}

func (s *StageSink) needsStages() bool { return true }

// Write saves the stages attached to r.
func (s *StageSink) Write(_ context.Context, r *FrameReport) error {
	if r.Stages == nil {
		return fmt.Errorf("report for frame %s has no stages", r.Frame)
	}
	return SaveStages(r.Stages, s.dir, r.fileStem())
}

// Close is a no-op.
func (s *StageSink) Close() error {
	return nil
}

// SaveStages writes each stage to dir as <prefix>-<n>-<stage>.png, numbered
// in pipeline order.
func SaveStages(stages *imaging.Stages, dir, prefix string) error {
	for i, st := range stages.Named() {
		name := fmt.Sprintf("%s-%d-%s.png", prefix, i+1, st.Name)
		if err := imaging.SaveImage(st.Image, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// LogSink logs one line per frame.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a sink logging to log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Write logs the counts of r.
func (s *LogSink) Write(_ context.Context, r *FrameReport) error {
	t := r.Result.Tally()
	s.log.Info().
		Uint64("seq", r.Seq).
		Str("frame", r.Frame).
		Int("free", r.Result.FreeCount).
		Int("total", r.Result.TotalCount).
		Int("misaligned", t.Misaligned).
		Int("occupied", t.Occupied).
		Int("reserved", t.Reserved).
		Msg("Frame classified")
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}
