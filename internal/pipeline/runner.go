package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/occupancy"
	"github.com/ironsheep/parkwatch/internal/slots"
	"github.com/ironsheep/parkwatch/internal/source"
)

// Options tune a Runner.
type Options struct {
	// Workers is the number of frames processed concurrently. Reports are
	// still delivered in frame order.
	Workers int
	// MaxFrames stops the run after this many frames have been read. Zero
	// means no limit.
	MaxFrames int
	// FrameInterval is the minimum delay between reading two frames.
	FrameInterval time.Duration
	// AbortOnInvalid ends the run on the first frame that cannot be decoded
	// or preprocessed. Otherwise such frames are skipped.
	AbortOnInvalid bool
	// KeepStages attaches every preprocessing stage to the reports. It is
	// turned on automatically when a sink needs the stages.
	KeepStages bool
	Logger     zerolog.Logger
}

// Stats summarizes a run.
type Stats struct {
	Processed int
	Skipped   int
	LastFree  int
	LastTotal int
	LastSeq   uint64
}

// Runner processes frames for one slot layout.
//
// The preprocessor, classifier and layout are shared read-only by all
// workers.
type Runner struct {
	runID  string
	pre    imaging.Preprocessor
	cls    *occupancy.Classifier
	layout *slots.Config
	sinks  []Sink
	opts   Options
	log    zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Runner with a fresh run ID.
func New(pre imaging.Preprocessor, cls *occupancy.Classifier, layout *slots.Config, sinks []Sink, opts Options) (*Runner, error) {
	if pre == nil || cls == nil || layout == nil {
		return nil, fmt.Errorf("preprocessor, classifier and layout are required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxFrames < 0 {
		return nil, fmt.Errorf("max frames must be >= 0, got %d", opts.MaxFrames)
	}
	for _, s := range sinks {
		if ns, ok := s.(interface{ needsStages() bool }); ok && ns.needsStages() {
			opts.KeepStages = true
		}
	}

	id := uuid.NewString()
	return &Runner{
		runID:  id,
		pre:    pre,
		cls:    cls,
		layout: layout,
		sinks:  sinks,
		opts:   opts,
		log:    opts.Logger.With().Str("run_id", id).Logger(),
	}, nil
}

// RunID returns the identifier stamped into every report of this runner.
func (r *Runner) RunID() string {
	return r.runID
}

// Stats returns a snapshot of the run statistics.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Process preprocesses and classifies a single frame.
//
// A frame without an image or one the preprocessor rejects yields an error
// wrapping imaging.ErrInvalidFrame. A slot that does not fit the frame yields
// a *slots.OutOfBoundsError.
func (r *Runner) Process(f source.Frame) (*FrameReport, error) {
	if f.Image == nil {
		return nil, fmt.Errorf("%w: frame %s has no image", imaging.ErrInvalidFrame, f.Name)
	}

	var (
		stages *imaging.Stages
		mask   *image.Gray
		err    error
	)
	if r.opts.KeepStages {
		if stages, err = r.pre.Stages(f.Image); err == nil {
			mask = stages.Dilated
		}
	} else {
		mask, err = r.pre.Preprocess(f.Image)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess frame %s: %w", f.Name, err)
	}

	result, err := r.cls.Classify(mask, r.layout)
	if err != nil {
		return nil, fmt.Errorf("failed to classify frame %s: %w", f.Name, err)
	}

	return &FrameReport{
		RunID:     r.runID,
		Seq:       f.Seq,
		Frame:     f.Name,
		Timestamp: f.Timestamp,
		Result:    result,
		Image:     f.Image,
		Stages:    stages,
	}, nil
}

// job is a frame read from the source, with its read order and any error
// the source returned alongside it.
type job struct {
	idx   int
	frame source.Frame
	err   error
}

type outcome struct {
	idx    int
	frame  source.Frame
	report *FrameReport
	err    error
}

// Run reads frames from src until the stream ends, MaxFrames is reached, or
// ctx is done, and writes each report to every sink in frame order.
//
// At most Workers frames are in flight between being read and being
// delivered, so a slow frame holds back reading instead of growing the
// reorder buffer.
//
// Invalid frames are skipped or abort the run depending on AbortOnInvalid.
// Any other processing or sink error aborts the run. When ctx is cancelled,
// the returned error wraps ctx.Err().
func (r *Runner) Run(ctx context.Context, src source.Source) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, r.opts.Workers)
	results := make(chan outcome, r.opts.Workers)
	inflight := semaphore.NewWeighted(int64(r.opts.Workers))

	g.Go(func() error {
		defer close(jobs)
		return r.read(gctx, src, jobs, inflight)
	})

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				out := outcome{idx: j.idx, frame: j.frame, err: j.err}
				if out.err == nil {
					out.report, out.err = r.Process(j.frame)
				}
				select {
				case results <- out:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	r.log.Info().Int("workers", r.opts.Workers).Int("slots", r.layout.Len()).Msg("Run started")

	if err := r.deliver(gctx, results, inflight); err != nil {
		cancel()
		for range results {
		}
		_ = g.Wait()
		return r.Stats(), err
	}
	if err := g.Wait(); err != nil {
		return r.Stats(), err
	}

	stats := r.Stats()
	r.log.Info().Int("processed", stats.Processed).Int("skipped", stats.Skipped).Msg("Run finished")
	return stats, nil
}

// read feeds frames from src into jobs. Each frame takes one unit of
// inflight, released by deliver once the frame has been handled.
func (r *Runner) read(ctx context.Context, src source.Source, jobs chan<- job, inflight *semaphore.Weighted) error {
	var timer *time.Timer
	for idx := 0; r.opts.MaxFrames == 0 || idx < r.opts.MaxFrames; idx++ {
		if idx > 0 && r.opts.FrameInterval > 0 {
			if timer == nil {
				timer = time.NewTimer(r.opts.FrameInterval)
				defer timer.Stop()
			} else {
				timer.Reset(r.opts.FrameInterval)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := inflight.Acquire(ctx, 1); err != nil {
			return err
		}
		f, err := src.Next(ctx)
		switch {
		case errors.Is(err, source.ErrEndOfStream):
			inflight.Release(1)
			return nil
		case err != nil && !errors.Is(err, imaging.ErrInvalidFrame):
			return fmt.Errorf("failed to read frame: %w", err)
		}

		select {
		case jobs <- job{idx: idx, frame: f, err: err}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// deliver reorders outcomes by read order and hands them to the sinks.
func (r *Runner) deliver(ctx context.Context, results <-chan outcome, inflight *semaphore.Weighted) error {
	pending := make(map[int]outcome)
	next := 0
	for out := range results {
		pending[out.idx] = out
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			err := r.handle(ctx, o)
			inflight.Release(1)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) handle(ctx context.Context, o outcome) error {
	if o.err != nil {
		if errors.Is(o.err, imaging.ErrInvalidFrame) && !r.opts.AbortOnInvalid {
			r.mu.Lock()
			r.stats.Skipped++
			r.mu.Unlock()
			r.log.Warn().Err(o.err).Uint64("seq", o.frame.Seq).Str("frame", o.frame.Name).Msg("Skipping invalid frame")
			return nil
		}
		return o.err
	}

	for _, s := range r.sinks {
		if err := s.Write(ctx, o.report); err != nil {
			return fmt.Errorf("failed to write report for frame %s: %w", o.frame.Name, err)
		}
	}

	r.mu.Lock()
	r.stats.Processed++
	r.stats.LastFree = o.report.Result.FreeCount
	r.stats.LastTotal = o.report.Result.TotalCount
	r.stats.LastSeq = o.report.Seq
	r.mu.Unlock()
	return nil
}
