// Package pipeline runs frames from a source through preprocessing and
// classification and hands every result, in frame order, to a set of sinks.
//
// # Processing
//
// A Runner owns one preprocessor, one classifier and one slot layout, all
// shared read-only by its workers. Process handles a single frame; Run
// drives a whole source:
//
//	r, err := pipeline.New(pre, cls, layout, sinks, pipeline.Options{Workers: 4})
//	stats, err := r.Run(ctx, src)
//
// With more than one worker, frames are preprocessed concurrently and the
// reports are reordered by read order before any sink sees them. At most
// Workers frames are in flight at a time.
//
// # Failure Policy
//
//   - Frames that fail to decode or preprocess (imaging.ErrInvalidFrame) are
//     skipped with a warning, or end the run when AbortOnInvalid is set
//   - A slot outside the frame (slots.ErrOutOfBounds) always ends the run
//   - Source and sink errors end the run
//   - Cancelling ctx ends the run with an error wrapping context.Canceled
//
// # Sinks
//
// Each FrameReport carries the run ID, the frame sequence number, name and
// timestamp, and the classification result. Provided sinks:
//   - JSONLSink: one JSON object per line, to stdout or a file
//   - OverlaySink: an annotated PNG per frame
//   - StageSink: the five preprocessing stages per frame as PNGs
//   - LogSink: one structured log line per frame
//
// Sinks are called from a single goroutine and need no locking of their own.
package pipeline
