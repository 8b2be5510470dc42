// Package source delivers an ordered stream of color frames to the pipeline.
//
// # Sources
//
// Open builds a source from a spec string:
//   - "dir:<path>" or a bare directory: still images replayed in name order,
//     restarting after the last one when Loop is set
//   - "watch:<path>": every image created or rewritten in a directory, once
//     it has stopped changing for the settle delay
//   - "video:<file|device>": a video file or capture device index, in builds
//     with the gocv tag; other builds return imaging.ErrBackendUnavailable
//
// # Frames
//
// Frames are numbered from 1 in delivery order. A frame whose file cannot be
// decoded still takes a sequence number and is returned with an error
// wrapping imaging.ErrInvalidFrame, leaving the skip or abort decision to the
// caller. A finite source ends with ErrEndOfStream.
//
// # Thread Safety
//
// Sources are read from one goroutine. Next honours ctx cancellation while
// waiting for a frame.
package source
