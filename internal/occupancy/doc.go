// Package occupancy classifies parking slots from a binary edge-density mask.
//
// For each slot the classifier counts the nonzero mask pixels inside the slot
// rectangle and applies, first match wins:
//
//	reserved by configuration   -> Reserved
//	count <  FreeBelow          -> Free
//	count <  OccupiedFrom       -> Misaligned
//	otherwise                   -> Occupied
//
// Only Free slots count toward FrameResult.FreeCount. A slot rectangle that
// does not fit inside the mask is an error (slots.ErrOutOfBounds); it is never
// clamped or skipped.
//
// The classifier keeps no state between frames, so one Classifier and one
// slots.Config can serve any number of concurrent frames.
package occupancy
