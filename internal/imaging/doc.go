// Package imaging provides the frame handling and preprocessing operations
// behind parkwatch.
//
// It turns a color frame into a binary edge-density mask (see Preprocess) and
// offers the pixel-level helpers the classifier and the presentation layer
// need: frame loading and caching, frame validation, slot crops, and nonzero
// pixel counting. All operations work with standard Go image.Image types and
// use a coordinate system where (0,0) is the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, the top-left corner is inclusive and the bottom-right
//     corner is exclusive, matching image.Rectangle
//
// Frames are normalized to a zero origin before preprocessing, so a mask
// produced from a sub-image still starts at (0,0).
//
// # Preprocessing Backends
//
// The default backend is written in pure Go on top of bild. Building with the
// "gocv" tag adds an OpenCV backend that runs the same five stages through
// gocv. Both satisfy the Preprocessor interface and are selected with
// NewPreprocessor.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Preprocessing and counting
// are stateless and can be called concurrently on different frames. Masks
// returned by Preprocess are owned by the caller.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Absent, empty, or single-channel frames (ErrInvalidFrame)
//   - Regions that do not fit inside the image (ErrOutOfBounds)
//   - Invalid preprocessing parameters (ErrInvalidParams)
//   - File I/O errors during frame loading
package imaging
