// Package slots models the fixed parking-slot layout of a lot: the ordered
// slot positions, the slot size shared by every slot, and the set of slots
// reserved by configuration.
//
// # Layout
//
// A slot is identified by its 0-based index in the position list. Its
// rectangle starts at the stored top-left corner and spans the shared width
// and height, using image.Rectangle semantics (Min inclusive, Max exclusive):
//
//	cfg, err := slots.New([]image.Point{{50, 120}, {158, 120}}, 107, 48, []int{1})
//	r := cfg.Rect(0) // (50,120)-(157,168)
//
// Reserved indices refer to the same ordering and must name existing slots.
//
// # Bounds
//
// New does not know the frame size. Check and CheckAll verify slots against
// a frame before classification and return an *OutOfBoundsError, which
// wraps ErrOutOfBounds and names the offending slot. Slots are never clamped.
//
// # Position Files
//
// LoadPositions reads the position list from disk. The encoding is chosen by
// extension:
//   - .json: [[x, y], ...]
//   - .toml: positions = [[x, y], ...]
//   - .pkl, .pickle or no extension: a pickled list of (x, y) tuples, the
//     CarParkPos file saved by the interactive layout editor
//
// SavePositions writes the JSON and TOML forms.
//
// # Thread Safety
//
// A Config is immutable once built. Accessors return copies, so one Config
// can be shared by any number of goroutines without locking.
//
// # Error Handling
//
//   - Invalid sizes, negative positions, unknown reserved indices and
//     malformed position files wrap ErrInvalidConfig
//   - Slots outside a frame return *OutOfBoundsError (ErrOutOfBounds)
package slots
