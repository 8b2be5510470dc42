package slots

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

var (
	// ErrInvalidConfig is returned when a slot layout cannot be built.
	ErrInvalidConfig = errors.New("invalid slot configuration")

	// ErrOutOfBounds is returned when a slot rectangle does not fit inside a
	// frame. Use errors.As with *OutOfBoundsError for the details.
	ErrOutOfBounds = errors.New("slot outside frame bounds")
)

// OutOfBoundsError names the slot whose rectangle does not fit the frame.
type OutOfBoundsError struct {
	Index  int
	Rect   image.Rectangle
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("slot %d rectangle %v outside frame bounds %v", e.Index, e.Rect, e.Bounds)
}

// Unwrap returns ErrOutOfBounds.
func (e *OutOfBoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// Region is one slot of a layout.
type Region struct {
	Index    int             `json:"index"`
	Rect     image.Rectangle `json:"rect"`
	Reserved bool            `json:"reserved"`
}

// Config is an immutable slot layout.
type Config struct {
	positions []image.Point
	width     int
	height    int
	reserved  map[int]struct{}
}

// New builds a layout from top-left slot positions, the shared slot size,
// and the 0-based indices of reserved slots.
//
// Positions and reserved indices are copied. Duplicate reserved indices are
// accepted; indices outside the position list are rejected.
func New(positions []image.Point, width, height int, reserved []int) (*Config, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: slot size must be positive, got %dx%d", ErrInvalidConfig, width, height)
	}
	for i, p := range positions {
		if p.X < 0 || p.Y < 0 {
			return nil, fmt.Errorf("%w: slot %d has negative position (%d,%d)", ErrInvalidConfig, i, p.X, p.Y)
		}
	}

	res := make(map[int]struct{}, len(reserved))
	for _, idx := range reserved {
		if idx < 0 || idx >= len(positions) {
			return nil, fmt.Errorf("%w: reserved index %d outside 0..%d", ErrInvalidConfig, idx, len(positions)-1)
		}
		res[idx] = struct{}{}
	}

	pos := make([]image.Point, len(positions))
	copy(pos, positions)

	return &Config{
		positions: pos,
		width:     width,
		height:    height,
		reserved:  res,
	}, nil
}

// Len returns the number of slots.
func (c *Config) Len() int {
	return len(c.positions)
}

// Size returns the slot width and height shared by all slots.
func (c *Config) Size() (width, height int) {
	return c.width, c.height
}

// Rect returns the rectangle of slot i.
func (c *Config) Rect(i int) image.Rectangle {
	p := c.positions[i]
	return image.Rect(p.X, p.Y, p.X+c.width, p.Y+c.height)
}

// IsReserved reports whether slot i is reserved.
func (c *Config) IsReserved(i int) bool {
	_, ok := c.reserved[i]
	return ok
}

// Reserved returns the reserved indices in ascending order.
func (c *Config) Reserved() []int {
	out := make([]int, 0, len(c.reserved))
	for idx := range c.reserved {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Positions returns a copy of the slot positions.
func (c *Config) Positions() []image.Point {
	out := make([]image.Point, len(c.positions))
	copy(out, c.positions)
	return out
}

// Regions returns every slot in configuration order.
func (c *Config) Regions() []Region {
	out := make([]Region, len(c.positions))
	for i := range c.positions {
		out[i] = Region{Index: i, Rect: c.Rect(i), Reserved: c.IsReserved(i)}
	}
	return out
}

// Check verifies that slot i fits inside bounds.
func (c *Config) Check(i int, bounds image.Rectangle) error {
	r := c.Rect(i)
	if !r.In(bounds) {
		return &OutOfBoundsError{Index: i, Rect: r, Bounds: bounds}
	}
	return nil
}

// CheckAll verifies every slot against bounds and returns the first slot
// that does not fit.
func (c *Config) CheckAll(bounds image.Rectangle) error {
	for i := range c.positions {
		if err := c.Check(i, bounds); err != nil {
			return err
		}
	}
	return nil
}
