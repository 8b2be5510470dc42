package render

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/parkwatch/internal/occupancy"
)

// Palette holds the overlay colors.
type Palette struct {
	Reserved   color.RGBA
	Free       color.RGBA
	Misaligned color.RGBA
	Occupied   color.RGBA
	Banner     color.RGBA
	Timestamp  color.RGBA
}

// DefaultPalette returns blue reserved, green free, orange misaligned and
// red occupied slots with a green banner and a white timestamp box.
func DefaultPalette() Palette {
	return Palette{
		Reserved:   mustColor("#0000ff"),
		Free:       mustColor("#00ff00"),
		Misaligned: mustColor("#ffa500"),
		Occupied:   mustColor("#ff0000"),
		Banner:     mustColor("#00c800"),
		Timestamp:  mustColor("#ffffff"),
	}
}

// Color returns the color used for slots in state s.
func (p Palette) Color(s occupancy.State) color.RGBA {
	switch s {
	case occupancy.Reserved:
		return p.Reserved
	case occupancy.Free:
		return p.Free
	case occupancy.Misaligned:
		return p.Misaligned
	default:
		return p.Occupied
	}
}

// WithState returns a copy of p with the color for s replaced by the hex
// color c ("#rrggbb").
func (p Palette) WithState(s occupancy.State, c string) (Palette, error) {
	rgba, err := ParseColor(c)
	if err != nil {
		return p, err
	}
	switch s {
	case occupancy.Reserved:
		p.Reserved = rgba
	case occupancy.Free:
		p.Free = rgba
	case occupancy.Misaligned:
		p.Misaligned = rgba
	case occupancy.Occupied:
		p.Occupied = rgba
	default:
		return p, fmt.Errorf("unknown state %v", s)
	}
	return p, nil
}

// ParseColor parses a "#rrggbb" hex color into an opaque RGBA color.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// textColor picks black or white text, whichever reads better on bg.
func textColor(bg color.RGBA) color.RGBA {
	c, _ := colorful.MakeColor(bg)
	_, _, l := c.Hsl()
	if l > 0.6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func mustColor(hex string) color.RGBA {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}
