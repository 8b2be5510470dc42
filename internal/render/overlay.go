package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/parkwatch/internal/occupancy"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// TimestampLayout is the format of the timestamp drawn on overlays.
const TimestampLayout = "2006-01-02 15:04:05"

// Options control what Overlay draws.
type Options struct {
	Palette Palette
	// Thickness of slot rectangles in pixels. Zero means 2.
	Thickness int
	// Banner is the baseline origin of the "Free: n/total" banner.
	Banner image.Point
	// Timestamp is drawn at the top-left corner unless it is zero.
	Timestamp time.Time
}

// DefaultOptions returns the default palette with the banner at (100, 50)
// and no timestamp.
func DefaultOptions() Options {
	return Options{
		Palette:   DefaultPalette(),
		Thickness: 2,
		Banner:    image.Pt(100, 50),
	}
}

// Overlay returns an annotated copy of frame. The frame itself is not
// modified.
//
// Parameters:
//   - frame: the frame the result was computed from, any origin
//   - cfg: the slot layout, in frame coordinates relative to its origin
//   - result: one classification per slot of cfg
//   - opts: palette, rectangle thickness, banner position and timestamp
//
// Returns:
//   - *image.RGBA: a zero-origin copy of frame with the annotations drawn
//   - error: non-nil if an argument is nil or result does not match cfg
//
// Each slot gets a rectangle in its state color and its state label at the
// bottom-left corner. The free count banner and the optional timestamp are
// drawn last so they stay readable over the slots. Annotations that fall
// partly outside the frame are clipped.
func Overlay(frame image.Image, cfg *slots.Config, result *occupancy.FrameResult, opts Options) (*image.RGBA, error) {
	if frame == nil {
		return nil, fmt.Errorf("frame is nil")
	}
	if cfg == nil || result == nil {
		return nil, fmt.Errorf("layout and result are required")
	}
	if len(result.Slots) != cfg.Len() {
		return nil, fmt.Errorf("result has %d slots, layout has %d", len(result.Slots), cfg.Len())
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 2
	}

	src := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, src.Min, draw.Src)

	_, slotHeight := cfg.Size()
	for _, s := range result.Slots {
		r := cfg.Rect(s.Index)
		c := opts.Palette.Color(s.State)
		drawRect(dst, r, c, opts.Thickness)
		drawTextBox(dst, s.State.Label(), image.Pt(r.Min.X, r.Min.Y+slotHeight-3), 1, 0, c)
	}

	banner := fmt.Sprintf("Free: %d/%d", result.FreeCount, result.TotalCount)
	drawTextBox(dst, banner, opts.Banner, 3, 7, opts.Palette.Banner)

	if !opts.Timestamp.IsZero() {
		drawTextBox(dst, opts.Timestamp.Format(TimestampLayout), image.Pt(10, 30), 1, 5, opts.Palette.Timestamp)
	}

	return dst, nil
}

// drawRect outlines r with lines of the given thickness drawn inside r.
func drawRect(dst *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	u := image.NewUniform(c)
	if thickness*2 >= r.Dx() || thickness*2 >= r.Dy() {
		draw.Draw(dst, r, u, image.Point{}, draw.Src)
		return
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, u, image.Point{}, draw.Src)
	}
}

// drawTextBox draws text on a filled box. origin is the left end of the text
// baseline, pad is the box margin around the text, and scale enlarges the
// 7x13 glyphs by an integer factor. Parts outside dst are clipped.
func drawTextBox(dst *image.RGBA, text string, origin image.Point, scale, pad int, bg color.RGBA) {
	if text == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	width := font.MeasureString(face, text).Ceil()

	box := image.NewRGBA(image.Rect(0, 0, width+2*pad, ascent+descent+2*pad))
	draw.Draw(box, box.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  box,
		Src:  image.NewUniform(textColor(bg)),
		Face: face,
		Dot:  fixed.P(pad, pad+ascent),
	}
	d.DrawString(text)

	var img image.Image = box
	if scale > 1 {
		b := box.Bounds()
		img = imaging.Resize(box, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	}

	topLeft := image.Pt(origin.X-pad*scale, origin.Y-(ascent+pad)*scale)
	r := img.Bounds().Sub(img.Bounds().Min).Add(topLeft)
	draw.Draw(dst, r, img, img.Bounds().Min, draw.Over)
}
