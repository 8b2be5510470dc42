// Package render draws occupancy results onto a copy of the source frame.
//
// Each slot gets a rectangle in its state color with the state label at its
// bottom-left corner. A "Free: n/total" banner and, optionally, the frame
// timestamp are drawn on top. Colors come from a Palette and are given as
// hex strings (#rrggbb or #rgb); label text is black or white, whichever
// contrasts with the box color.
//
// The source frame is never modified.
package render
