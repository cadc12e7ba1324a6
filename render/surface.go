package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
)

// Surface is the drawing target of the events view. Coordinates are in
// pixels; text is positioned by the top-left corner of its line box.
type Surface interface {
	FillRect(r image.Rectangle, c color.Color)
	StrokeRect(r image.Rectangle, c color.Color)
	DrawText(s string, x, y int, face font.Face, c color.Color)
}

// MeasureText returns the advance width of s in pixels.
func MeasureText(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
