package app

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
)

// EbitenSurface draws the events view on an ebiten image.
type EbitenSurface struct {
	dst *ebiten.Image
}

// NewEbitenSurface wraps dst.
func NewEbitenSurface(dst *ebiten.Image) *EbitenSurface {
	return &EbitenSurface{dst: dst}
}

func (s *EbitenSurface) FillRect(r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	vector.DrawFilledRect(s.dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), c, false)
}

func (s *EbitenSurface) StrokeRect(r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	// Half pixel offset keeps 1px strokes crisp
	vector.StrokeRect(s.dst, float32(r.Min.X)+0.5, float32(r.Min.Y)+0.5, float32(r.Dx()-1), float32(r.Dy()-1), 1, c, false)
}

func (s *EbitenSurface) DrawText(str string, x, y int, face font.Face, c color.Color) {
	// text.Draw positions the baseline
	text.Draw(s.dst, str, face, x, y+face.Metrics().Ascent.Ceil(), c)
}
