package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/youruser/matchboard/internal/fonts"
	"github.com/youruser/matchboard/internal/geometry"
	"github.com/youruser/matchboard/internal/layout"
)

// Font selects a text size in pixels and weight.
type Font struct {
	Size float64
	Bold bool
}

// Surface is the drawing target the compositor paints on. Paint calls are
// plain descriptions, so a recording implementation can stand in for a real
// raster in tests. A Surface is used by one render at a time.
type Surface interface {
	geometry.PathBuilder
	// Fill fills the current path and clears it.
	Fill(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	FillVerticalGradient(x, y, w, h float64, top, bottom color.Color)
	// DrawImage draws img scaled to w×h at (x, y).
	DrawImage(img image.Image, x, y, w, h float64)
	SetFont(f Font)
	MeasureString(s string) float64
	// DrawString draws s vertically centered on y, aligned on x.
	DrawString(s string, x, y float64, align layout.Align, c color.Color)
	Image() image.Image
}

// SurfaceFactory creates a blank surface of the given size.
type SurfaceFactory func(width, height int) Surface

// GGSurface paints onto an in-memory RGBA image with fogleman/gg.
type GGSurface struct {
	dc    *gg.Context
	fonts *fonts.Manager
	faces map[Font]font.Face
}

func NewGGSurface(fm *fonts.Manager, width, height int) *GGSurface {
	return &GGSurface{
		dc:    gg.NewContext(width, height),
		fonts: fm,
		faces: make(map[Font]font.Face),
	}
}

// GGSurfaceFactory returns a SurfaceFactory drawing with fm's fonts.
func GGSurfaceFactory(fm *fonts.Manager) SurfaceFactory {
	return func(width, height int) Surface {
		return NewGGSurface(fm, width, height)
	}
}

func (s *GGSurface) MoveTo(x, y float64)                 { s.dc.MoveTo(x, y) }
func (s *GGSurface) LineTo(x, y float64)                 { s.dc.LineTo(x, y) }
func (s *GGSurface) QuadraticTo(x1, y1, x2, y2 float64) { s.dc.QuadraticTo(x1, y1, x2, y2) }
func (s *GGSurface) ClosePath()                          { s.dc.ClosePath() }

func (s *GGSurface) Fill(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Fill()
}

func (s *GGSurface) FillRect(x, y, w, h float64, c color.Color) {
	s.dc.DrawRectangle(x, y, w, h)
	s.Fill(c)
}

func (s *GGSurface) FillVerticalGradient(x, y, w, h float64, top, bottom color.Color) {
	grad := gg.NewLinearGradient(x, y, x, y+h)
	grad.AddColorStop(0, top)
	grad.AddColorStop(1, bottom)
	s.dc.SetFillStyle(grad)
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *GGSurface) DrawImage(img image.Image, x, y, w, h float64) {
	iw, ih := int(math.Round(w)), int(math.Round(h))
	if iw <= 0 || ih <= 0 {
		return
	}
	if b := img.Bounds(); b.Dx() != iw || b.Dy() != ih {
		img = imaging.Resize(img, iw, ih, imaging.Lanczos)
	}
	s.dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
}

func (s *GGSurface) SetFont(f Font) {
	face, ok := s.faces[f]
	if !ok {
		face = s.fonts.FaceOrBasic(f.Size, f.Bold)
		s.faces[f] = face
	}
	s.dc.SetFontFace(face)
}

func (s *GGSurface) MeasureString(str string) float64 {
	w, _ := s.dc.MeasureString(str)
	return w
}

func (s *GGSurface) DrawString(str string, x, y float64, align layout.Align, c color.Color) {
	ax := 0.0
	switch align {
	case layout.AlignCenter:
		ax = 0.5
	case layout.AlignRight:
		ax = 1
	}
	s.dc.SetColor(c)
	s.dc.DrawStringAnchored(str, x, y, ax, 0.5)
}

func (s *GGSurface) Image() image.Image {
	return s.dc.Image()
}
