// Package geometry holds the stateless drawing helpers shared by the layout
// engine and the compositor.
package geometry

import "math"

// Ellipsis is appended to text shortened by TruncateToWidth.
const Ellipsis = "..."

// PathBuilder receives path segments. *gg.Context satisfies it.
type PathBuilder interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(x1, y1, x2, y2 float64)
	ClosePath()
}

// RoundedRectPath traces a closed rectangle whose corners are quadratic
// curves of radius r, starting at the top edge and running clockwise.
// r must not exceed min(w, h)/2; it is not clamped.
func RoundedRectPath(p PathBuilder, x, y, w, h, r float64) {
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.QuadraticTo(x+w, y, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.QuadraticTo(x+w, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.QuadraticTo(x, y+h, x, y+h-r)
	p.LineTo(x, y+r)
	p.QuadraticTo(x, y, x+r, y)
	p.ClosePath()
}

// TruncateToWidth shortens text until it fits maxWidth as measured by
// measure. Text that already fits is returned unchanged; otherwise trailing
// characters are dropped and an ellipsis appended, down to the bare ellipsis.
func TruncateToWidth(measure func(string) float64, text string, maxWidth float64) string {
	if text == "" {
		return ""
	}
	if measure(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && measure(string(runes)+Ellipsis) > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + Ellipsis
}

// FitSquare returns the rectangle an srcW×srcH image occupies when scaled to
// fit a size×size slot at (x, y), preserving aspect ratio and centered. The
// longer side maps to size. Results are rounded to whole pixels.
func FitSquare(srcW, srcH int, x, y, size float64) (dx, dy, dw, dh float64) {
	var w, h float64
	if srcW > srcH {
		w = size
		h = float64(srcH) / float64(srcW) * size
	} else {
		h = size
		w = float64(srcW) / float64(srcH) * size
	}
	ox := (size - w) / 2
	oy := (size - h) / 2
	return math.Round(x + ox), math.Round(y + oy), math.Round(w), math.Round(h)
}

// ScaleToWidth returns the height of an srcW×srcH image scaled to width.
func ScaleToWidth(srcW, srcH int, width float64) float64 {
	if srcW <= 0 {
		return 0
	}
	return float64(srcH) * (width / float64(srcW))
}
