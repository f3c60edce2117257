package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandelbrot"
)

// Position labels the complex value under pixel (x, y) of a w×h image
// showing v, as "X: -0.50000 Y: 0.37500".
func Position(v mandelbrot.Viewport, x, y float64, w, h int) string {
	return positionLabel(message.NewPrinter(language.English), v, x, y, w, h)
}

func positionLabel(p *message.Printer, v mandelbrot.Viewport, x, y float64, w, h int) string {
	c := v.At(x, y, w, h)
	return p.Sprintf("X: %.5f Y: %.5f", real(c), imag(c))
}

// Caption summarizes a request for an image overlay, e.g.
// "1,920×1,080 · 100 iterations · center (-0.5, 0.375) · width 4".
func Caption(p *message.Printer, req mandelbrot.Request) string {
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	c := req.Viewport.Center()
	return p.Sprintf("%d×%d · %d iterations · center (%g, %g) · width %g",
		req.Width, req.Height, req.MaxIterations, real(c), imag(c), req.Viewport.Width())
}
