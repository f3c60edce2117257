// Package display turns the gray frames produced by a mandelbrot.Renderer
// into images for people: palettes, a Canvas that follows the current
// session, status and coordinate labels, scaling and caption overlays.
package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"maps"
	"slices"

	"github.com/gogpu/mandelbrot"
	icolor "github.com/gogpu/mandelbrot/internal/color"
)

// ErrUnknownPalette is returned by PaletteByName for names it does not know.
var ErrUnknownPalette = errors.New("display: unknown palette")

// Palette maps gray levels to display colors. Stops are spaced evenly over
// levels 0..255 and blended in linear light. Interior points get their own
// color.
//
// A Palette is immutable and safe for concurrent use.
type Palette struct {
	lut    [256]color.NRGBA
	inside color.NRGBA
}

// PaletteOption configures NewPalette.
type PaletteOption func(*paletteOptions)

type paletteOptions struct {
	inside color.Color
	steps  int
}

// WithInside sets the color of points inside the set. The default is white,
// which is how the packed Interior value looks on a BGR32 surface.
func WithInside(c color.Color) PaletteOption {
	return func(o *paletteOptions) {
		if c != nil {
			o.inside = c
		}
	}
}

// WithSteps limits the palette to n distinct escape colors, producing
// visible bands. Zero (the default) keeps all 256 levels.
func WithSteps(n int) PaletteOption {
	return func(o *paletteOptions) {
		if n >= 0 {
			o.steps = n
		}
	}
}

// NewPalette builds a palette over the given stops. With no stops every
// escaped point maps to black.
func NewPalette(stops []color.Color, opts ...PaletteOption) *Palette {
	o := paletteOptions{inside: color.White}
	for _, opt := range opts {
		opt(&o)
	}

	rgb := make([]icolor.RGB8, len(stops))
	for i, s := range stops {
		rgb[i] = toRGB8(s)
	}

	p := &Palette{inside: color.NRGBAModel.Convert(o.inside).(color.NRGBA)}
	for v := range p.lut {
		c := icolor.Gradient(rgb, quantize(float64(v)/255, o.steps))
		p.lut[v] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	return p
}

func toRGB8(c color.Color) icolor.RGB8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return icolor.RGB8{R: n.R, G: n.G, B: n.B}
}

// quantize snaps t to one of steps evenly spaced values in [0,1].
func quantize(t float64, steps int) float64 {
	switch {
	case steps <= 0:
		return t
	case steps == 1:
		return 0
	}
	i := min(int(t*float64(steps)), steps-1)
	return float64(i) / float64(steps-1)
}

// Map returns the display color of a packed pixel.
func (p *Palette) Map(c mandelbrot.Color) color.NRGBA {
	if c.IsInterior() {
		return p.inside
	}
	return p.lut[c.Level()]
}

// Colorize converts a frame buffer into an image.
func (p *Palette) Colorize(buf *mandelbrot.PixelBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width(), buf.Height()))
	for i, c := range buf.Pix() {
		n := p.Map(c)
		o := i * 4
		img.Pix[o+0] = n.R
		img.Pix[o+1] = n.G
		img.Pix[o+2] = n.B
		img.Pix[o+3] = n.A
	}
	return img
}

var (
	darkGray  = color.RGBA{0x40, 0x40, 0x40, 0xff}
	lightGray = color.RGBA{0xa0, 0xa0, 0xa0, 0xff}
)

var palettes = map[string][]color.Color{
	"gray":    {color.Black, color.White},
	"default": {color.Black, darkGray, lightGray, color.White},
	"fire": {
		color.Black,
		color.RGBA{0x80, 0x00, 0x00, 0xff},
		color.RGBA{0xff, 0x80, 0x00, 0xff},
		color.RGBA{0xff, 0xff, 0x40, 0xff},
		color.White,
	},
	"ocean": {
		color.RGBA{0x00, 0x07, 0x64, 0xff},
		color.RGBA{0x20, 0x6b, 0xcb, 0xff},
		color.RGBA{0xed, 0xff, 0xff, 0xff},
		color.RGBA{0xff, 0xaa, 0x00, 0xff},
	},
}

// DefaultPalette returns the black, gray, gray, white ramp.
func DefaultPalette() *Palette {
	return NewPalette(palettes["default"])
}

// PaletteByName returns one of the built-in palettes listed by
// PaletteNames.
func PaletteByName(name string, opts ...PaletteOption) (*Palette, error) {
	stops, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	return NewPalette(stops, opts...), nil
}

// PaletteNames lists the built-in palettes in alphabetical order.
func PaletteNames() []string {
	return slices.Sorted(maps.Keys(palettes))
}
