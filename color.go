package mandelbrot

import (
	"image/color"
	"math"
)

// Color is a packed 32-bit pixel value, 0xAARRGGBB.
//
// Escaped points are gray: the same byte in the red, green and blue
// positions and a zero high byte, which the consuming pixel format (BGR32)
// ignores. Interior points use the distinguished value Interior.
type Color uint32

// Interior marks a point that did not escape within the iteration budget.
// It has every bit set and never collides with a gray value, whose high
// byte is always zero.
const Interior Color = 0xFFFFFFFF

// Gray packs a gray level into the red, green and blue channels.
func Gray(v uint8) Color {
	c := Color(v)
	return c<<16 | c<<8 | c
}

// GrayFromIntensity packs an intensity in [0,1] as Gray(round(i*255)).
// Out-of-range intensities are clamped.
func GrayFromIntensity(i float64) Color {
	v := math.Round(i * 255)
	switch {
	case !(v > 0):
		v = 0
	case v > 255:
		v = 255
	}
	return Gray(uint8(v))
}

// IsInterior reports whether c is the interior sentinel.
func (c Color) IsInterior() bool {
	return c == Interior
}

// Level returns the gray level of an escaped color, or 255 for Interior.
func (c Color) Level() uint8 {
	return uint8(c)
}

// RGBA implements color.Color. The high byte is not alpha; every pixel
// is opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(uint8(c>>16)) * 0x101
	g = uint32(uint8(c>>8)) * 0x101
	b = uint32(uint8(c)) * 0x101
	return r, g, b, 0xffff
}

// NRGBA returns c as an opaque color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
}
