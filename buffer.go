package mandelbrot

import (
	"image"
	"image/color"
)

// PixelBuffer is a row-major buffer of packed colors, indexed
// row*Width + col.
//
// During a render the buffer is owned by its session and written by the
// scheduler's workers; observers only ever see copies (see Frame).
type PixelBuffer struct {
	width  int
	height int
	pix    []Color
}

// NewPixelBuffer creates a zeroed buffer. Negative dimensions are treated
// as zero.
func NewPixelBuffer(width, height int) *PixelBuffer {
	width, height = max(width, 0), max(height, 0)
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]Color, width*height),
	}
}

// Width returns the width of the buffer in pixels.
func (b *PixelBuffer) Width() int {
	return b.width
}

// Height returns the height of the buffer in pixels.
func (b *PixelBuffer) Height() int {
	return b.height
}

// Len returns the number of pixels.
func (b *PixelBuffer) Len() int {
	return len(b.pix)
}

// Pix returns the backing slice. Callers must not retain it across a
// flush of a running render.
func (b *PixelBuffer) Pix() []Color {
	return b.pix
}

// Get returns the color at (col, row), or 0 when out of bounds.
func (b *PixelBuffer) Get(col, row int) Color {
	if col < 0 || col >= b.width || row < 0 || row >= b.height {
		return 0
	}
	return b.pix[row*b.width+col]
}

// Set stores c at (col, row). Out-of-bounds writes are ignored.
func (b *PixelBuffer) Set(col, row int, c Color) {
	if col < 0 || col >= b.width || row < 0 || row >= b.height {
		return
	}
	b.pix[row*b.width+col] = c
}

// Fill sets every pixel in [lo, hi) to c, clipped to the buffer.
func (b *PixelBuffer) Fill(lo, hi int, c Color) {
	lo, hi = max(lo, 0), min(hi, len(b.pix))
	for i := lo; i < hi; i++ {
		b.pix[i] = c
	}
}

// Clone returns an independent copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := &PixelBuffer{width: b.width, height: b.height, pix: make([]Color, len(b.pix))}
	copy(c.pix, b.pix)
	return c
}

// Equal reports whether both buffers have the same size and contents.
func (b *PixelBuffer) Equal(o *PixelBuffer) bool {
	if b.width != o.width || b.height != o.height {
		return false
	}
	for i, c := range b.pix {
		if o.pix[i] != c {
			return false
		}
	}
	return true
}

// At implements the image.Image interface.
func (b *PixelBuffer) At(x, y int) color.Color {
	return b.Get(x, y)
}

// Bounds implements the image.Image interface.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *PixelBuffer) ColorModel() color.Model {
	return color.RGBAModel
}
