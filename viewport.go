package mandelbrot

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Viewport is the visible rectangle of the complex plane.
//
// The origin is the complex value at the top-left pixel. Width and height
// are the spans of the plane mapped across the image; the imaginary axis is
// inverted so that image rows increase downward while the imaginary part
// decreases. A Viewport is immutable: Pan, Zoom and Crop return new values.
type Viewport struct {
	origin        complex128
	width, height float64
}

// DefaultViewport returns the initial view of the whole set:
// origin -2.5+1.5i spanning 4 × 2.25, a 16:9 frame.
func DefaultViewport() Viewport {
	return Viewport{origin: complex(-2.5, 1.5), width: 4, height: 2.25}
}

// NewViewport returns a viewport with the given top-left origin and extent.
// Both extent components must be strictly positive and finite.
func NewViewport(origin complex128, width, height float64) (Viewport, error) {
	v := Viewport{origin: origin, width: width, height: height}
	if err := v.Validate(); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// Validate reports whether v satisfies the viewport invariants.
// The zero Viewport is invalid.
func (v Viewport) Validate() error {
	if !(v.width > 0) || !(v.height > 0) || math.IsInf(v.width, 0) || math.IsInf(v.height, 0) {
		return fmt.Errorf("%w: extent %g×%g", ErrInvalidViewport, v.width, v.height)
	}
	if cmplx.IsNaN(v.origin) || cmplx.IsInf(v.origin) {
		return fmt.Errorf("%w: origin %v", ErrInvalidViewport, v.origin)
	}
	return nil
}

// Origin returns the complex value at the top-left pixel.
func (v Viewport) Origin() complex128 { return v.origin }

// Width returns the span of the real axis across the image.
func (v Viewport) Width() float64 { return v.width }

// Height returns the span of the imaginary axis down the image.
func (v Viewport) Height() float64 { return v.height }

// Center returns the complex value at the middle of the view.
func (v Viewport) Center() complex128 {
	return v.origin + complex(v.width/2, -v.height/2)
}

// ToComplex maps pixel (col, row) of a w×h image to the complex plane:
//
//	re = origin.re + col/w * width
//	im = origin.im - row/h * height
func (v Viewport) ToComplex(col, row, w, h int) complex128 {
	return v.At(float64(col), float64(row), w, h)
}

// At is ToComplex for fractional pixel positions such as a mouse cursor.
func (v Viewport) At(x, y float64, w, h int) complex128 {
	return complex(
		real(v.origin)+x/float64(w)*v.width,
		imag(v.origin)-y/float64(h)*v.height,
	)
}

// ToPixel is the inverse of ToComplex. The result is fractional and may lie
// outside the image when c is not visible.
func (v Viewport) ToPixel(c complex128, w, h int) (x, y float64) {
	x = (real(c) - real(v.origin)) / v.width * float64(w)
	y = (imag(v.origin) - imag(c)) / v.height * float64(h)
	return x, y
}

// Pan returns the view after the image has been dragged by (dx, dy) pixels.
// Dragging right reveals what lies to the left, so the origin moves against
// the drag.
func (v Viewport) Pan(dx, dy float64, w, h int) Viewport {
	v.origin -= complex(dx/float64(w)*v.width, -dy/float64(h)*v.height)
	return v
}

// Zoom magnifies the view by factor around pixel (x, y), which keeps
// mapping to the same complex value. A factor above 1 zooms in.
// Non-positive or non-finite factors return v unchanged.
func (v Viewport) Zoom(factor, x, y float64, w, h int) Viewport {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return v
	}
	anchor := v.At(x, y, w, h)
	nw, nh := v.width/factor, v.height/factor
	return Viewport{
		origin: complex(real(anchor)-x/float64(w)*nw, imag(anchor)+y/float64(h)*nh),
		width:  nw,
		height: nh,
	}
}

// WheelFactor converts a mouse-wheel delta (120 per notch) to a zoom
// factor of 10% per notch.
func WheelFactor(delta int) float64 {
	return 1 + float64(delta)/120*0.1
}

// Crop returns the view covering the pixel rectangle (x0, y0)–(x1, y1) of
// a w×h image. The rectangle may extend past the image bounds.
func (v Viewport) Crop(x0, y0, x1, y1 float64, w, h int) (Viewport, error) {
	return NewViewport(
		v.At(x0, y0, w, h),
		(x1-x0)/float64(w)*v.width,
		(y1-y0)/float64(h)*v.height,
	)
}

// String formats the view for logs.
func (v Viewport) String() string {
	return fmt.Sprintf("origin=(%g,%g) extent=%g×%g", real(v.origin), imag(v.origin), v.width, v.height)
}
