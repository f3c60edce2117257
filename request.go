package mandelbrot

import "fmt"

// Request describes one render: which part of the plane, at what pixel
// size, with what iteration budget.
type Request struct {
	Viewport      Viewport
	Width, Height int
	MaxIterations int
}

// DefaultIterations is the iteration budget used when none is configured.
const DefaultIterations = 100

// MaxPixels bounds Width*Height so a buffer never exceeds 1 GiB.
const MaxPixels = 1 << 28

// NewRequest returns a validated request.
func NewRequest(v Viewport, width, height, maxIterations int) (Request, error) {
	r := Request{Viewport: v, Width: width, Height: height, MaxIterations: maxIterations}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks the request before any work starts.
//
// A zero width or height is valid and renders nothing.
func (r Request) Validate() error {
	if r.MaxIterations < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidIterations, r.MaxIterations)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, r.Width, r.Height)
	}
	// Divide rather than multiply so huge sides cannot overflow.
	if r.Width > 0 && r.Height > MaxPixels/r.Width {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidSize, r.Width, r.Height, MaxPixels)
	}
	return r.Viewport.Validate()
}

// Pixels returns the number of pixels in the image.
func (r Request) Pixels() int {
	return r.Width * r.Height
}

// Empty reports whether the request covers no pixels.
func (r Request) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// ColorAt evaluates the pixel at (col, row).
func (r Request) ColorAt(col, row int) Color {
	return Evaluate(r.Viewport.ToComplex(col, row, r.Width, r.Height), r.MaxIterations)
}
