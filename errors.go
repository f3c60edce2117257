package mandelbrot

import "errors"

// Request validation errors. They are returned wrapped with the offending
// value; match them with errors.Is.
var (
	// ErrInvalidIterations is returned for an iteration budget below 1.
	ErrInvalidIterations = errors.New("mandelbrot: max iterations must be at least 1")

	// ErrInvalidSize is returned for negative image dimensions or an image
	// larger than MaxPixels.
	ErrInvalidSize = errors.New("mandelbrot: invalid image dimensions")

	// ErrInvalidViewport is returned for a viewport whose extent is not
	// strictly positive and finite, or whose origin is not finite.
	ErrInvalidViewport = errors.New("mandelbrot: invalid viewport")
)

// ErrClosed is returned by Renderer.Render after Close.
var ErrClosed = errors.New("mandelbrot: renderer closed")
