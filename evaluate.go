package mandelbrot

import "math"

// Bailout is the squared magnitude past which an orbit is considered to
// have escaped. It is far larger than the classic 4 so that the smoothing
// term log2(log2(|z|²)) is well behaved.
const Bailout = 1 << 16

// Evaluate runs the escape-time iteration for c and returns its color:
// Interior if the orbit stays bounded for maxIterations steps, otherwise a
// gray level from the smoothed escape count normalized by maxIterations.
//
// Evaluate is pure and safe for concurrent use. maxIterations below 1 is
// rejected by Request.Validate; Evaluate itself treats it as 1.
func Evaluate(c complex128, maxIterations int) Color {
	intensity, escaped := Intensity(c, maxIterations)
	if !escaped {
		return Interior
	}
	return GrayFromIntensity(intensity)
}

// Intensity returns the smoothed escape intensity of c in [0,1], and false
// if c is interior.
//
// For an orbit that escapes at 0-based iteration i with squared magnitude
// m, the continuous count is i + 2 - log2(log2(m)); its fractional part
// interpolates between the discrete levels i/max and (i+1)/max. An orbit
// that escapes on the last permitted iteration has no next level and gets
// i/max unsmoothed.
func Intensity(c complex128, maxIterations int) (float64, bool) {
	maxIterations = max(maxIterations, 1)

	var (
		zr, zi = 0.0, 0.0
		cr, ci = real(c), imag(c)
		mag2   float64
		last   = -1
	)
	for i := range maxIterations {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		mag2 = zr*zr + zi*zi
		if mag2 > Bailout {
			last = i
			break
		}
	}
	if last < 0 {
		return 0, false
	}

	n := float64(maxIterations)
	c0 := float64(last) / n
	if last == maxIterations-1 {
		return c0, true
	}

	smooth := float64(last) + 2 - math.Log2(math.Log2(mag2))
	frac := smooth - math.Floor(smooth)
	if math.IsNaN(frac) {
		// |z|² overflowed to +Inf.
		frac = 0
	}
	c1 := float64(last+1) / n
	return c0 + (c1-c0)*frac, true
}
