package color

// RGB8 is an opaque sRGB color with 8-bit channels.
type RGB8 struct {
	R, G, B uint8
}

// Mix interpolates between a and b at t in linear light.
// t is clamped to [0,1]; t == 0 returns a and t == 1 returns b exactly.
func Mix(a, b RGB8, t float64) RGB8 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	tf := float32(t)
	return RGB8{
		R: mixChannel(a.R, b.R, tf),
		G: mixChannel(a.G, b.G, tf),
		B: mixChannel(a.B, b.B, tf),
	}
}

func mixChannel(a, b uint8, t float32) uint8 {
	if a == b {
		return a
	}
	la, lb := ToLinear(a), ToLinear(b)
	return FromLinear(la + (lb-la)*t)
}

// Gradient evaluates a piecewise-linear gradient over evenly spaced stops.
// t is clamped to [0,1]. An empty gradient yields black.
func Gradient(stops []RGB8, t float64) RGB8 {
	switch len(stops) {
	case 0:
		return RGB8{}
	case 1:
		return stops[0]
	}
	if t <= 0 {
		return stops[0]
	}
	if t >= 1 {
		return stops[len(stops)-1]
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	return Mix(stops[i], stops[i+1], pos-float64(i))
}
