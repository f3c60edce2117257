// Package color blends palette stops in linear light.
//
// Palette stops are authored in sRGB, but interpolating two sRGB bytes
// directly darkens the midpoint. The lookup tables here give O(1) sRGB ↔
// linear conversion so a palette can be evaluated once per pixel without
// math.Pow in the inner loop.
package color

import "math"

// toLinear maps an sRGB byte to linear light in [0,1].
var toLinear [256]float32

// fromLinear maps a linear value quantized to 12 bits back to an sRGB byte.
var fromLinear [4096]uint8

func init() {
	for i := range toLinear {
		toLinear[i] = float32(decode(float64(i) / 255))
	}
	for i := range fromLinear {
		fromLinear[i] = quantize(encode(float64(i) / 4095))
	}
}

// decode is the sRGB EOTF.
func decode(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// encode is the sRGB OETF.
func encode(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1/2.4) - 0.055
}

func quantize(s float64) uint8 {
	v := int(s*255 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	//nolint:gosec // G115: v is clamped to [0,255]
	return uint8(v)
}

// ToLinear converts an sRGB byte to linear light.
func ToLinear(s uint8) float32 {
	return toLinear[s]
}

// FromLinear converts linear light to an sRGB byte.
// Input outside [0,1] is clamped.
func FromLinear(l float32) uint8 {
	if l <= 0 {
		return fromLinear[0]
	}
	if l >= 1 {
		return fromLinear[4095]
	}
	return fromLinear[int(l*4095+0.5)]
}

// ToLinearExact is the math.Pow reference for ToLinear.
func ToLinearExact(s uint8) float32 {
	return float32(decode(float64(s) / 255))
}

// FromLinearExact is the math.Pow reference for FromLinear.
func FromLinearExact(l float32) uint8 {
	lf := math.Min(math.Max(float64(l), 0), 1)
	return quantize(encode(lf))
}
