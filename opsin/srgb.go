package opsin

import "math"

// srgbToLinear is a bit-exact 256-entry lookup from an 8-bit sRGB sample to
// its linear-light value in [0, 1], matching the forward half of the
// contract in spec.md's opsin pipeline ("sRGB->linear via a 256-entry
// lookup (bit-exact)").
var srgbToLinear [256]float32

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = float32(srgbToLinearExact(float64(i) / 255.0))
	}
}

func srgbToLinearExact(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

func linearToSrgbExact(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// Srgb8ToLinear returns the bit-exact linear value for an 8-bit sRGB sample.
func Srgb8ToLinear(v uint8) float32 { return srgbToLinear[v] }

// LinearToSrgb8 converts a clamped-to-[0,1] linear value back to an 8-bit
// sRGB sample, rounding to nearest.
func LinearToSrgb8(l float32) uint8 {
	if l <= 0 {
		return 0
	}
	if l >= 1 {
		return 255
	}
	s := linearToSrgbExact(float64(l))
	v := int(math.Round(s * 255.0))
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
