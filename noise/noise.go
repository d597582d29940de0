// Package noise estimates and synthesizes the per-image grain pattern
// added back into the reconstructed XYB picture (spec.md §4.9): a
// power-law noise-strength model fit to the source image at encode time,
// and a fixed-seed xorshift-128-plus PRNG used to regenerate the same
// grain at decode time from the three fitted floats alone.
//
// Grounded on original_source/noise.cc's AddNoise/GetNoiseParameter
// pipeline: patch SAD scoring picks the "flat" patches a grain model
// should be fit against, a histogram mode threshold separates flat from
// textured, and a least-squares power-law fit over the flat patches'
// (intensity, noise level) pairs produces (alpha, gamma, beta). The
// per-parameter bitstream encoding (sign bit + 16-bit fixed-precision
// magnitude) follows noise.cc's EncodeFloatParam/DecodeFloatParam exactly,
// reusing this module's own bitio.Writer/Reader in place of the teacher's
// WriteBits/BitReader.
package noise

import (
	"math"

	"github.com/xybimage/xybc/bitio"
)

// Params is the power-law noise-strength model: strength(intensity) =
// clamp(alpha*(intensity+xybCenter[1])^gamma + beta, 0, 1).
type Params struct {
	Alpha float64
	Gamma float64
	Beta  float64
}

// IsZero reports whether the model injects no noise at all, the
// have_noise=0 bitstream case.
func (p Params) IsZero() bool {
	return p.Alpha == 0 && p.Gamma == 0 && p.Beta == 0
}

// precision is the fixed point scale noise.cc's EncodeFloatParam /
// DecodeFloatParam use for alpha/gamma/beta (spec.md §2: "fixed precision
// 1000").
const precision = 1000.0

// magnitudeBits is the width of each parameter's quantized magnitude
// field (spec.md §2: "a sign bit plus a 16-bit magnitude").
const magnitudeBits = 16

func encodeFloatParam(w *bitio.Writer, v float64) {
	sign := uint64(0)
	absV := v
	if v >= 0 {
		sign = 1
	} else {
		absV = -v
	}
	w.WriteBits(sign, 1)
	mag := int(absV*precision + 0.5)
	if mag >= 1<<magnitudeBits {
		mag = (1 << magnitudeBits) - 1
	}
	w.WriteBits(uint64(mag), magnitudeBits)
}

func decodeFloatParam(r *bitio.Reader) (float64, error) {
	signBit, err := r.ReadBits(1)
	if err != nil {
		return 0, err
	}
	mag, err := r.ReadBits(magnitudeBits)
	if err != nil {
		return 0, err
	}
	sign := 1.0
	if signBit == 0 {
		sign = -1.0
	}
	return sign * float64(mag) / precision, nil
}

// Encode writes the have_noise flag and, if set, the three quantized
// parameters, then byte-aligns (spec.md §2, bitstream layout item 3).
func Encode(w *bitio.Writer, p Params) {
	if p.IsZero() {
		w.WriteBits(0, 1)
		w.Align()
		return
	}
	w.WriteBits(1, 1)
	encodeFloatParam(w, p.Alpha)
	encodeFloatParam(w, p.Gamma)
	encodeFloatParam(w, p.Beta)
	w.Align()
}

// Decode reads back what Encode wrote.
func Decode(r *bitio.Reader) (Params, error) {
	haveNoise, err := r.ReadBits(1)
	if err != nil {
		return Params{}, err
	}
	if haveNoise == 0 {
		r.Align()
		return Params{}, nil
	}
	var p Params
	if p.Alpha, err = decodeFloatParam(r); err != nil {
		return Params{}, err
	}
	if p.Gamma, err = decodeFloatParam(r); err != nil {
		return Params{}, err
	}
	if p.Beta, err = decodeFloatParam(r); err != nil {
		return Params{}, err
	}
	r.Align()
	return p, nil
}

// Strength evaluates the fitted power-law model at one intensity sample,
// clamped to [0, 1] (noise.cc's NoiseStrength).
func (p Params) Strength(intensity float64) float64 {
	shifted := intensity + xybCenter[1]
	v := p.Alpha*powf(shifted, p.Gamma) + p.Beta
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func powf(x, y float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Pow(x, y)
}
