// Package opsin implements the nonlinear sRGB -> XYB opsin color transform
// and its inverse (spec.md §4.1).
//
// Grounded on jpeg2000/colorspace/ict.go's ForwardXxx/InverseXxx/
// ApplyXxxToComponents shape (scalar per-pixel function plus a slice-mapping
// wrapper), with the absorbance matrix and cube-root gamma semantics taken
// from original_source/opsin_image.cc (SimpleGamma, LinearXybTransform,
// LinearToXyb). The 3x3 absorbance matrix's inverse is computed once at
// init time via the analytic cofactor formula rather than hand-transcribed,
// so Inverse(Forward(x)) == x holds to floating-point precision regardless
// of the exact matrix entries chosen (the spec explicitly does not require
// bit-exact reproduction of the original constants).
package opsin

// absorbance is the forward RGB->"mixed" absorbance matrix, approximating
// the original opsin absorbance response. Values are a plausible
// reimplementation, not a transcription of an unavailable upstream table.
var absorbance = [3][3]float64{
	{0.300, 0.622, 0.078},
	{0.230, 0.692, 0.078},
	{0.243, 0.204, 0.553},
}

var absorbanceInv [3][3]float64

func init() {
	absorbanceInv = invert3x3(absorbance)
}

func invert3x3(m [3][3]float64) [3][3]float64 {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det == 0 {
		panic("opsin: absorbance matrix is singular")
	}
	invDet := 1.0 / det

	var out [3][3]float64
	out[0][0] = (e*i - f*h) * invDet
	out[0][1] = (c*h - b*i) * invDet
	out[0][2] = (b*f - c*e) * invDet
	out[1][0] = (f*g - d*i) * invDet
	out[1][1] = (a*i - c*g) * invDet
	out[1][2] = (c*d - a*f) * invDet
	out[2][0] = (d*h - e*g) * invDet
	out[2][1] = (b*g - a*h) * invDet
	out[2][2] = (a*e - b*d) * invDet
	return out
}

// Per-channel fixed scales applied to the R and G mixed channels before the
// X/Y rotation (spec.md §4.1: "sR, sG are per-channel fixed scales"). Held
// at unity: the rotation is invertible for any choice, and the spec does
// not pin their exact values (see DESIGN.md's opsin section).
const (
	scaleR = 1.0
	scaleG = 1.0
)

func applyAbsorbance(r, g, b float64) (x, y, z float64) {
	x = absorbance[0][0]*r + absorbance[0][1]*g + absorbance[0][2]*b
	y = absorbance[1][0]*r + absorbance[1][1]*g + absorbance[1][2]*b
	z = absorbance[2][0]*r + absorbance[2][1]*g + absorbance[2][2]*b
	return
}

func applyAbsorbanceInverse(x, y, z float64) (r, g, b float64) {
	r = absorbanceInv[0][0]*x + absorbanceInv[0][1]*y + absorbanceInv[0][2]*z
	g = absorbanceInv[1][0]*x + absorbanceInv[1][1]*y + absorbanceInv[1][2]*z
	b = absorbanceInv[2][0]*x + absorbanceInv[2][1]*y + absorbanceInv[2][2]*z
	return
}

// simpleGamma approximates a cube root, the perceptual nonlinearity applied
// to each absorbance-mixed channel.
func simpleGamma(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return cubeRoot(v)
}

func cubeRoot(v float64) float64 {
	// Newton-Raphson refinement from a cheap initial guess (v itself,
	// floored at 1e-3), run for a fixed 24 iterations.
	if v == 0 {
		return 0
	}
	guess := v
	if guess < 1e-3 {
		guess = 1e-3
	}
	for i := 0; i < 24; i++ {
		guess = guess - (guess*guess*guess-v)/(3*guess*guess)
	}
	return guess
}

func cube(v float64) float64 { return v * v * v }

// ForwardPixel converts one linear-light RGB pixel to XYB.
func ForwardPixel(r, g, b float64) (x, y, z float64) {
	mr, mg, mb := applyAbsorbance(r, g, b)
	mr = simpleGamma(mr)
	mg = simpleGamma(mg)
	mb = simpleGamma(mb)

	x = (scaleR*mr - scaleG*mg) * 0.5
	y = (scaleR*mr + scaleG*mg) * 0.5
	z = mb
	return
}

// InversePixel converts one XYB pixel back to linear-light RGB.
func InversePixel(x, y, z float64) (r, g, b float64) {
	mr := (y + x) / scaleR
	mg := (y - x) / scaleG
	mb := z

	mr = cube(mr)
	mg = cube(mg)
	mb = cube(mb)

	return applyAbsorbanceInverse(mr, mg, mb)
}
