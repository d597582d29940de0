package opsin

import "testing"

func TestRoundTripPixel(t *testing.T) {
	for r := 0; r < 256; r += 7 {
		for g := 0; g < 256; g += 11 {
			for b := 0; b < 256; b += 13 {
				rl := float64(Srgb8ToLinear(uint8(r)))
				gl := float64(Srgb8ToLinear(uint8(g)))
				bl := float64(Srgb8ToLinear(uint8(b)))

				x, y, z := ForwardPixel(rl, gl, bl)
				rr, rg, rb := InversePixel(x, y, z)

				got := [3]uint8{
					LinearToSrgb8(float32(clamp01(rr))),
					LinearToSrgb8(float32(clamp01(rg))),
					LinearToSrgb8(float32(clamp01(rb))),
				}
				want := [3]int{r, g, b}
				for i, w := range want {
					if diff := int(got[i]) - w; diff < -1 || diff > 1 {
						t.Fatalf("channel %d: srgb %d -> xyb -> srgb %d, diff %d", i, w, got[i], diff)
					}
				}
			}
		}
	}
}

func TestAbsorbanceMatrixInvertible(t *testing.T) {
	// identity check: Inverse(Forward(v)) == v for an arbitrary linear vector.
	r, g, b := 0.37, 0.81, 0.12
	mr, mg, mb := applyAbsorbance(r, g, b)
	rr, rg, rb := applyAbsorbanceInverse(mr, mg, mb)
	const eps = 1e-9
	if abs(rr-r) > eps || abs(rg-g) > eps || abs(rb-b) > eps {
		t.Fatalf("absorbance matrix does not invert: got (%v,%v,%v) want (%v,%v,%v)", rr, rg, rb, r, g, b)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
