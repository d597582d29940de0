package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/xybimage/xybc/image"
)

func TestDCT8x8RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var block, coef, back [64]float64
	for trial := 0; trial < 64; trial++ {
		for i := range block {
			block[i] = rng.Float64()*2 - 1
		}
		DCT8x8(block[:], coef[:])
		IDCT8x8(coef[:], back[:])

		var maxAbs, maxErr float64
		for i := range block {
			if math.Abs(block[i]) > maxAbs {
				maxAbs = math.Abs(block[i])
			}
			if d := math.Abs(back[i] - block[i]); d > maxErr {
				maxErr = d
			}
		}
		if maxAbs == 0 {
			maxAbs = 1
		}
		if rel := maxErr / maxAbs; rel > 1e-5 {
			t.Fatalf("trial %d: relative error %g exceeds 1e-5", trial, rel)
		}
	}
}

func TestDCT8x8DCTerm(t *testing.T) {
	var block, coef [64]float64
	for i := range block {
		block[i] = 1
	}
	DCT8x8(block[:], coef[:])
	want := 8.0 // sqrt(1/8)*sqrt(1/8)*64 == 8
	if math.Abs(coef[0]-want) > 1e-9 {
		t.Fatalf("DC coefficient of a flat block = %v, want %v", coef[0], want)
	}
	for i := 1; i < 64; i++ {
		if math.Abs(coef[i]) > 1e-9 {
			t.Fatalf("AC coefficient %d of a flat block = %v, want 0", i, coef[i])
		}
	}
}

func TestGaborishRoundTripApprox(t *testing.T) {
	p := image.NewPlane[float32](16, 16)
	rng := rand.New(rand.NewSource(2))
	for y := 0; y < 16; y++ {
		row := p.Row(y)
		for x := 0; x < 16; x++ {
			row[x] = rng.Float32()
		}
	}
	orig := make([]float32, 16*16)
	for y := 0; y < 16; y++ {
		copy(orig[y*16:y*16+16], p.Row(y))
	}

	GaborishInverse(p)
	GaborishForward(p)

	var maxErr float32
	for y := 0; y < 16; y++ {
		row := p.Row(y)
		for x := 0; x < 16; x++ {
			d := row[x] - orig[y*16+x]
			if d < 0 {
				d = -d
			}
			if d > maxErr {
				maxErr = d
			}
		}
	}
	// Per axis, forward∘inverse leaves the residual -w²·[1,-4,6,-4,1]
	// (w = gaborishWeight), at most 8w² ≈ 0.068 on inputs in [0,1); over
	// both axes the deviation stays under 0.15.
	if maxErr > 0.15 {
		t.Fatalf("gaborish forward(inverse(x)) deviates from x by %v, want <= 0.15", maxErr)
	}
}

func TestExtractStoreBlockRoundTrip(t *testing.T) {
	p := image.NewPlane[float32](24, 24)
	rng := rand.New(rand.NewSource(3))
	for y := 0; y < 24; y++ {
		row := p.Row(y)
		for x := 0; x < 24; x++ {
			row[x] = rng.Float32()
		}
	}
	var buf [64]float64
	ExtractBlock(p, 1, 1, buf[:])

	q := image.NewPlane[float32](24, 24)
	StoreBlock(q, 1, 1, buf[:])

	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			want := p.At(8+dx, 8+dy)
			got := q.At(8+dx, 8+dy)
			if want != got {
				t.Fatalf("pixel (%d,%d): got %v want %v", dx, dy, got, want)
			}
		}
	}
}
