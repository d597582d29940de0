package actoken

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	for v := int32(-2000); v <= 2000; v++ {
		nbits, extra := EncodeValue(v)
		got := DecodeValue(nbits, extra)
		if got != v {
			t.Fatalf("value %d: round trip got %d (nbits=%d extra=%d)", v, got, nbits, extra)
		}
	}
}

func TestCategoryZero(t *testing.T) {
	if c := Category(0); c != 0 {
		t.Fatalf("Category(0) = %d, want 0", c)
	}
}

func TestZigZagOrderIsPermutation(t *testing.T) {
	order := ZigZagOrder()
	seen := make(map[int]bool)
	for _, v := range order {
		if v < 0 || v >= 64 {
			t.Fatalf("zig-zag order contains out-of-range index %d", v)
		}
		if seen[v] {
			t.Fatalf("zig-zag order repeats index %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 64 {
		t.Fatalf("zig-zag order covers %d indices, want 64", len(seen))
	}
}

func TestTokenizeDetokenizeBlockRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	order := ZigZagOrder()
	for trial := 0; trial < 20; trial++ {
		var coef [64]int32
		for k := 1; k < 64; k++ {
			if rng.Float64() < 0.3 {
				coef[k] = int32(rng.Intn(2001) - 1000)
			}
		}
		tokens := TokenizeBlock(coef[:], order[:], 0)
		got := DetokenizeBlock(tokens, order[:])
		for k := 1; k < 64; k++ {
			if got[k] != coef[k] {
				t.Fatalf("trial %d coefficient %d: got %d want %d", trial, k, got[k], coef[k])
			}
		}
	}
}

func TestTokenizeDetokenizeBlockRoundTripAtExtremeMagnitude(t *testing.T) {
	// -32768 is the smallest int16, reachable once a quantized
	// coefficient is clamped to that range: Category(-32768) == 16, the
	// one case where a naive run*16+category fusion collides with the
	// next run's category-0 symbol.
	order := ZigZagOrder()
	var coef [64]int32
	coef[order[3]] = -32768
	coef[order[10]] = 32767
	tokens := TokenizeBlock(coef[:], order[:], 0)
	got := DetokenizeBlock(tokens, order[:])
	for k := 1; k < 64; k++ {
		if got[k] != coef[k] {
			t.Fatalf("coefficient %d: got %d want %d", k, got[k], coef[k])
		}
	}
}

func TestPermutationLehmerRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	perm := rng.Perm(64)
	lehmer := PermutationToLehmer(perm)
	got := LehmerToPermutation(lehmer)
	if !reflect.DeepEqual(got, perm) {
		t.Fatalf("lehmer round trip mismatch: got %v want %v", got, perm)
	}
}

func TestContextsWithinBounds(t *testing.T) {
	for orderCtx := 0; orderCtx < NumOrderContexts; orderCtx++ {
		for b := 0; b < NNZBucketsPerOrder; b++ {
			c := NNZContext(orderCtx, b)
			if c < NumDCContexts || c >= NumContexts {
				t.Fatalf("NNZContext(%d,%d) = %d out of bounds", orderCtx, b, c)
			}
		}
		for b := 0; b < PositionBucketsPerOrder; b++ {
			c := PositionContext(orderCtx, b)
			if c < NumDCContexts || c >= NumContexts {
				t.Fatalf("PositionContext(%d,%d) = %d out of bounds", orderCtx, b, c)
			}
		}
	}
}

func TestOrderContextChannelSpecificWhenFlat(t *testing.T) {
	flat := make([]float64, 64)
	flat[1] = 0.01 // negligible AC energy, stays flat
	for ch := 0; ch < 3; ch++ {
		if got := OrderContext(ch, flat); got != ch {
			t.Fatalf("OrderContext(%d, flat) = %d, want %d", ch, got, ch)
		}
	}
}
