package ratectl

import (
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/quant"
)

// BestField pairs a search loop's chosen quantizer with the encoded size
// it produced, the unit TargetSizeSearch and FastScalarScale operate on.
type BestField struct {
	Quantizer *quant.Quantizer
	SizeBytes int
}

// targetSizeSearchIters bounds the binary search over butteraugli-distance
// targets (spec.md §4.8's "Target-size mode").
const targetSizeSearchIters = 20

// TargetSizeSearch binary-searches the butteraugli-distance target fed to
// StandardLoop until the encoded field's size fits within targetBytes,
// following the same bounded-iteration bisection shape as
// jpeg2000/rate_distortion.go's FindOptimalLambda (there bisecting a
// rate-distortion slope threshold; here bisecting a distance target).
func TargetSizeSearch(aqMap *image.Plane[float32], codec Codec, cmp Comparator, targetBytes int, templateID int) (quantizer *BestField, achievedDist float64) {
	low, high := 0.1, 24.0
	var best *BestField
	bestDist := high

	for iter := 0; iter < targetSizeSearchIters; iter++ {
		mid := (low + high) / 2
		q, dist := StandardLoop(aqMap, codec, cmp, mid, templateID)
		_, size := codec.EncodeDecode(q.DCScale(), q.RawField())
		if size <= targetBytes {
			best = &BestField{Quantizer: q, SizeBytes: size}
			bestDist = dist
			high = mid
		} else {
			low = mid
		}
	}

	if best == nil {
		q, dist := StandardLoop(aqMap, codec, cmp, high, templateID)
		_, size := codec.EncodeDecode(q.DCScale(), q.RawField())
		best = &BestField{Quantizer: q, SizeBytes: size}
		bestDist = dist
	}
	return best, bestDist
}

// FastScalarScale is the cheap target-size variant: instead of
// re-running the full search at each candidate distance, it repeatedly
// scales a single already-found field by a constant factor until the
// encoded size fits (spec.md §4.8: "A fast variant instead scales a
// found quant field by a scalar until size fits").
func FastScalarScale(seed *BestField, codec Codec, targetBytes int) *BestField {
	const growthFactor = 1.15
	const maxIters = 20

	field := append([]uint32{}, seed.Quantizer.RawField()...)
	scale := 1.0
	size := seed.SizeBytes
	for iter := 0; iter < maxIters && size > targetBytes; iter++ {
		scale *= growthFactor
		for i, v := range seed.Quantizer.RawField() {
			field[i] = clampQuantValue(float64(v) * scale)
		}
		_, size = codec.EncodeDecode(seed.Quantizer.DCScale(), field)
	}

	out := seed.Quantizer.Clone()
	out.SetQuantField(out.DCScale(), field)
	return &BestField{Quantizer: out, SizeBytes: size}
}
