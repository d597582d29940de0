package ratectl

import (
	"math"

	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/quant"
)

// MaxStandardIters bounds the standard loop (spec.md §4.8: "Standard loop
// (<= 7 iterations)").
const MaxStandardIters = 7

// IterPow holds the per-iteration exponent the standard loop raises each
// tile's distance ratio to before scaling that tile's quant value. This
// is named and exported, rather than inlined, so a later tuning pass can
// re-seed it without touching the loop itself. The values below ramp
// from gentle (iteration 0, large correction steps still needed) to
// aggressive (the final iterations, where only a fine-grained push is
// wanted) and are this reimplementation's own choice of that ramp.
var IterPow = [MaxStandardIters]float64{0.70, 0.75, 0.80, 0.85, 0.90, 0.95, 1.00}

// initialQuantScale converts a butteraugli-distance target into the
// multiplier applied to the adaptive-quantization map when seeding the
// search (higher target distance tolerates coarser quantization, so a
// larger scale).
func initialQuantScale(target float64) float64 {
	if target <= 0 {
		target = 1.0
	}
	return target
}

// seedField builds the initial per-block raw quant field from the
// adaptive quantization map, scaled by constants derived from the
// butteraugli target (spec.md §4.8). The map is already at block
// resolution, so the field has one entry per map sample.
func seedField(aqMap *image.Plane[float32], target float64) (field []uint32, fieldXSize, fieldYSize int) {
	fieldXSize, fieldYSize = aqMap.XSize(), aqMap.YSize()
	field = make([]uint32, fieldXSize*fieldYSize)
	scale := initialQuantScale(target)
	for by := 0; by < fieldYSize; by++ {
		row := aqMap.Row(by)
		for bx := 0; bx < fieldXSize; bx++ {
			v := float64(row[bx]) * scale * 256.0
			field[by*fieldXSize+bx] = clampQuantValue(v)
		}
	}
	return field, fieldXSize, fieldYSize
}

func clampQuantValue(v float64) uint32 {
	if v < 1 {
		return 1
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint32(v)
}

// StandardLoop runs spec.md §4.8's standard rate-control search: seed a
// quant field from the adaptive map, then repeatedly encode/decode,
// measure perceptual distance per tile, and rescale each tile's quant
// value by (dist/target)^IterPow[iter]. Returns the best field observed (by
// achieved scalar distance) and that distance; the loop never fails, per
// spec.md's explicit "Failure: the loop never fails" clause.
func StandardLoop(aqMap *image.Plane[float32], codec Codec, cmp Comparator, target float64, templateID int) (*quant.Quantizer, float64) {
	field, fieldXSize, fieldYSize := seedField(aqMap, target)
	q := quant.NewQuantizer(templateID, fieldXSize, fieldYSize)
	dcScale := target * 16.0
	if dcScale <= 0 {
		dcScale = 1.0
	}
	q.SetQuantField(dcScale, field)

	var best *quant.Quantizer
	bestDist := math.Inf(1)

	for iter := 0; iter < MaxStandardIters; iter++ {
		decoded, _ := codec.EncodeDecode(q.DCScale(), q.RawField())
		distmap := cmp.Compare(decoded)
		dist := cmp.Score(distmap)

		if dist < bestDist {
			bestDist = dist
			best = q.Clone()
		}

		tileDist := DownsampleToTiles(distmap, fieldXSize, fieldYSize)
		current := q.RawField()
		nextField := make([]uint32, len(current))
		for t := range nextField {
			ratio := tileDist[t] / target
			if ratio <= 0 {
				ratio = 1e-6
			}
			scaled := float64(current[t]) * math.Pow(ratio, IterPow[iter])
			nextField[t] = clampQuantValue(scaled)
		}

		changed := q.SetQuantField(q.DCScale(), nextField)
		if !changed {
			break
		}
	}

	if best == nil {
		best = q.Clone()
	}
	return best, bestDist
}
