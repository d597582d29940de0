package ratectl

import (
	"math"

	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/quant"
)

// MaxHighQualityIters bounds the high-quality loop's alternation between
// a peak-raise pass and a global-shrink pass (spec.md §4.8: "Stops when
// no change is produced or after a bounded iteration count").
const MaxHighQualityIters = 12

// peakSearchRadius is the tile-radius a distmap peak must be isolated
// within before the high-quality loop raises that tile's quant value
// (spec.md §4.8: "raise quant only where a peak in the distmap exceeds
// target within a search radius").
const peakSearchRadius = 2

// shrinkFactor is the per-pass multiplier the global-shrink step applies
// to both the DC scale and every tile's quant value when no local peak
// needed raising.
const shrinkFactor = 0.97

// HighQualityLoop alternates a local peak-raise pass with a global
// shrink-and-retry pass, tracking the best-seen field by achieved
// distance, until neither pass changes anything or the iteration bound
// is hit.
func HighQualityLoop(aqMap *image.Plane[float32], codec Codec, cmp Comparator, target float64, templateID int) (*quant.Quantizer, float64) {
	field, fieldXSize, fieldYSize := seedField(aqMap, target)
	q := quant.NewQuantizer(templateID, fieldXSize, fieldYSize)
	dcScale := target * 16.0
	if dcScale <= 0 {
		dcScale = 1.0
	}
	q.SetQuantField(dcScale, field)

	ceiling := uint32(math.MaxUint16)
	var best *quant.Quantizer
	bestDist := math.Inf(1)

	for iter := 0; iter < MaxHighQualityIters; iter++ {
		decoded, _ := codec.EncodeDecode(q.DCScale(), q.RawField())
		distmap := cmp.Compare(decoded)
		dist := cmp.Score(distmap)
		if dist < bestDist {
			bestDist = dist
			best = q.Clone()
		}

		tileDist := DownsampleToTiles(distmap, fieldXSize, fieldYSize)
		current := q.RawField()
		raised := append([]uint32{}, current...)
		anyPeak := false
		for t, d := range tileDist {
			if d <= target {
				continue
			}
			if !hasIsolatedPeak(tileDist, fieldXSize, fieldYSize, t, target) {
				continue
			}
			nv := clampQuantValue(float64(current[t]) * (d / target))
			if nv > ceiling {
				nv = ceiling
			}
			raised[t] = nv
			anyPeak = true
		}

		if anyPeak {
			if !q.SetQuantField(q.DCScale(), raised) {
				break
			}
			continue
		}

		shrunk := make([]uint32, len(current))
		for i, v := range current {
			shrunk[i] = clampQuantValue(float64(v) * shrinkFactor)
		}
		newCeiling := uint32(float64(ceiling) * shrinkFactor)
		if newCeiling < 1 {
			newCeiling = 1
		}
		ceiling = newCeiling
		if !q.SetQuantField(q.DCScale()*shrinkFactor, shrunk) {
			break
		}
	}

	if best == nil {
		best = q.Clone()
	}
	return best, bestDist
}

// hasIsolatedPeak reports whether tile idx's distance exceeding target is
// a local peak rather than part of an already-uniformly-bad neighborhood:
// at least one neighbor within peakSearchRadius must be under target, so
// raising this single tile's quant can plausibly fix it without the
// surrounding tiles dragging the picture back down.
func hasIsolatedPeak(tileDist []float64, fieldXSize, fieldYSize, idx int, target float64) bool {
	bx, by := idx%fieldXSize, idx/fieldXSize
	for dy := -peakSearchRadius; dy <= peakSearchRadius; dy++ {
		yy := by + dy
		if yy < 0 || yy >= fieldYSize {
			continue
		}
		for dx := -peakSearchRadius; dx <= peakSearchRadius; dx++ {
			xx := bx + dx
			if xx < 0 || xx >= fieldXSize {
				continue
			}
			if tileDist[yy*fieldXSize+xx] <= target {
				return true
			}
		}
	}
	return false
}
