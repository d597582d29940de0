// Package ctan implements chroma-from-luma estimation and application
// (spec.md §3 "Color-transform map (ctan)" and §4.5): predicting the X and
// B opsin-domain AC coefficients as an integer multiple of the Y
// coefficient at the same position, with the multiplier transmitted as a
// per-tile signed factor plus a single global fallback factor.
//
// Grounded on jpeg2000/colorspace/ict.go's per-pixel transform plus
// slice-mapping-wrapper shape, generalized from a fixed 3x3 RGB<->YCbCr
// matrix to a single per-tile integer correlation factor, and on quant's
// split between a global scale and a per-region field (the ctan map is
// that same split applied to color correlation instead of quantization
// step size).
package ctan

// TieBand is the fixed tolerance around k*y_coeff within which a chroma
// coefficient counts as "explained" by factor k during estimation. Named
// per the redesign guidance that empirically tuned tie/threshold constants
// should be exposed, not re-derived.
const TieBand = 1.5

// TileBlocks is the number of 8x8 blocks per side of a chroma-from-luma
// tile (spec.md §3: "each tile = 8 blocks x 8 blocks").
const TileBlocks = 8

// FactorBias centers the transmitted byte range [0,255] on zero: a stored
// byte v represents the signed integer factor v - FactorBias (spec.md §3:
// "byte, interpreted as signed offset around 128").
const FactorBias = 128

// Map holds the Y->X and Y->B chroma-from-luma factors: a per-tile signed
// integer map and a single global scalar fallback for each.
type Map struct {
	tilesX, tilesY int
	ytoxMap        []int8
	ytobMap        []int8
	ytoxDC         int8
	ytobDC         int8
}

// NewMap creates a Map sized for a tile grid of tilesX x tilesY tiles, all
// entries initialized to zero (no correlation).
func NewMap(tilesX, tilesY int) *Map {
	return &Map{
		tilesX:  tilesX,
		tilesY:  tilesY,
		ytoxMap: make([]int8, tilesX*tilesY),
		ytobMap: make([]int8, tilesX*tilesY),
	}
}

// TilesX and TilesY report the map's tile-grid dimensions.
func (m *Map) TilesX() int { return m.tilesX }
func (m *Map) TilesY() int { return m.tilesY }

// YToX returns the per-tile Y->X integer factor.
func (m *Map) YToX(tx, ty int) int8 { return m.ytoxMap[ty*m.tilesX+tx] }

// YToB returns the per-tile Y->B integer factor.
func (m *Map) YToB(tx, ty int) int8 { return m.ytobMap[ty*m.tilesX+tx] }

// SetYToX stores the per-tile Y->X integer factor.
func (m *Map) SetYToX(tx, ty int, v int8) { m.ytoxMap[ty*m.tilesX+tx] = v }

// SetYToB stores the per-tile Y->B integer factor.
func (m *Map) SetYToB(tx, ty int, v int8) { m.ytobMap[ty*m.tilesX+tx] = v }

// YToXDC and YToBDC are the global scalar fallback factors.
func (m *Map) YToXDC() int8 { return m.ytoxDC }
func (m *Map) YToBDC() int8 { return m.ytobDC }

// SetYToXDC and SetYToBDC set the global scalar fallback factors.
func (m *Map) SetYToXDC(v int8) { m.ytoxDC = v }
func (m *Map) SetYToBDC(v int8) { m.ytobDC = v }

// Predict returns the chroma value predicted from a luma value under the
// given per-tile (or global) integer factor.
func Predict(factor int8, yVal float64) float64 {
	return float64(factor) * yVal
}

// Residual returns the chroma-from-luma residual to encode: the actual
// chroma value minus the value predicted from luma. Applied to AC
// coefficients only; DC is carried by the dcpred package.
func Residual(factor int8, chroma, yVal float64) float64 {
	return chroma - Predict(factor, yVal)
}

// Reconstruct reverses Residual: the decoded chroma value given its
// residual, the luma value at the same position, and the tile's factor.
func Reconstruct(factor int8, residual, yVal float64) float64 {
	return residual + Predict(factor, yVal)
}

// EstimateFactor searches k in [-128, 127] for the integer factor that
// maximizes the count of (yCoef, chromaCoef) pairs for which chromaCoef
// falls within TieBand of k*yCoef, following spec.md §4.5's
// zero-band-maximizing search. Ties break toward globalBest, the
// image-wide factor computed the same way over every coefficient.
func EstimateFactor(yCoef, chromaCoef []float64, globalBest int8) int8 {
	bestFactor := int8(0)
	bestCount := -1
	for k := -128; k <= 127; k++ {
		count := 0
		fk := float64(k)
		for i := range yCoef {
			d := chromaCoef[i] - fk*yCoef[i]
			if d < 0 {
				d = -d
			}
			if d <= TieBand {
				count++
			}
		}
		if count > bestCount || (count == bestCount && int8(k) == globalBest) {
			bestCount = count
			bestFactor = int8(k)
		}
	}
	return bestFactor
}
