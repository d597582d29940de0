package quant

import "math"

// NumTemplates is the small fixed set of dequantization matrices a
// Quantizer can select between via its template id.
const NumTemplates = 2

// dequantMatrices holds NumTemplates row-major 8x8 dequantization matrices,
// index 0 within each block reserved for DC (the AC tokenizer never reads
// that slot; the DC channel is carried separately per spec.md's data
// model). Values grow with frequency, matching the usual DCT energy
// falloff, mirroring the same "norm per subband/coefficient" idiom as
// jpeg2000/quantization.go's dwtNorms97 table but for a DCT's 64
// coefficient positions instead of a wavelet's decomposition levels.
var dequantMatrices [NumTemplates][64]float64

func init() {
	for t := 0; t < NumTemplates; t++ {
		sharpness := 1.0 + float64(t)*0.5
		for k := 0; k < 64; k++ {
			row, col := k/8, k%8
			freq := math.Sqrt(float64(row*row + col*col))
			dequantMatrices[t][k] = 1.0 + sharpness*freq
		}
	}
}

// Quantizer holds the global DC scale, the per-block AC quant field, and
// the selected dequantization matrix template.
type Quantizer struct {
	templateID int
	dcScale    float64
	scale      float64
	fieldXSize int
	fieldYSize int
	rawField   []uint32 // raw_quant_field, one entry per 8x8 block
}

// NewQuantizer creates a Quantizer bound to a fixed dequantization
// template and block-resolution field dimensions.
func NewQuantizer(templateID int, fieldXSize, fieldYSize int) *Quantizer {
	if templateID < 0 || templateID >= NumTemplates {
		templateID = 0
	}
	return &Quantizer{
		templateID: templateID,
		dcScale:    1.0,
		scale:      1.0,
		fieldXSize: fieldXSize,
		fieldYSize: fieldYSize,
		rawField:   make([]uint32, fieldXSize*fieldYSize),
	}
}

// FieldXSize returns the block-resolution field width.
func (q *Quantizer) FieldXSize() int { return q.fieldXSize }

// FieldYSize returns the block-resolution field height.
func (q *Quantizer) FieldYSize() int { return q.fieldYSize }

// Clone returns an independent copy of q, used by a rate-control search
// loop to snapshot the best-seen field without the snapshot being
// mutated by later SetQuantField calls.
func (q *Quantizer) Clone() *Quantizer {
	clone := NewQuantizer(q.templateID, q.fieldXSize, q.fieldYSize)
	clone.SetQuantField(q.dcScale, q.rawField)
	return clone
}

// TemplateID reports the selected dequantization matrix template.
func (q *Quantizer) TemplateID() int { return q.templateID }

// DCScale returns the current global DC quantization multiplier.
func (q *Quantizer) DCScale() float64 { return q.dcScale }

// Scale returns the global factor applied when the AC field is
// dequantized.
func (q *Quantizer) Scale() float64 { return q.scale }

// RawField returns the current per-block raw quant field (read-only view;
// callers must not mutate the returned slice).
func (q *Quantizer) RawField() []uint32 { return q.rawField }

// SetQuantField stores a new DC scale and per-block field, reporting
// whether anything changed. If dc and field are bit-identical to the
// current state, the call is a no-op and returns false; this lets a
// rate-control loop detect a fixed point.
func (q *Quantizer) SetQuantField(dc float64, field []uint32) bool {
	if len(field) != len(q.rawField) {
		panic("quant: field length does not match quantizer dimensions")
	}
	changed := dc != q.dcScale
	if !changed {
		for i, v := range field {
			if v != q.rawField[i] {
				changed = true
				break
			}
		}
	}
	if !changed {
		return false
	}
	q.dcScale = dc
	copy(q.rawField, field)
	q.recomputeScale()
	return true
}

// recomputeScale derives the global AC dequantization factor from the
// current field's magnitude, following the same "scalar factor separated
// from a per-region multiplier" split as jpeg2000/quantization.go's
// qualityScale/step-per-subband split.
func (q *Quantizer) recomputeScale() {
	if len(q.rawField) == 0 {
		q.scale = 1.0
		return
	}
	var sum uint64
	for _, v := range q.rawField {
		sum += uint64(v)
	}
	mean := float64(sum) / float64(len(q.rawField))
	if mean <= 0 {
		mean = 1
	}
	q.scale = 1.0 / mean
}

// BlockQuant returns the per-block AC quantization multiplier for block
// (bx, by): the global scale times the block's raw field value.
func (q *Quantizer) BlockQuant(bx, by int) float64 {
	idx := by*q.fieldXSize + bx
	raw := q.rawField[idx]
	if raw == 0 {
		raw = 1
	}
	return q.scale * float64(raw)
}

// Dequant returns dequant_matrix[k] for the quantizer's selected template.
func (q *Quantizer) Dequant(k int) float64 {
	return dequantMatrices[q.templateID][k]
}

// QuantizeAC quantizes one 8x8 block's 64 AC-domain DCT coefficients
// (index 0 is ignored; DC is carried separately) into int16, clamped to
// the representable range. The invariant that reconstructed
// quant * dequant_matrix[k] is positive and nonzero for every k holds
// because BlockQuant never returns zero and Dequant's table entries are
// all strictly positive by construction.
func (q *Quantizer) QuantizeAC(bx, by int, coef []float64, out []int16) {
	mult := q.BlockQuant(bx, by)
	for k := 1; k < 64; k++ {
		step := mult * q.Dequant(k)
		v := math.RoundToEven(coef[k] / step)
		out[k] = clampInt16(v)
	}
	out[0] = 0
}

// DequantizeAC reverses QuantizeAC.
func (q *Quantizer) DequantizeAC(bx, by int, quantized []int16, out []float64) {
	mult := q.BlockQuant(bx, by)
	for k := 1; k < 64; k++ {
		step := mult * q.Dequant(k)
		out[k] = float64(quantized[k]) * step
	}
	out[0] = 0
}

// QuantizeDC quantizes a single DC sample using the global DC scale.
func (q *Quantizer) QuantizeDC(dc float64) int32 {
	return int32(math.RoundToEven(dc / q.dcScale))
}

// DequantizeDC reverses QuantizeDC.
func (q *Quantizer) DequantizeDC(quantized int32) float64 {
	return float64(quantized) * q.dcScale
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
