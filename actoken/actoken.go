// Package actoken implements AC coefficient tokenization, the coefficient
// scan order (with Lehmer-coded permutations), and the context set used to
// drive histogram clustering and entropy coding (spec.md §4.6).
//
// Grounded on jpeg2000/t1/context.go's idiom of named context-range
// constants (CTX_ZC_START/END, NUM_CONTEXTS) covering disjoint context
// blocks; the same additive-range shape is used here for the DC-side,
// nnz-bucket, and position-bucket context blocks instead of EBCOT's
// zero-coding/sign-coding/magnitude-refinement blocks.
package actoken

// Context layout (spec.md §3, §4.6):
//
//	[0, NumDCContexts)                                     DC-side contexts
//	[NumDCContexts, NumDCContexts + NumOrderContexts*32)    nnz-bucket contexts, 32 per order context
//	[..., NumContexts)                                      position-bucket contexts, 120 per order context
const (
	NumDCContexts           = 128
	NumOrderContexts        = 6
	NNZBucketsPerOrder      = 32
	PositionBucketsPerOrder = 120
	contextsPerOrder        = NNZBucketsPerOrder + PositionBucketsPerOrder
	NumContexts             = NumDCContexts + NumOrderContexts*contextsPerOrder
)

// NNZContext returns the context index for the "number of nonzeros"
// symbol of a block classified under orderCtx (0..NumOrderContexts-1).
func NNZContext(orderCtx, nnzBucket int) int {
	if nnzBucket < 0 {
		nnzBucket = 0
	}
	if nnzBucket >= NNZBucketsPerOrder {
		nnzBucket = NNZBucketsPerOrder - 1
	}
	return NumDCContexts + orderCtx*contextsPerOrder + nnzBucket
}

// PositionContext returns the context index for a coefficient's
// (run-of-zeros, value-category) symbol at scan position posBucket within
// a block classified under orderCtx.
func PositionContext(orderCtx, posBucket int) int {
	if posBucket < 0 {
		posBucket = 0
	}
	if posBucket >= PositionBucketsPerOrder {
		posBucket = PositionBucketsPerOrder - 1
	}
	return NumDCContexts + orderCtx*contextsPerOrder + NNZBucketsPerOrder + posBucket
}

// NNZBucket maps a raw nonzero count (0..63) into one of the 32 buckets
// reserved for that statistic.
func NNZBucket(nnz int) int {
	b := nnz / 2
	if b >= NNZBucketsPerOrder {
		b = NNZBucketsPerOrder - 1
	}
	return b
}

// PositionBucket maps a scan position (0..63) and a run length into one of
// the 120 position buckets reserved for that statistic: position dominates
// the bucket, and a nonzero run moves it up by one, so a coefficient after
// a zero run lands in a different bucket than one with no run before it.
// Run lengths above 1 are not told apart.
func PositionBucket(scanPos, run int) int {
	b := scanPos*120/64 + min(run, 1)
	if b >= PositionBucketsPerOrder {
		b = PositionBucketsPerOrder - 1
	}
	return b
}

// OrderContext classifies a block into one of the six order contexts: the
// first three are "flat" and channel-specific (one per channel index 0,1,2
// -- X, Y, B); the last three are "directional" and channel-agnostic,
// chosen by which axis (horizontal, vertical, diagonal) carries the most
// AC energy. Flat vs. directional is decided by how concentrated the
// block's AC energy is in the low-frequency coefficients.
func OrderContext(channel int, coef []float64) int {
	if isFlatBlock(coef) {
		if channel < 0 {
			channel = 0
		}
		if channel > 2 {
			channel = 2
		}
		return channel
	}
	return 3 + directionClass(coef)
}

func isFlatBlock(coef []float64) bool {
	var lowEnergy, highEnergy float64
	for k := 1; k < 64; k++ {
		row, col := k/8, k%8
		e := coef[k] * coef[k]
		if row+col <= 2 {
			lowEnergy += e
		} else {
			highEnergy += e
		}
	}
	return highEnergy <= lowEnergy*0.25
}

func directionClass(coef []float64) int {
	var horiz, vert, diag float64
	for k := 1; k < 64; k++ {
		row, col := k/8, k%8
		e := coef[k] * coef[k]
		switch {
		case col > row:
			horiz += e
		case row > col:
			vert += e
		default:
			diag += e
		}
	}
	switch {
	case horiz >= vert && horiz >= diag:
		return 0
	case vert >= horiz && vert >= diag:
		return 1
	default:
		return 2
	}
}

// ZigZagOrder returns the classic 8x8 zig-zag scan order used as the
// default coefficient order when no per-context statistics-derived order
// has been computed.
func ZigZagOrder() [64]int {
	var order [64]int
	x, y := 0, 0
	for i := 0; i < 64; i++ {
		order[i] = y*8 + x
		switch {
		case (x+y)%2 == 0:
			if x == 7 {
				y++
			} else if y == 0 {
				x++
			} else {
				x++
				y--
			}
		default:
			if y == 7 {
				x++
			} else if x == 0 {
				y++
			} else {
				x--
				y++
			}
		}
	}
	return order
}
