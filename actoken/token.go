package actoken

// Token is the quadruple emitted per nonzero AC coefficient (spec.md §3):
// a context index, a fused (run-of-zeros, value-category) symbol, the
// number of extra bits that accompany it, and those extra bits themselves
// (sign plus low-order magnitude bits, carried outside the entropy table).
type Token struct {
	Context   int
	Symbol    int
	NBits     int
	ExtraBits uint32
}

// maxCategory is the largest value-category a 16-bit coefficient can need
// (Category(-32768) == 16).
const maxCategory = 16

// symbolBase is the fusion base for run*base+category: it must exceed the
// largest category value (16), not just bound the usual 0..15 range, or
// fuseSymbol(run, maxCategory) collides with fuseSymbol(run+1, 0).
const symbolBase = maxCategory + 1

// Category returns the number of bits needed to represent abs(v); 0 means
// v is zero.
func Category(v int32) int {
	if v < 0 {
		v = -v
	}
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// EncodeValue returns the extra-bits payload for a nonzero coefficient,
// following the classic sign-and-magnitude bias used by JPEG-style value
// coding: for v >= 0 the payload is v itself; for v < 0 the payload is
// v + (2^category - 1), so the top bit of the payload distinguishes sign.
func EncodeValue(v int32) (nbits int, extra uint32) {
	cat := Category(v)
	if v >= 0 {
		return cat, uint32(v)
	}
	return cat, uint32(v + (1 << cat) - 1)
}

// DecodeValue reverses EncodeValue.
func DecodeValue(nbits int, extra uint32) int32 {
	if nbits == 0 {
		return 0
	}
	threshold := int32(1) << (nbits - 1)
	v := int32(extra)
	if v < threshold {
		return v - (1 << nbits) + 1
	}
	return v
}

// fuseSymbol combines a zero run-length and a value category into the
// single symbol transmitted per nonzero coefficient.
func fuseSymbol(run, category int) int {
	return run*symbolBase + category
}

func unfuseSymbol(symbol int) (run, category int) {
	return symbol / symbolBase, symbol % symbolBase
}

// TokenizeBlock emits the token stream for one 8x8 block of AC
// coefficients, in the given scan order, classified under orderCtx. Index 0
// holds DC and is scanned like any other entry of order, so callers pass
// it as zero.
func TokenizeBlock(coef []int32, order []int, orderCtx int) []Token {
	nnz := 0
	for _, idx := range order {
		if coef[idx] != 0 {
			nnz++
		}
	}

	tokens := make([]Token, 0, nnz+1)
	tokens = append(tokens, Token{
		Context: NNZContext(orderCtx, NNZBucket(nnz)),
		Symbol:  nnz,
	})

	run := 0
	for pos, idx := range order {
		v := coef[idx]
		if v == 0 {
			run++
			continue
		}
		nbits, extra := EncodeValue(v)
		tokens = append(tokens, Token{
			Context:   PositionContext(orderCtx, PositionBucket(pos, run)),
			Symbol:    fuseSymbol(run, nbits),
			NBits:     nbits,
			ExtraBits: extra,
		})
		run = 0
	}
	return tokens
}

// DetokenizeBlock reverses TokenizeBlock, reconstructing the 64
// coefficients (DC left at zero) addressed through the same scan order.
func DetokenizeBlock(tokens []Token, order []int) [64]int32 {
	var out [64]int32
	if len(tokens) == 0 {
		return out
	}

	pos := 0
	for _, tok := range tokens[1:] {
		run, nbits := unfuseSymbol(tok.Symbol)
		pos += run
		if pos >= len(order) {
			break
		}
		out[order[pos]] = DecodeValue(nbits, tok.ExtraBits)
		pos++
	}
	return out
}
