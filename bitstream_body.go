package xybc

import (
	"math"

	"github.com/xybimage/xybc/actoken"
	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/ctan"
	"github.com/xybimage/xybc/dcpred"
	"github.com/xybimage/xybc/entropy"
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/quant"
)

// maxAlphabet is the single symbol-alphabet size every context's
// histogram is allocated at, chosen as the largest alphabet any context
// kind needs (an AC position-context symbol fuses a zero-run up to 63
// with a value category up to 16 on a base-17 split to keep every
// category distinct: 63*17+16 = 1087). Using one size for every context,
// rather than a size per context kind, lets a single
// entropy.ClusterHistograms call merge across DC, nnz, and position
// contexts together (mergeHistograms requires equal-length inputs) at
// the cost of over-allocating the small DC and nnz histograms.
const maxAlphabet = 1088

// histogramMergeThreshold is the entropy.ClusterHistograms bit-cost
// threshold below which two contexts' histograms are merged into one
// cluster. Named per spec.md §9's guidance to expose empirically tuned
// thresholds as constants rather than re-derive them.
const histogramMergeThreshold = 512.0

// bodyPlan holds the per-image state that is fixed across every
// rate-control search iteration: the forward DCT coefficients, the
// chroma-from-luma map, the per-block order-context classification, and
// the fixed (trivial, zigzag-derived) per-order-context scan order.
// Only the Quantizer varies call to call.
type bodyPlan struct {
	coeffs   *blockCoeffs
	ctanMap  *ctan.Map
	orderCtx [3][]int
	orders   [actoken.NumOrderContexts][64]int
	smoothDC bool
}

func newBodyPlan(coeffs *blockCoeffs, ctanMap *ctan.Map, smoothDC bool) *bodyPlan {
	p := &bodyPlan{coeffs: coeffs, ctanMap: ctanMap, smoothDC: smoothDC}
	p.orderCtx = computeOrderContexts(coeffs)
	zigzag := actoken.ZigZagOrder()
	for oc := range p.orders {
		p.orders[oc] = zigzag
	}
	return p
}

// symToken is one entropy-coded symbol plus its raw (non-entropy-coded)
// extra bits, spanning both the DC residual stream and the AC token
// stream: spec.md §3 describes both as sharing the same context/symbol
// machinery ("Contexts partition the stream into up to 128 + 6*(32+120)
// streams").
type symToken struct {
	ctx, symbol, nbits int
	extra              uint32
}

// quantizeAndPredict quantizes every block's AC coefficients under q,
// applying the chroma-from-luma residual to the X and B channels against
// Y's own dequantized (lossy) AC — never Y's raw coefficients, so decode
// can reproduce the identical residual from what it actually has
// available. It also quantizes every block's DC sample. Channel order
// is Y, X, B: X and B's residuals need Y's dequantized AC to already
// exist.
func quantizeAndPredict(plan *bodyPlan, q *quant.Quantizer) (quantAC [3][][]int32, dc *image.Image[int16]) {
	bx, by := plan.coeffs.bx, plan.coeffs.by
	nBlocks := bx * by
	var dequantAC [3][][]float64
	for c := 0; c < 3; c++ {
		quantAC[c] = make([][]int32, nBlocks)
		dequantAC[c] = make([][]float64, nBlocks)
	}
	dc = image.NewImage[int16](bx, by)

	for _, c := range [3]int{1, 0, 2} {
		for idx := 0; idx < nBlocks; idx++ {
			blockX, blockY := idx%bx, idx/bx
			raw := plan.coeffs.coef[c][idx]

			var acSrc [64]float64
			if c == 1 {
				acSrc = raw
			} else {
				factor := ctanFactor(plan.ctanMap, c, blockX, blockY)
				yDeq := dequantAC[1][idx]
				for k := 1; k < 64; k++ {
					acSrc[k] = ctan.Residual(factor, raw[k], yDeq[k])
				}
			}

			quant16 := make([]int16, 64)
			q.QuantizeAC(blockX, blockY, acSrc[:], quant16)
			q32 := make([]int32, 64)
			for k := range q32 {
				q32[k] = int32(quant16[k])
			}
			quantAC[c][idx] = q32

			deq := make([]float64, 64)
			q.DequantizeAC(blockX, blockY, quant16, deq)
			dequantAC[c][idx] = deq

			dc.Planes[c].Set(blockX, blockY, int16(q.QuantizeDC(raw[0])))
		}
	}
	return quantAC, dc
}

// reconstructBlocks reverses quantizeAndPredict given already-decoded
// quantized AC coefficients, a decoded DC plane (post-ExpandDC), and the
// quantizer used: dequantizes DC and AC and reapplies the chroma
// prediction to recover full per-block coefficient arrays.
func reconstructBlocks(plan *bodyPlan, q *quant.Quantizer, quantAC [3][][]int32, dc *image.Image[int16]) [3][][64]float64 {
	bx, by := plan.coeffs.bx, plan.coeffs.by
	nBlocks := bx * by
	var out [3][][64]float64
	var dequantAC [3][][]float64
	for c := 0; c < 3; c++ {
		out[c] = make([][64]float64, nBlocks)
		dequantAC[c] = make([][]float64, nBlocks)
	}

	for _, c := range [3]int{1, 0, 2} {
		for idx := 0; idx < nBlocks; idx++ {
			blockX, blockY := idx%bx, idx/bx
			quant16 := make([]int16, 64)
			for k, v := range quantAC[c][idx] {
				quant16[k] = int16(v)
			}
			deq := make([]float64, 64)
			q.DequantizeAC(blockX, blockY, quant16, deq)
			dequantAC[c][idx] = deq

			var full [64]float64
			if c == 1 {
				copy(full[:], deq)
			} else {
				factor := ctanFactor(plan.ctanMap, c, blockX, blockY)
				yDeq := dequantAC[1][idx]
				for k := 1; k < 64; k++ {
					full[k] = ctan.Reconstruct(factor, deq[k], yDeq[k])
				}
			}
			full[0] = q.DequantizeDC(int32(dc.Planes[c].At(blockX, blockY)))
			out[c][idx] = full
		}
	}
	return out
}

func writeQuantizerBlock(w *bitio.Writer, q *quant.Quantizer) {
	w.WriteBits(uint64(q.FieldXSize()), 32)
	w.WriteBits(uint64(q.FieldYSize()), 32)
	w.WriteBits(math.Float64bits(q.DCScale()), 64)
	for _, v := range q.RawField() {
		w.WriteBits(uint64(v), 16)
	}
}

func readQuantizerBlock(r *bitio.Reader, templateID int) (*quant.Quantizer, error) {
	fx, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	fy, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	bits, err := r.ReadBits(64)
	if err != nil {
		return nil, err
	}
	dcScale := math.Float64frombits(bits)
	n := int(fx) * int(fy)
	field := make([]uint32, n)
	for i := range field {
		v, err := r.ReadBits(16)
		if err != nil {
			return nil, err
		}
		field[i] = uint32(v)
	}
	q := quant.NewQuantizer(templateID, int(fx), int(fy))
	q.SetQuantField(dcScale, field)
	return q, nil
}

func writeOrderContextAndPermutations(w *bitio.Writer, plan *bodyPlan) {
	for oc := 0; oc < actoken.NumOrderContexts; oc++ {
		lehmer := actoken.PermutationToLehmer(plan.orders[oc][:])
		for _, v := range lehmer {
			w.WriteBits(uint64(v), 6)
		}
	}
	nBlocks := plan.coeffs.bx * plan.coeffs.by
	for _, c := range [3]int{1, 0, 2} {
		for idx := 0; idx < nBlocks; idx++ {
			w.WriteBits(uint64(plan.orderCtx[c][idx]), 3)
		}
	}
}

func readOrderContextAndPermutations(r *bitio.Reader, bx, by int) (orders [actoken.NumOrderContexts][64]int, orderCtx [3][]int, err error) {
	for oc := 0; oc < actoken.NumOrderContexts; oc++ {
		lehmer := make([]int, 64)
		for i := range lehmer {
			v, rerr := r.ReadBits(6)
			if rerr != nil {
				return orders, orderCtx, rerr
			}
			lehmer[i] = int(v)
		}
		perm := actoken.LehmerToPermutation(lehmer)
		copy(orders[oc][:], perm)
	}
	nBlocks := bx * by
	for _, c := range [3]int{1, 0, 2} {
		orderCtx[c] = make([]int, nBlocks)
		for idx := 0; idx < nBlocks; idx++ {
			v, rerr := r.ReadBits(3)
			if rerr != nil {
				return orders, orderCtx, rerr
			}
			orderCtx[c][idx] = int(v)
		}
	}
	return orders, orderCtx, nil
}

// buildTokenSequence walks the DC residual planes (raster order, one
// context per channel) followed by every block's AC tokens (raster
// block order, channel order Y/X/B, matching quantizeAndPredict's
// causal dependency) in the single fixed traversal both encode and
// decode replicate independently.
func buildTokenSequence(plan *bodyPlan, dcResiduals *image.Image[int16], quantAC [3][][]int32) []symToken {
	var seq []symToken

	for c := 0; c < 3; c++ {
		plane := dcResiduals.Planes[c]
		for y := 0; y < plane.YSize(); y++ {
			row := plane.Row(y)
			for x := 0; x < plane.XSize(); x++ {
				v := int32(row[x])
				nbits, extra := actoken.EncodeValue(v)
				seq = append(seq, symToken{ctx: c, symbol: nbits, nbits: nbits, extra: extra})
			}
		}
	}

	prevNNZ := [3]int{0, 0, 0}
	nBlocks := plan.coeffs.bx * plan.coeffs.by
	for idx := 0; idx < nBlocks; idx++ {
		for _, c := range [3]int{1, 0, 2} {
			orderCtx := plan.orderCtx[c][idx]
			toks := actoken.TokenizeBlock(quantAC[c][idx], plan.orders[orderCtx][:], orderCtx)
			nnz := toks[0].Symbol
			nnzCtx := actoken.NNZContext(orderCtx, actoken.NNZBucket(prevNNZ[c]))
			seq = append(seq, symToken{ctx: nnzCtx, symbol: nnz})
			prevNNZ[c] = nnz

			// toks[1:]'s own Context was computed from each token's true
			// scan position and the zero-run immediately preceding it, but
			// that run is exactly the quantity a decoder only learns by
			// decoding the token's fused symbol -- the same kind of
			// self-reference NNZContext has above. Re-derive the context
			// from a causal running (pos, run) pair that only reflects
			// runs already decoded, the same value decodeTokenSequence
			// tracks, so encode and decode pick the identical histogram
			// for every symbol before either side knows its value.
			scanPos, priorRun := 0, 0
			for _, tok := range toks[1:] {
				run, _ := unfuseACSymbol(tok.Symbol)
				ctx := actoken.PositionContext(orderCtx, actoken.PositionBucket(scanPos, priorRun))
				seq = append(seq, symToken{ctx: ctx, symbol: tok.Symbol, nbits: tok.NBits, extra: tok.ExtraBits})
				scanPos += run + 1
				priorRun = run
			}
		}
	}
	return seq
}

// unfuseACSymbol mirrors actoken's internal fuseSymbol/unfuseSymbol split
// (run*symbolBase + category, symbolBase == 17, one past the largest
// category so fuseSymbol(run, 16) never collides with fuseSymbol(run+1,
// 0)), needed here because the run component drives the causal
// position-context bookkeeping below and actoken does not export it.
func unfuseACSymbol(symbol int) (run, category int) {
	const symbolBase = 17
	return symbol / symbolBase, symbol % symbolBase
}

// writeSymbols clusters seq's per-context histograms and ANS-encodes
// every symbol in reverse order (entropy.Encoder's requirement), writing
// the histogram/context-map block (layout item 6) followed by the coded
// bytes; extra bits go to a separate byte-aligned raw stream appended
// after (spec.md §3: "extra_bits carries the residual bits that are not
// entropy-coded").
func writeSymbols(w *bitio.Writer, seq []symToken) {
	ctxIndex := map[int]int{}
	var usedContexts []int
	var histograms []*entropy.Histogram
	for _, t := range seq {
		i, ok := ctxIndex[t.ctx]
		if !ok {
			i = len(histograms)
			ctxIndex[t.ctx] = i
			usedContexts = append(usedContexts, t.ctx)
			histograms = append(histograms, entropy.NewHistogram(maxAlphabet))
		}
		histograms[i].Add(t.symbol)
	}
	for _, h := range histograms {
		for i, c := range h.Counts {
			if c > math.MaxUint16 {
				h.Counts[i] = math.MaxUint16
			}
		}
	}

	clusterOf, clusters := entropy.ClusterHistograms(histograms, histogramMergeThreshold)
	// ClusterHistograms sums per-context counts that were already clamped
	// to uint16, so a merged cluster's counts can themselves overflow
	// uint16. Clamp again here, before both the table build below and the
	// write below, so the two sides normalize from identical counts --
	// building the table from the wider pre-write sum would desync the
	// decoder's rebuilt table from the 16-bit values actually on the wire.
	for _, h := range clusters {
		for i, c := range h.Counts {
			if c > math.MaxUint16 {
				h.Counts[i] = math.MaxUint16
			}
		}
	}
	tables := make([]*entropy.Table, len(clusters))
	for i, h := range clusters {
		tables[i] = entropy.NewTable(h)
	}

	w.WriteBits(uint64(len(usedContexts)), 16)
	for i, ctx := range usedContexts {
		w.WriteBits(uint64(ctx), 16)
		w.WriteBits(uint64(clusterOf[i]), 16)
	}
	w.WriteBits(uint64(len(clusters)), 16)
	for _, h := range clusters {
		for _, c := range h.Counts {
			w.WriteBits(uint64(c), 16)
		}
	}

	enc := entropy.NewEncoder()
	for i := len(seq) - 1; i >= 0; i-- {
		t := seq[i]
		table := tables[clusterOf[ctxIndex[t.ctx]]]
		enc.Put(table, t.symbol)
	}
	coded := enc.Finish()

	w.WriteBits(uint64(len(coded)), 32)
	for _, b := range coded {
		w.WriteBits(uint64(b), 8)
	}

	extra := bitio.NewWriter()
	for _, t := range seq {
		if t.nbits > 0 {
			extra.WriteBits(uint64(t.extra), uint(t.nbits))
		}
	}
	extra.PadToEightBytes()
	extraBytes := extra.Bytes()
	w.WriteBits(uint64(len(extraBytes)), 32)
	for _, b := range extraBytes {
		w.WriteBits(uint64(b), 8)
	}
}

// contextTable resolves the per-context lookup into the decode-time
// cluster tables, reporting a DecodeConsistency-worthy failure when a
// context is referenced that the histogram block never declared.
type contextTable struct {
	ctxToCluster map[int]int
	tables       []*entropy.Table
}

func (c *contextTable) tableFor(ctx int) (*entropy.Table, bool) {
	cl, ok := c.ctxToCluster[ctx]
	if !ok {
		return nil, false
	}
	return c.tables[cl], true
}

func readSymbolTables(r *bitio.Reader) (*contextTable, error) {
	nUsed, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	ctxToCluster := make(map[int]int, nUsed)
	for i := uint64(0); i < nUsed; i++ {
		ctx, err := r.ReadBits(16)
		if err != nil {
			return nil, err
		}
		cl, err := r.ReadBits(16)
		if err != nil {
			return nil, err
		}
		ctxToCluster[int(ctx)] = int(cl)
	}
	nClusters, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	tables := make([]*entropy.Table, nClusters)
	for i := uint64(0); i < nClusters; i++ {
		h := entropy.NewHistogram(maxAlphabet)
		for k := 0; k < maxAlphabet; k++ {
			v, err := r.ReadBits(16)
			if err != nil {
				return nil, err
			}
			h.Counts[k] = uint32(v)
		}
		tables[i] = entropy.NewTable(h)
	}
	return &contextTable{ctxToCluster: ctxToCluster, tables: tables}, nil
}

func readCodedBytes(r *bitio.Reader) (coded, extra []byte, err error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, nil, err
	}
	coded = make([]byte, n)
	for i := range coded {
		v, err := r.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		coded[i] = v
	}
	m, err := r.ReadBits(32)
	if err != nil {
		return nil, nil, err
	}
	extra = make([]byte, m)
	for i := range extra {
		v, err := r.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		extra[i] = v
	}
	return coded, extra, nil
}

// decodeTokenSequence is the decode-side counterpart of
// buildTokenSequence: it drives the ANS decoder and the raw extra-bits
// reader through the identical fixed traversal, reconstructing the DC
// residual planes and every block's quantized AC coefficients.
func decodeTokenSequence(ct *contextTable, coded, extraBytes []byte, plan *bodyPlan, bx, by int) (dcResiduals *image.Image[int16], quantAC [3][][]int32, err error) {
	dec, err := entropy.NewDecoder(coded)
	if err != nil {
		return nil, [3][][]int32{}, newErr(Truncated, "truncated ANS stream")
	}
	extra := bitio.NewReader(extraBytes)

	getSymbol := func(ctx int) (int, error) {
		table, ok := ct.tableFor(ctx)
		if !ok {
			return 0, newErr(DecodeConsistency, "unknown context %d", ctx)
		}
		sym, derr := dec.Get(table)
		if derr != nil {
			return 0, newErr(Truncated, "truncated entropy stream")
		}
		return sym, nil
	}
	readExtra := func(nbits int) (uint32, error) {
		if nbits == 0 {
			return 0, nil
		}
		v, rerr := extra.ReadBits(uint(nbits))
		if rerr != nil {
			return 0, newErr(Truncated, "truncated extra-bits stream")
		}
		return uint32(v), nil
	}

	dcResiduals = image.NewImage[int16](bx, by)
	for c := 0; c < 3; c++ {
		plane := dcResiduals.Planes[c]
		for y := 0; y < plane.YSize(); y++ {
			row := plane.Row(y)
			for x := 0; x < plane.XSize(); x++ {
				nbits, serr := getSymbol(c)
				if serr != nil {
					return nil, [3][][]int32{}, serr
				}
				extraBits, eerr := readExtra(nbits)
				if eerr != nil {
					return nil, [3][][]int32{}, eerr
				}
				row[x] = int16(actoken.DecodeValue(nbits, extraBits))
			}
		}
	}

	nBlocks := bx * by
	for c := 0; c < 3; c++ {
		quantAC[c] = make([][]int32, nBlocks)
	}
	prevNNZ := [3]int{0, 0, 0}
	for idx := 0; idx < nBlocks; idx++ {
		for _, c := range [3]int{1, 0, 2} {
			orderCtx := plan.orderCtx[c][idx]
			nnzCtx := actoken.NNZContext(orderCtx, actoken.NNZBucket(prevNNZ[c]))
			nnz, serr := getSymbol(nnzCtx)
			if serr != nil {
				return nil, [3][][]int32{}, serr
			}
			if nnz < 0 || nnz > 63 {
				return nil, [3][][]int32{}, newErr(DecodeConsistency, "nnz %d out of range", nnz)
			}
			prevNNZ[c] = nnz

			tokens := make([]actoken.Token, 0, nnz+1)
			tokens = append(tokens, actoken.Token{Symbol: nnz})
			scanPos, priorRun := 0, 0
			for i := 0; i < nnz; i++ {
				// Same causal proxy buildTokenSequence used: the context
				// reflects only runs already resolved, never the run
				// carried by the symbol about to be decoded.
				posCtx := actoken.PositionContext(orderCtx, actoken.PositionBucket(scanPos, priorRun))
				sym, serr := getSymbol(posCtx)
				if serr != nil {
					return nil, [3][][]int32{}, serr
				}
				run, nbits := unfuseACSymbol(sym)
				extraBits, eerr := readExtra(nbits)
				if eerr != nil {
					return nil, [3][][]int32{}, eerr
				}
				if scanPos+run >= 64 {
					return nil, [3][][]int32{}, newErr(DecodeConsistency, "scan position %d out of range", scanPos+run)
				}
				tokens = append(tokens, actoken.Token{Symbol: sym, NBits: nbits, ExtraBits: extraBits})
				scanPos += run + 1
				priorRun = run
			}
			coefOut := actoken.DetokenizeBlock(tokens, plan.orders[orderCtx][:])
			q32 := make([]int32, 64)
			copy(q32, coefOut[:])
			quantAC[c][idx] = q32
		}
	}
	return dcResiduals, quantAC, nil
}

// encodeBody writes bitstream layout items 5-8 (spec.md §6: quantizer
// block, coefficient-order permutations, histogram block, and the DC
// residual / AC token stream) for plan's fixed coefficients under q. It
// is called once per rate-control search iteration (via searchCodec)
// and once more, final, by Encode with the winning quantizer.
func encodeBody(w *bitio.Writer, plan *bodyPlan, q *quant.Quantizer) {
	quantAC, dc := quantizeAndPredict(plan, q)
	dcResiduals := dcpred.ShrinkDC(dc, plan.smoothDC)

	writeQuantizerBlock(w, q)
	writeOrderContextAndPermutations(w, plan)
	seq := buildTokenSequence(plan, dcResiduals, quantAC)
	writeSymbols(w, seq)
}

// decodeBody reverses encodeBody, reconstructing the same three-channel
// coefficient set inverseBlocks expects.
func decodeBody(r *bitio.Reader, plan *bodyPlan, templateID int) ([3][][64]float64, error) {
	q, err := readQuantizerBlock(r, templateID)
	if err != nil {
		return [3][][64]float64{}, newErr(Truncated, "truncated quantizer block")
	}

	bx, by := plan.coeffs.bx, plan.coeffs.by
	orders, orderCtx, err := readOrderContextAndPermutations(r, bx, by)
	if err != nil {
		return [3][][64]float64{}, newErr(Truncated, "truncated order-context block")
	}
	plan.orders = orders
	plan.orderCtx = orderCtx

	ct, err := readSymbolTables(r)
	if err != nil {
		return [3][][64]float64{}, newErr(Truncated, "truncated histogram block")
	}
	coded, extraBytes, err := readCodedBytes(r)
	if err != nil {
		return [3][][64]float64{}, newErr(Truncated, "truncated coded payload")
	}

	dcResiduals, quantAC, derr := decodeTokenSequence(ct, coded, extraBytes, plan, bx, by)
	if derr != nil {
		return [3][][64]float64{}, derr.(*CodecError)
	}

	dc := dcpred.ExpandDC(dcResiduals, plan.smoothDC)
	return reconstructBlocks(plan, q, quantAC, dc), nil
}
