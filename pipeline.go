package xybc

import (
	"github.com/xybimage/xybc/actoken"
	"github.com/xybimage/xybc/ctan"
	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/threadpool"
	"github.com/xybimage/xybc/transform"
)

// blockGrid is the 8x8-block resolution a plane of the given pixel
// dimensions is carved into.
func blockGrid(xsize, ysize int) (bx, by int) {
	return (xsize + 7) / 8, (ysize + 7) / 8
}

// blockCoeffs holds the forward-DCT coefficients of a whole 3-channel
// image, one flat 64-sample row-major block per (channel, block index).
// This is computed once per encode and never mutated by the
// rate-control search: only the Quantizer varies across search
// iterations (spec.md §2's data-flow: DCT happens once, upstream of the
// quantizer / chroma-from-luma / rate-control stages).
type blockCoeffs struct {
	coef   [3][][64]float64
	bx, by int
}

// forwardBlocks runs the forward DCT over every 8x8 block of every
// channel of opsinImg, independently per block -- the one stage of the
// pipeline where pool.ParallelFor's "no nested parallelism" contract
// (spec.md §9) is trivially satisfiable, since no block's DCT reads
// another block's data.
func forwardBlocks(opsinImg *image.Image[float32], pool *threadpool.Pool) *blockCoeffs {
	bx, by := blockGrid(opsinImg.XSize(), opsinImg.YSize())
	out := &blockCoeffs{bx: bx, by: by}
	for c := 0; c < 3; c++ {
		out.coef[c] = make([][64]float64, bx*by)
		plane := opsinImg.Planes[c]
		coef := out.coef[c]
		pool.ParallelFor(bx*by, func(idx int) {
			var block [64]float64
			blockX, blockY := idx%bx, idx/bx
			transform.ExtractBlock(plane, blockX, blockY, block[:])
			transform.DCT8x8(block[:], coef[idx][:])
		})
	}
	return out
}

// inverseBlocks runs the inverse DCT over a reconstructed coefficient
// set, producing the xsize x ysize opsin-domain image it represents.
func inverseBlocks(coef [3][][64]float64, bx, by, xsize, ysize int, pool *threadpool.Pool) *image.Image[float32] {
	out := image.NewImage[float32](xsize, ysize)
	for c := 0; c < 3; c++ {
		plane := out.Planes[c]
		blocks := coef[c]
		pool.ParallelFor(len(blocks), func(idx int) {
			var block [64]float64
			blockX, blockY := idx%bx, idx/bx
			transform.IDCT8x8(blocks[idx][:], block[:])
			transform.StoreBlock(plane, blockX, blockY, block[:])
		})
	}
	return out
}

// gatherAC flattens the AC (k=1..63) coefficients of every Y, X, and B
// block within the block-rectangle [x0,x1) x [y0,y1) into three parallel
// slices, the input ctan.EstimateFactor needs.
func gatherAC(coeffs *blockCoeffs, x0, y0, x1, y1 int) (yAC, xAC, bAC []float64) {
	n := (x1 - x0) * (y1 - y0) * 63
	yAC, xAC, bAC = make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)
	for by := y0; by < y1; by++ {
		for bx := x0; bx < x1; bx++ {
			idx := by*coeffs.bx + bx
			y, x, b := coeffs.coef[1][idx], coeffs.coef[0][idx], coeffs.coef[2][idx]
			for k := 1; k < 64; k++ {
				yAC = append(yAC, y[k])
				xAC = append(xAC, x[k])
				bAC = append(bAC, b[k])
			}
		}
	}
	return
}

// estimateCtan computes the chroma-from-luma map (spec.md §4.5): a
// global fallback factor for each of Y->X and Y->B, refined per tile
// (ctan.TileBlocks x ctan.TileBlocks blocks).
func estimateCtan(coeffs *blockCoeffs) *ctan.Map {
	tilesX := (coeffs.bx + ctan.TileBlocks - 1) / ctan.TileBlocks
	tilesY := (coeffs.by + ctan.TileBlocks - 1) / ctan.TileBlocks
	m := ctan.NewMap(tilesX, tilesY)

	allY, allX, allB := gatherAC(coeffs, 0, 0, coeffs.bx, coeffs.by)
	globalX := ctan.EstimateFactor(allY, allX, 0)
	globalB := ctan.EstimateFactor(allY, allB, 0)
	m.SetYToXDC(globalX)
	m.SetYToBDC(globalB)

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*ctan.TileBlocks, ty*ctan.TileBlocks
			x1, y1 := min(x0+ctan.TileBlocks, coeffs.bx), min(y0+ctan.TileBlocks, coeffs.by)
			yAC, xAC, bAC := gatherAC(coeffs, x0, y0, x1, y1)
			m.SetYToX(tx, ty, ctan.EstimateFactor(yAC, xAC, globalX))
			m.SetYToB(tx, ty, ctan.EstimateFactor(yAC, bAC, globalB))
		}
	}
	return m
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ctanFactor returns the per-tile (or global-fallback) Y->target factor
// for block (bx, by), the same lookup used identically on encode and
// decode.
func ctanFactor(m *ctan.Map, channel, bx, by int) int8 {
	tx, ty := bx/ctan.TileBlocks, by/ctan.TileBlocks
	switch channel {
	case 0:
		if tx < m.TilesX() && ty < m.TilesY() {
			return m.YToX(tx, ty)
		}
		return m.YToXDC()
	case 2:
		if tx < m.TilesX() && ty < m.TilesY() {
			return m.YToB(tx, ty)
		}
		return m.YToBDC()
	default:
		return 0
	}
}

// computeOrderContexts classifies every (channel, block) pair into one
// of actoken.NumOrderContexts scan-order/context classes, from the true
// forward-DCT coefficients. Because the classification is a function of
// values the decoder does not have until after decoding the block, the
// encoder transmits the result directly (see
// writeOrderContextAndPermutations in bitstream_body.go) rather than asking the decoder to re-derive it.
func computeOrderContexts(coeffs *blockCoeffs) (orderCtx [3][]int) {
	for c := 0; c < 3; c++ {
		orderCtx[c] = make([]int, len(coeffs.coef[c]))
		for idx, blk := range coeffs.coef[c] {
			orderCtx[c][idx] = actoken.OrderContext(c, blk[:])
		}
	}
	return
}
