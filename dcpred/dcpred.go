// Package dcpred implements the DC channel predictor bank and the
// Shrink/Expand residual transforms (spec.md §4.4): the most intricate
// single algorithm in the codec.
//
// original_source/dc_predictor.h gives the interface shape (ShrinkY/
// ExpandY/ShrinkXB/ExpandXB operating on int16 "DC = int16_t" images) but
// not the predictor bank or selection-rule bodies; those are built here
// from spec.md §4.4's description, as whole-plane transforms over 16-bit
// planes that return newly allocated planes.
package dcpred

import "github.com/xybimage/xybc/image"

// NumPredictors is the size of the causal integer predictor bank.
const NumPredictors = 8

// neighborhood holds the four causal neighbors available to every
// predictor: west, north, north-west, north-east.
type neighborhood struct {
	w, n, nw, ne int32
}

// predict evaluates predictor idx over the neighborhood.
func predict(idx int, nb neighborhood) int32 {
	switch idx {
	case 0:
		return nb.w
	case 1:
		return nb.n
	case 2:
		return nb.nw
	case 3:
		return nb.ne
	case 4:
		return nb.n + nb.w - nb.nw
	case 5:
		return (nb.n + nb.w) / 2
	case 6:
		return (nb.nw + nb.ne) / 2
	case 7:
		return nb.n + nb.ne - nb.nw
	default:
		panic("dcpred: predictor index out of range")
	}
}

// neighbors2D gathers the causal neighborhood for (x, y) within a flat
// row-major plane buffer of the given width, replicating the nearest
// available causal sample at image edges and corners.
func neighbors2D(plane []int16, width, x, y int) neighborhood {
	at := func(xx, yy int) int32 { return int32(plane[yy*width+xx]) }
	var nb neighborhood
	hasW, hasN := x > 0, y > 0
	hasNW := x > 0 && y > 0
	hasNE := x+1 < width && y > 0

	switch {
	case hasW:
		nb.w = at(x-1, y)
	case hasN:
		nb.w = at(x, y-1)
	}
	switch {
	case hasN:
		nb.n = at(x, y-1)
	case hasW:
		nb.n = at(x-1, y)
	}
	switch {
	case hasNW:
		nb.nw = at(x-1, y-1)
	case hasN:
		nb.nw = at(x, y-1)
	case hasW:
		nb.nw = at(x-1, y)
	}
	switch {
	case hasNE:
		nb.ne = at(x+1, y-1)
	case hasN:
		nb.ne = at(x, y-1)
	default:
		nb.ne = nb.w
	}
	return nb
}

// selectRegionPredictor implements the Y channel's fixed per-region
// selection policy (spec.md §4.4: "the luminance channel Y is predicted
// first with a fixed per-region policy"): of the eight predictors, it
// picks the one whose output is closest to the simple (N+W)/2 average,
// a deterministic, causal rule that needs no knowledge of the true DC
// value being predicted.
func selectRegionPredictor(nb neighborhood) int {
	avg := (nb.n + nb.w) / 2
	best, bestDiff := 0, int32(1<<31 - 1)
	for i := 0; i < NumPredictors; i++ {
		d := predict(i, nb) - avg
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

// selectMeasuredPredictor implements the cross-channel selection rule used
// for X and B (spec.md §4.4: "X and B channels then use Y's measured best
// predictor"): of the eight predictors evaluated against Y's own
// neighborhood, it picks whichever comes closest to the true (already
// decoded) Y value at this position.
func selectMeasuredPredictor(nbY neighborhood, trueY int32) int {
	best, bestDiff := 0, int32(1<<31 - 1)
	for i := 0; i < NumPredictors; i++ {
		d := predict(i, nbY) - trueY
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return best
}

// smoothPredictorIndex is the alternate predictor used when the
// SmoothDCPred header flag is set: always the (N+W)/2 average, favoring
// smoother residuals over adaptive selection. Per the spec's open
// questions, this is an optional alternate branch, not a behavior any
// invariant pins down.
const smoothPredictorIndex = 5

// ShrinkY predicts the Y-channel DC plane and writes residuals, using the
// fixed per-region predictor-selection policy.
func ShrinkY(y *image.Plane[int16], smooth bool) *image.Plane[int16] {
	w, h := y.XSize(), y.YSize()
	res := image.NewPlane[int16](w, h)
	flat := flatten(y)
	for yy := 0; yy < h; yy++ {
		row := y.Row(yy)
		out := res.Row(yy)
		for xx := 0; xx < w; xx++ {
			nb := neighbors2D(flat, w, xx, yy)
			idx := smoothPredictorIndex
			if !smooth {
				idx = selectRegionPredictor(nb)
			}
			pred := predict(idx, nb)
			out[xx] = int16(int32(row[xx]) - pred)
		}
	}
	return res
}

// ExpandY reverses ShrinkY in raster order.
func ExpandY(residuals *image.Plane[int16], smooth bool) *image.Plane[int16] {
	w, h := residuals.XSize(), residuals.YSize()
	out := image.NewPlane[int16](w, h)
	flat := make([]int16, w*h)
	for yy := 0; yy < h; yy++ {
		resRow := residuals.Row(yy)
		outRow := out.Row(yy)
		for xx := 0; xx < w; xx++ {
			nb := neighbors2D(flat, w, xx, yy)
			idx := smoothPredictorIndex
			if !smooth {
				idx = selectRegionPredictor(nb)
			}
			pred := predict(idx, nb)
			v := int16(pred + int32(resRow[xx]))
			outRow[xx] = v
			flat[yy*w+xx] = v
		}
	}
	return out
}

// ShrinkXB predicts the X or B channel plane using Y's measured best
// predictor as a causal, untransmitted hint.
func ShrinkXB(y, xb *image.Plane[int16]) *image.Plane[int16] {
	w, h := xb.XSize(), xb.YSize()
	res := image.NewPlane[int16](w, h)
	flatY := flatten(y)
	flatXB := flatten(xb)
	for yy := 0; yy < h; yy++ {
		xbRow := xb.Row(yy)
		out := res.Row(yy)
		for xx := 0; xx < w; xx++ {
			nbY := neighbors2D(flatY, w, xx, yy)
			trueY := int32(y.At(xx, yy))
			idx := selectMeasuredPredictor(nbY, trueY)
			nbXB := neighbors2D(flatXB, w, xx, yy)
			pred := predict(idx, nbXB)
			out[xx] = int16(int32(xbRow[xx]) - pred)
		}
	}
	return res
}

// ExpandXB reverses ShrinkXB in raster order. y must already be fully
// expanded.
func ExpandXB(y *image.Plane[int16], residuals *image.Plane[int16]) *image.Plane[int16] {
	w, h := residuals.XSize(), residuals.YSize()
	out := image.NewPlane[int16](w, h)
	flatY := flatten(y)
	flatXB := make([]int16, w*h)
	for yy := 0; yy < h; yy++ {
		resRow := residuals.Row(yy)
		outRow := out.Row(yy)
		for xx := 0; xx < w; xx++ {
			nbY := neighbors2D(flatY, w, xx, yy)
			trueY := int32(y.At(xx, yy))
			idx := selectMeasuredPredictor(nbY, trueY)
			nbXB := neighbors2D(flatXB, w, xx, yy)
			pred := predict(idx, nbXB)
			v := int16(pred + int32(resRow[xx]))
			outRow[xx] = v
			flatXB[yy*w+xx] = v
		}
	}
	return out
}

// ShrinkDC chains ShrinkY/ShrinkXB over a 3-plane (X, Y, B) DC image,
// returning the residual image in the same plane order.
func ShrinkDC(dc *image.Image[int16], smooth bool) *image.Image[int16] {
	out := image.NewImage[int16](dc.XSize(), dc.YSize())
	yRes := ShrinkY(dc.Planes[1], smooth)
	out.Planes[1] = yRes

	yExpanded := ExpandY(yRes, smooth)
	out.Planes[0] = ShrinkXB(yExpanded, dc.Planes[0])
	out.Planes[2] = ShrinkXB(yExpanded, dc.Planes[2])
	return out
}

// ExpandDC reverses ShrinkDC.
func ExpandDC(residuals *image.Image[int16], smooth bool) *image.Image[int16] {
	out := image.NewImage[int16](residuals.XSize(), residuals.YSize())
	y := ExpandY(residuals.Planes[1], smooth)
	out.Planes[1] = y
	out.Planes[0] = ExpandXB(y, residuals.Planes[0])
	out.Planes[2] = ExpandXB(y, residuals.Planes[2])
	return out
}

func flatten(p *image.Plane[int16]) []int16 {
	w, h := p.XSize(), p.YSize()
	out := make([]int16, w*h)
	for y := 0; y < h; y++ {
		copy(out[y*w:y*w+w], p.Row(y))
	}
	return out
}
