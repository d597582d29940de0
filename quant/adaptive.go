// Package quant implements the adaptive quantization map and the
// block-resolution Quantizer (spec.md §4.3, §4.7).
//
// Grounded on jpeg2000/quantization.go's quality-to-stepsize pipeline
// (qualityScale, per-subband step derivation, encode/decode of a packed
// step representation): the same shape - a scalar quality-derived base
// scale refined by a per-region multiplier, packed into a fixed-width
// integer field - carries over here with "subband" replaced by "8x8
// block" and the OpenJPEG wavelet norms replaced by a local texture
// estimate over the Y-opsin plane.
package quant

import "github.com/xybimage/xybc/image"

// AdaptiveQuantMap estimates local texture masking from the Y-opsin plane:
// flat regions receive small multipliers (more bits kept), busy regions
// receive large multipliers (fewer bits kept). The result is a float map
// at block resolution (xsize/8 rounded up) x (ysize/8 rounded up).
func AdaptiveQuantMap(y *image.Plane[float32]) *image.Plane[float32] {
	xsize, ysize := y.XSize(), y.YSize()
	bx, by := blockCount(xsize), blockCount(ysize)
	out := image.NewPlane[float32](bx, by)

	for tby := 0; tby < by; tby++ {
		row := out.Row(tby)
		for tbx := 0; tbx < bx; tbx++ {
			row[tbx] = float32(blockTextureMask(y, tbx, tby, xsize, ysize))
		}
	}
	return out
}

func blockCount(size int) int {
	return (size + 7) / 8
}

// blockTextureMask computes a texture-masking multiplier for the 8x8 block
// at (bx, by) from the mean absolute gradient of its samples: near-zero
// gradient (flat block) maps close to the floor, high gradient (busy
// block) maps toward the ceiling.
func blockTextureMask(y *image.Plane[float32], bx, by, xsize, ysize int) float64 {
	const (
		floor   = 0.25
		ceiling = 4.0
		slope   = 6.0
	)
	x0, y0 := bx*8, by*8
	var sum, count float64
	for dy := 0; dy < 8; dy++ {
		sy := x0y(y0+dy, ysize)
		row := y.Row(sy)
		for dx := 0; dx < 8; dx++ {
			sx := x0y(x0+dx, xsize)
			v := float64(row[sx])
			var right, down float64
			if dx+1 < 8 || x0+dx+1 < xsize {
				right = float64(row[x0y(x0+dx+1, xsize)])
			} else {
				right = v
			}
			if dy+1 < 8 || y0+dy+1 < ysize {
				down = float64(y.Row(x0y(y0+dy+1, ysize))[sx])
			} else {
				down = v
			}
			grad := absf(right-v) + absf(down-v)
			sum += grad
			count++
		}
	}
	if count == 0 {
		return floor
	}
	meanGrad := sum / count
	mask := floor + slope*meanGrad
	if mask > ceiling {
		mask = ceiling
	}
	if mask < floor {
		mask = floor
	}
	return mask
}

func x0y(v, size int) int {
	if v >= size {
		return size - 1
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
