package noise

import (
	"sort"

	"github.com/xybimage/xybc/image"
)

// blockSize is the patch size used for both SAD scoring (flat-vs-textured
// classification) and noise-level sampling (noise.cc's block_s=8).
const blockSize = 8

const sadHistogramBins = 256

// flatnessScore estimates how "flat" (textured vs. uniform) one blockSize
// patch is, following noise.cc's GetScoreSumsOfAbsoluteDifferences: slide a
// small 3x4 reference window over the patch, score each placement's
// summed absolute difference against the window centered at offset (2,2),
// then average the smaller (more typical) half of those scores (a
// rank-order robust estimate, same idea as ROAD denoising).
func flatnessScore(intensity [][]float64, x, y int) float64 {
	const smallW, smallH = 3, 4
	const offset = 2

	var sad []float64
	for by := 0; by+smallH < blockSize; by++ {
		for bx := 0; bx+smallW < blockSize; bx++ {
			var sum float64
			for cy := 0; cy < smallH; cy++ {
				for cx := 0; cx < smallW; cx++ {
					center := intensity[y+offset+cy][x+offset+cx]
					wnd := intensity[y+by+cy][x+bx+cx]
					d := center - wnd
					if d < 0 {
						d = -d
					}
					sum += d
				}
			}
			sad = append(sad, sum)
		}
	}
	sort.Float64s(sad)
	keep := len(sad) / 2
	if keep == 0 {
		return 0
	}
	var total float64
	for _, v := range sad[:keep] {
		total += v
	}
	return total / float64(keep)
}

// intensityField returns 0.5*(X+Y) per pixel, the proxy channel
// noise.cc's patch scoring and noise-level extraction both use.
func intensityField(opsin *image.Image[float32]) [][]float64 {
	xsize, ysize := opsin.XSize(), opsin.YSize()
	xPlane, yPlane := opsin.Planes[0], opsin.Planes[1]
	out := make([][]float64, ysize)
	for y := 0; y < ysize; y++ {
		row := make([]float64, xsize)
		xr, yr := xPlane.Row(y), yPlane.Row(y)
		for x := 0; x < xsize; x++ {
			row[x] = 0.5 * float64(yr[x]+xr[x])
		}
		out[y] = row
	}
	return out
}

// laplacianKernel is the 3x3 weight noise.cc's GetNoiseLevel applies to
// isolate high-frequency grain from the flat-patch intensity field.
var laplacianKernel = [3][3]float64{
	{-0.25, -1.0, -0.25},
	{-1.0, 5.0, -1.0},
	{-0.25, -1.0, -0.25},
}

func reflect(v, n int) int {
	if v < 0 {
		return -v
	}
	if v >= n {
		return 2*n - v - 2
	}
	return v
}

func laplacianAt(field [][]float64, x, y, xsize, ysize int) float64 {
	var sum float64
	for fy := -1; fy <= 1; fy++ {
		yy := reflect(y+fy, ysize)
		for fx := -1; fx <= 1; fx++ {
			xx := reflect(x+fx, xsize)
			sum += field[yy][xx] * laplacianKernel[fy+1][fx+1]
		}
	}
	return sum
}

// noiseLevelSample pairs a flat patch's mean intensity with its measured
// grain strength (noise.cc's NoiseLevel).
type noiseLevelSample struct {
	intensity  float64
	noiseLevel float64
}

// EstimateParams fits the power-law noise model to opsin, scaled by
// qualityCoef (spec.md §4.9). Returns a zero Params when the SAD threshold
// (the mode of the patch-score histogram) falls outside (0, 0.15]: a
// threshold of 0 when most patches score in the lowest bin, or one above
// 0.15 when the image looks too textured for the model to be trustworthy
// (noise.cc).
func EstimateParams(opsin *image.Image[float32], qualityCoef float64) Params {
	xsize, ysize := opsin.XSize(), opsin.YSize()
	if xsize < blockSize || ysize < blockSize {
		return Params{}
	}
	intensity := intensityField(opsin)

	var scores []float64
	var hist [sadHistogramBins]int
	var patchX, patchY []int
	for y := 0; y+blockSize <= ysize; y += blockSize {
		for x := 0; x+blockSize <= xsize; x += blockSize {
			s := flatnessScore(intensity, x, y)
			scores = append(scores, s)
			patchX = append(patchX, x)
			patchY = append(patchY, y)
			bin := int(s * float64(sadHistogramBins))
			if bin < 0 {
				bin = 0
			}
			if bin >= sadHistogramBins {
				bin = sadHistogramBins - 1
			}
			hist[bin]++
		}
	}
	if len(scores) == 0 {
		return Params{}
	}

	mode := 0
	for b := 1; b < sadHistogramBins; b++ {
		if hist[b] > hist[mode] {
			mode = b
		}
	}
	threshold := float64(mode) / float64(sadHistogramBins)
	if threshold > 0.15 || threshold <= 0 {
		return Params{}
	}

	var samples []noiseLevelSample
	for i, s := range scores {
		if s > threshold {
			continue
		}
		x, y := patchX[i], patchY[i]
		var meanIntensity float64
		for by := 0; by < blockSize; by++ {
			for bx := 0; bx < blockSize; bx++ {
				meanIntensity += intensity[y+by][x+bx]
			}
		}
		meanIntensity /= float64(blockSize * blockSize)

		var level float64
		for by := 0; by < blockSize; by++ {
			for bx := 0; bx < blockSize; bx++ {
				v := laplacianAt(intensity, x+bx, y+by, xsize, ysize)
				if v < 0 {
					v = -v
				}
				level += v
			}
		}
		level /= float64(blockSize * blockSize)

		samples = append(samples, noiseLevelSample{intensity: meanIntensity, noiseLevel: level})
	}
	if len(samples) == 0 {
		return Params{}
	}
	samples = addExtrapolationPoints(samples)

	alpha, gamma, beta := fitPowerLaw(samples)
	return Params{Alpha: alpha * qualityCoef, Gamma: gamma, Beta: beta * qualityCoef}
}

// addExtrapolationPoints pins the fit at the sampled extremes (noise.cc's
// AddPointsForExtrapolation), which keeps the power law from extrapolating
// wildly outside the observed intensity range.
func addExtrapolationPoints(samples []noiseLevelSample) []noiseLevelSample {
	minIdx, maxIdx := 0, 0
	for i, s := range samples {
		if s.noiseLevel < samples[minIdx].noiseLevel {
			minIdx = i
		}
		if s.noiseLevel > samples[maxIdx].noiseLevel {
			maxIdx = i
		}
	}
	out := append([]noiseLevelSample{}, samples...)
	out = append(out, noiseLevelSample{intensity: 0.5, noiseLevel: samples[minIdx].noiseLevel})
	out = append(out, noiseLevelSample{intensity: -0.5, noiseLevel: samples[maxIdx].noiseLevel})
	return out
}
