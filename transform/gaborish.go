package transform

import "github.com/xybimage/xybc/image"

// gaborishWeight is the off-center tap of the normalized 3-tap kernel
// [w, 1-2w, w] applied separably (horizontal pass then vertical pass).
const gaborishWeight = 0.092

// gaborishInverseWeight is the off-center tap of the approximate inverse
// kernel. It is not an exact inverse (the true inverse of a 3-tap blur is an
// infinite-support IIR filter); a single 3-tap kernel with the opposite sign
// sharpens back most of the forward filter's softening.
const gaborishInverseWeight = -0.092

// GaborishForward applies the separable 3x3 post-filter in place, used on
// the decode side after IDCT when the GaborishTransform flag is set.
func GaborishForward(plane *image.Plane[float32]) {
	applySeparable3Tap(plane, gaborishWeight)
}

// GaborishInverse applies the approximate inverse of GaborishForward in
// place, used on the encode side before quantization when the
// GaborishTransform flag is set.
func GaborishInverse(plane *image.Plane[float32]) {
	applySeparable3Tap(plane, gaborishInverseWeight)
}

func applySeparable3Tap(plane *image.Plane[float32], w float32) {
	xsize, ysize := plane.XSize(), plane.YSize()
	center := 1 - 2*w

	horiz := make([]float32, xsize*ysize)
	for y := 0; y < ysize; y++ {
		row := plane.Row(y)
		out := horiz[y*xsize : y*xsize+xsize]
		for x := 0; x < xsize; x++ {
			left := clampIndex(x-1, xsize)
			right := clampIndex(x+1, xsize)
			out[x] = w*row[left] + center*row[x] + w*row[right]
		}
	}

	for x := 0; x < xsize; x++ {
		for y := 0; y < ysize; y++ {
			up := clampIndex(y-1, ysize)
			down := clampIndex(y+1, ysize)
			v := w*horiz[up*xsize+x] + center*horiz[y*xsize+x] + w*horiz[down*xsize+x]
			plane.Set(x, y, v)
		}
	}
}

func clampIndex(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}
