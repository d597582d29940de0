package image

import "strconv"

// Image is a 3-plane image (e.g. RGB, or XYB). All three planes share
// identical dimensions; successive planes are allocated with a staggered
// row-start offset (see nextAllocOffset) so they don't collide modulo 2 KiB.
type Image[T Pixel] struct {
	Planes [3]*Plane[T]
}

// NewImage allocates a 3-plane image of the given size.
func NewImage[T Pixel](xsize, ysize int) *Image[T] {
	img := &Image[T]{}
	for c := 0; c < 3; c++ {
		img.Planes[c] = newPlaneWithSkew[T](xsize, ysize, nextAllocOffset())
	}
	return img
}

// XSize returns the shared plane width.
func (img *Image[T]) XSize() int { return img.Planes[0].XSize() }

// YSize returns the shared plane height.
func (img *Image[T]) YSize() int { return img.Planes[0].YSize() }

// ShrinkTo reduces all three planes' logical size in place.
func (img *Image[T]) ShrinkTo(xsize, ysize int) {
	for _, p := range img.Planes {
		p.ShrinkTo(xsize, ysize)
	}
}

// CheckSizesMatch panics if the three planes don't share identical
// dimensions, the invariant the data model requires.
func (img *Image[T]) CheckSizesMatch() {
	x, y := img.XSize(), img.YSize()
	for c, p := range img.Planes {
		if p.XSize() != x || p.YSize() != y {
			panic("image: plane " + strconv.Itoa(c) + " size mismatch in 3-plane image")
		}
	}
}
