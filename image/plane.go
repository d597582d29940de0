// Package image provides the dense pixel-plane data model shared by every
// stage of the codec: a row-padded, alignment-friendly Plane, a clamped
// Rect view onto it, and a 3-plane Image.
//
// Grounded on the teacher's flat, allocation-light numeric style
// (jpeg2000/quantization.go's []int32 coefficient slices) generalized once
// via Go generics across the five pixel types named in the design notes.
package image

// Pixel is the set of component types a Plane may hold.
type Pixel interface {
	~uint8 | ~int16 | ~uint16 | ~int32 | ~float32
}

// laneOverrun is the number of extra samples of padding kept on either side
// of each row so that vector-width loads never read past an allocation.
const laneOverrun = 8

// alignBytes is the byte alignment each row's first sample is placed at.
const alignBytes = 64

// aliasStride is the 2 KiB span the allocation stagger is sized against:
// for float32 planes, nextAllocOffset's eight 64-sample steps cover it.
// No code reads this constant; the stagger itself is nextAllocOffset.
const aliasStride = 2048

// allocCounter rotates the alias offset across Image allocations. It is the
// one process-wide mutable value the data model permits: a benign race with
// no semantic effect on ordering, as called out in the data model doc.
var allocCounter uint64

func nextAllocOffset() int {
	allocCounter++
	return int(allocCounter%8) * 64
}

// Plane is a dense 2D array of pixel components with padded, aligned rows.
type Plane[T Pixel] struct {
	xsize, ysize int
	stride       int // samples per row, including lane overrun and alignment pad
	origin       int // index of sample (0,0) within data
	data         []T
}

// NewPlane allocates a Plane of the given size with padded rows.
func NewPlane[T Pixel](xsize, ysize int) *Plane[T] {
	return newPlaneWithSkew[T](xsize, ysize, 0)
}

func newPlaneWithSkew[T Pixel](xsize, ysize, skewSamples int) *Plane[T] {
	if xsize < 0 {
		xsize = 0
	}
	if ysize < 0 {
		ysize = 0
	}
	stride := xsize + 2*laneOverrun
	// round stride up so consecutive rows stay aligned once skew is added
	elemAlign := alignBytes / elemSize[T]()
	if elemAlign < 1 {
		elemAlign = 1
	}
	if rem := stride % elemAlign; rem != 0 {
		stride += elemAlign - rem
	}
	origin := laneOverrun + skewSamples
	total := origin + stride*maxInt(ysize, 1)
	return &Plane[T]{
		xsize:  xsize,
		ysize:  ysize,
		stride: stride,
		origin: origin,
		data:   make([]T, total),
	}
}

func elemSize[T Pixel]() int {
	var z T
	switch any(z).(type) {
	case uint8:
		return 1
	case int16, uint16:
		return 2
	default:
		return 4
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// XSize returns the plane's logical width.
func (p *Plane[T]) XSize() int { return p.xsize }

// YSize returns the plane's logical height.
func (p *Plane[T]) YSize() int { return p.ysize }

// Row returns the slice of exactly xsize samples for row y, with no padding
// visible to the caller.
func (p *Plane[T]) Row(y int) []T {
	start := p.origin + y*p.stride
	return p.data[start : start+p.xsize]
}

// RowWithOverrun returns row y plus laneOverrun samples of (zeroed) padding
// on either side, for callers doing vector-width loads at the row edges.
func (p *Plane[T]) RowWithOverrun(y int) []T {
	start := p.origin + y*p.stride - laneOverrun
	end := p.origin + y*p.stride + p.xsize + laneOverrun
	return p.data[start:end]
}

// At returns the sample at (x, y).
func (p *Plane[T]) At(x, y int) T {
	return p.Row(y)[x]
}

// Set stores the sample at (x, y).
func (p *Plane[T]) Set(x, y int, v T) {
	p.Row(y)[x] = v
}

// Stride returns the number of samples between the start of successive rows.
func (p *Plane[T]) Stride() int { return p.stride }

// ShrinkTo reduces the plane's logical size in place. It may only shrink,
// never grow, since the backing allocation is sized for the original
// dimensions.
func (p *Plane[T]) ShrinkTo(xsize, ysize int) {
	if xsize > p.xsize || ysize > p.ysize {
		panic("image: ShrinkTo may only shrink a plane")
	}
	p.xsize = xsize
	p.ysize = ysize
}

// Fill sets every logical sample to v.
func (p *Plane[T]) Fill(v T) {
	for y := 0; y < p.ysize; y++ {
		row := p.Row(y)
		for x := range row {
			row[x] = v
		}
	}
}

// CopyFrom copies logical samples from src into p. Both planes must have
// identical dimensions.
func (p *Plane[T]) CopyFrom(src *Plane[T]) {
	if src.xsize != p.xsize || src.ysize != p.ysize {
		panic("image: CopyFrom size mismatch")
	}
	for y := 0; y < p.ysize; y++ {
		copy(p.Row(y), src.Row(y))
	}
}
