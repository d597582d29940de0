// Package ratectl implements the quantization-field search loops that
// drive the codec toward a target perceptual distance or byte budget
// (spec.md §4.8).
//
// The perceptual comparator is explicitly out of scope (spec.md's
// Non-goals: "a butteraugli-compatible perceptual metric (treated as an
// opaque comparator)"; §9 design notes: "treat the comparator as a trait
// with two operations, compare(candidate) -> distmap and score(distmap)
// -> scalar. The rate-control loop must not depend on any internal state
// of the comparator."). This package therefore depends only on the
// Comparator interface below, grounded on jpeg2000/rate_distortion.go's
// own pattern of taking rate/distortion numbers as plain data
// (CodeBlockContribution) rather than reaching into a specific codec's
// internals.
package ratectl

import "github.com/xybimage/xybc/image"

// DistMap is a per-pixel perceptual distance map, the output of a
// Comparator's Compare step.
type DistMap struct {
	XSize, YSize int
	Values       [][]float64
}

// NewDistMap allocates a zeroed distance map.
func NewDistMap(xsize, ysize int) *DistMap {
	v := make([][]float64, ysize)
	for y := range v {
		v[y] = make([]float64, xsize)
	}
	return &DistMap{XSize: xsize, YSize: ysize, Values: v}
}

// Comparator is the external perceptual-distance oracle the search loops
// are built against. Production callers wire in a real butteraugli-style
// metric; this package never inspects one beyond these two calls.
type Comparator interface {
	// Compare scores candidate against the comparator's fixed reference
	// image, returning a per-pixel distance map.
	Compare(candidate *image.Image[float32]) *DistMap
	// Score reduces a distance map to the single scalar the search loops
	// target (e.g. a high percentile or max of the map).
	Score(d *DistMap) float64
}

// Codec is the encode-decode round trip the search loops drive: apply a
// candidate quant field, encode, decode, and report the resulting stream
// size. Kept as an interface (rather than this package depending on the
// root codec package directly) for the same reason as Comparator: it
// avoids a cyclic import, since the root package is what wires ratectl
// together with the rest of the codec.
type Codec interface {
	EncodeDecode(dcScale float64, field []uint32) (decoded *image.Image[float32], sizeBytes int)
}
