package xybc

import (
	"math"

	"github.com/xybimage/xybc/image"
	"github.com/xybimage/xybc/ratectl"
)

// refComparator is this package's stand-in perceptual comparator. A real
// butteraugli-compatible metric is explicitly out of scope (spec.md §1:
// "a butteraugli-compatible perceptual metric (treated as an opaque
// comparator)"; §9: "treat the comparator as a trait with two
// operations"), so Encode needs some concrete ratectl.Comparator to
// drive its search loops. refComparator computes a simple per-pixel
// weighted XYB distance against a fixed reference image, weighting the Y
// (luma) channel above X and B the way the opsin split is itself
// weighted (spec.md §4.1's X/B channels carry chroma-like information).
//
// This is hand-rolled rather than grounded on a teacher or pack library:
// no example repo carries a perceptual-distance metric (jpeg2000's
// rate-distortion code works from bit costs, not a pixel comparator), and
// a real butteraugli implementation is precisely the dependency spec.md
// names as out of scope. A caller wanting the real metric supplies their
// own ratectl.Comparator to the lower-level ratectl package directly.
type refComparator struct {
	reference *image.Image[float32]
	hfAsym    float64
}

func newRefComparator(reference *image.Image[float32], hfAsymmetry float64) *refComparator {
	return &refComparator{reference: reference, hfAsym: hfAsymmetry}
}

const (
	weightX = 0.5
	weightY = 1.0
	weightB = 0.5
)

func (c *refComparator) Compare(candidate *image.Image[float32]) *ratectl.DistMap {
	xsize, ysize := c.reference.XSize(), c.reference.YSize()
	d := ratectl.NewDistMap(xsize, ysize)
	for y := 0; y < ysize; y++ {
		xRef, yRef, bRef := c.reference.Planes[0].Row(y), c.reference.Planes[1].Row(y), c.reference.Planes[2].Row(y)
		xCan, yCan, bCan := candidate.Planes[0].Row(y), candidate.Planes[1].Row(y), candidate.Planes[2].Row(y)
		row := d.Values[y]
		for x := 0; x < xsize; x++ {
			dx := float64(xRef[x] - xCan[x])
			dy := float64(yRef[x] - yCan[x])
			db := float64(bRef[x] - bCan[x])
			// Asymmetric penalty: a candidate darker/blurrier than the
			// reference (losing energy) is penalized hfAsym times more
			// than one that overshoots, the usual bias toward not
			// over-blurring high-frequency detail.
			if c.hfAsym > 0 && dy > 0 {
				dy *= c.hfAsym
			}
			row[x] = math.Sqrt(weightX*dx*dx + weightY*dy*dy + weightB*db*db)
		}
	}
	return d
}

// Score reduces a distance map to the 99th-percentile-ish value the
// search loops target: the mean plus the max, halved, a cheap proxy for
// a high percentile without sorting every pixel.
func (c *refComparator) Score(d *ratectl.DistMap) float64 {
	var sum, maxV float64
	var n int
	for _, row := range d.Values {
		for _, v := range row {
			sum += v
			if v > maxV {
				maxV = v
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return (mean + maxV) / 2
}
