package ratectl

import (
	"math"
	"testing"

	"github.com/xybimage/xybc/image"
)

// fakeComparator scores a candidate by its mean absolute deviation from a
// fixed reference value, standing in for a real perceptual metric purely
// to drive the search loops deterministically under test.
type fakeComparator struct {
	reference float32
}

func (f *fakeComparator) Compare(candidate *image.Image[float32]) *DistMap {
	xsize, ysize := candidate.XSize(), candidate.YSize()
	d := NewDistMap(xsize, ysize)
	row := candidate.Planes[1]
	for y := 0; y < ysize; y++ {
		r := row.Row(y)
		for x := 0; x < xsize; x++ {
			diff := float64(r[x] - f.reference)
			if diff < 0 {
				diff = -diff
			}
			d.Values[y][x] = diff
		}
	}
	return d
}

func (f *fakeComparator) Score(d *DistMap) float64 {
	var maxV float64
	for _, row := range d.Values {
		for _, v := range row {
			if v > maxV {
				maxV = v
			}
		}
	}
	return maxV
}

// fakeCodec simulates a quantizer whose achieved distance shrinks as the
// mean raw field value decreases (finer quantization -> lower distance),
// so the search loops have a real gradient to follow without this test
// depending on the real transform/quant/entropy pipeline.
type fakeCodec struct {
	xsize, ysize int
}

func (f *fakeCodec) EncodeDecode(dcScale float64, field []uint32) (*image.Image[float32], int) {
	var sum uint64
	for _, v := range field {
		sum += uint64(v)
	}
	mean := float64(sum) / float64(len(field))

	out := image.NewImage[float32](f.xsize, f.ysize)
	errAmount := float32(mean / 4096.0)
	for y := 0; y < f.ysize; y++ {
		row := out.Planes[1].Row(y)
		for x := 0; x < f.xsize; x++ {
			row[x] = errAmount
		}
	}
	size := int(mean * float64(len(field)) / 8)
	if size < 1 {
		size = 1
	}
	return out, size
}

func flatAQMap(xsize, ysize int, v float32) *image.Plane[float32] {
	p := image.NewPlane[float32](xsize, ysize)
	for y := 0; y < ysize; y++ {
		row := p.Row(y)
		for x := 0; x < xsize; x++ {
			row[x] = v
		}
	}
	return p
}

func TestStandardLoopTracksBestDistance(t *testing.T) {
	aqMap := flatAQMap(32, 32, 1.0)
	codec := &fakeCodec{xsize: 32, ysize: 32}
	cmp := &fakeComparator{reference: 0}

	q, dist := StandardLoop(aqMap, codec, cmp, 0.02, 0)
	if q == nil {
		t.Fatal("StandardLoop returned a nil quantizer")
	}
	if math.IsInf(dist, 1) {
		t.Fatal("StandardLoop never measured a finite distance")
	}
	if dist < 0 {
		t.Fatalf("distance should never be negative, got %v", dist)
	}
}

func TestStandardLoopNeverFails(t *testing.T) {
	aqMap := flatAQMap(8, 8, 0.0)
	codec := &fakeCodec{xsize: 8, ysize: 8}
	cmp := &fakeComparator{reference: 0}

	q, _ := StandardLoop(aqMap, codec, cmp, 1.0, 0)
	if q == nil {
		t.Fatal("StandardLoop must always return a field, even on a degenerate input")
	}
}

func TestHighQualityLoopTerminates(t *testing.T) {
	aqMap := flatAQMap(16, 16, 1.0)
	codec := &fakeCodec{xsize: 16, ysize: 16}
	cmp := &fakeComparator{reference: 0}

	q, dist := HighQualityLoop(aqMap, codec, cmp, 0.05, 0)
	if q == nil {
		t.Fatal("HighQualityLoop returned a nil quantizer")
	}
	if math.IsInf(dist, 1) {
		t.Fatal("HighQualityLoop never measured a finite distance")
	}
}

func TestTargetSizeSearchRespectsBudget(t *testing.T) {
	aqMap := flatAQMap(16, 16, 1.0)
	codec := &fakeCodec{xsize: 16, ysize: 16}
	cmp := &fakeComparator{reference: 0}

	best, _ := TargetSizeSearch(aqMap, codec, cmp, 64, 0)
	if best == nil {
		t.Fatal("TargetSizeSearch returned nil")
	}
	if best.SizeBytes <= 0 {
		t.Fatalf("expected a positive achieved size, got %d", best.SizeBytes)
	}
}

func TestFastScalarScaleKeepsSeedThatAlreadyFits(t *testing.T) {
	aqMap := flatAQMap(16, 16, 1.0)
	codec := &fakeCodec{xsize: 16, ysize: 16}
	cmp := &fakeComparator{reference: 0}

	seedQ, _ := StandardLoop(aqMap, codec, cmp, 0.01, 0)
	_, seedSize := codec.EncodeDecode(seedQ.DCScale(), seedQ.RawField())
	seed := &BestField{Quantizer: seedQ, SizeBytes: seedSize}

	target := seedSize + 1
	scaled := FastScalarScale(seed, codec, target)
	if scaled.SizeBytes > target {
		_, resize := codec.EncodeDecode(scaled.Quantizer.DCScale(), scaled.Quantizer.RawField())
		if resize > target {
			t.Fatalf("FastScalarScale did not shrink to budget: got %d bytes, want <= %d", resize, target)
		}
	}
}

func TestDownsampleToTilesTakesPerTileMax(t *testing.T) {
	d := NewDistMap(16, 16)
	d.Values[3][3] = 0.9
	tiles := DownsampleToTiles(d, 2, 2)
	if tiles[0] <= 0 {
		t.Fatalf("expected tile 0 to capture the peak at (3,3), got %v", tiles[0])
	}
	if tiles[0] < 0.9 {
		t.Fatalf("downsampled tile value should be at least the raw peak (margin only scales up), got %v", tiles[0])
	}
}
