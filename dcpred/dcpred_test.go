package dcpred

import (
	"math/rand"
	"testing"

	"github.com/xybimage/xybc/image"
)

func randomDCImage(rng *rand.Rand, w, h int) *image.Image[int16] {
	img := image.NewImage[int16](w, h)
	for c := 0; c < 3; c++ {
		for y := 0; y < h; y++ {
			row := img.Planes[c].Row(y)
			for x := 0; x < w; x++ {
				row[x] = int16(rng.Intn(2001) - 1000)
			}
		}
	}
	return img
}

func assertImagesEqual(t *testing.T, got, want *image.Image[int16]) {
	t.Helper()
	for c := 0; c < 3; c++ {
		for y := 0; y < want.YSize(); y++ {
			gr, wr := got.Planes[c].Row(y), want.Planes[c].Row(y)
			for x := 0; x < want.XSize(); x++ {
				if gr[x] != wr[x] {
					t.Fatalf("plane %d pixel (%d,%d): got %d want %d", c, x, y, gr[x], wr[x])
				}
			}
		}
	}
}

func TestShrinkExpandDCRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, sz := range [][2]int{{1, 1}, {4, 1}, {1, 4}, {5, 7}, {16, 16}} {
		dc := randomDCImage(rng, sz[0], sz[1])
		residuals := ShrinkDC(dc, false)
		got := ExpandDC(residuals, false)
		assertImagesEqual(t, got, dc)
	}
}

func TestShrinkExpandDCRoundTripSmooth(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	dc := randomDCImage(rng, 9, 6)
	residuals := ShrinkDC(dc, true)
	got := ExpandDC(residuals, true)
	assertImagesEqual(t, got, dc)
}

func TestShrinkYExpandYRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	y := image.NewPlane[int16](10, 10)
	for yy := 0; yy < 10; yy++ {
		row := y.Row(yy)
		for xx := 0; xx < 10; xx++ {
			row[xx] = int16(rng.Intn(4001) - 2000)
		}
	}
	res := ShrinkY(y, false)
	got := ExpandY(res, false)
	for yy := 0; yy < 10; yy++ {
		for xx := 0; xx < 10; xx++ {
			if got.At(xx, yy) != y.At(xx, yy) {
				t.Fatalf("pixel (%d,%d): got %d want %d", xx, yy, got.At(xx, yy), y.At(xx, yy))
			}
		}
	}
}

func TestSelectRegionPredictorDeterministic(t *testing.T) {
	nb := neighborhood{w: 10, n: 20, nw: 5, ne: 15}
	a := selectRegionPredictor(nb)
	b := selectRegionPredictor(nb)
	if a != b {
		t.Fatalf("selectRegionPredictor is not deterministic: %d != %d", a, b)
	}
	if a < 0 || a >= NumPredictors {
		t.Fatalf("selected predictor index %d out of range", a)
	}
}
