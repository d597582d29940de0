package noise

import (
	"math"
	"testing"

	"github.com/xybimage/xybc/bitio"
	"github.com/xybimage/xybc/image"
)

func TestEncodeDecodeParamsRoundTrip(t *testing.T) {
	cases := []Params{
		{},
		{Alpha: -0.051, Gamma: 2.603, Beta: 0.024},
		{Alpha: 1.0, Gamma: -3.25, Beta: -0.5},
	}
	for _, p := range cases {
		w := bitio.NewWriter()
		Encode(w, p)
		r := bitio.NewReader(w.Bytes())
		got, err := Decode(r)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if math.Abs(got.Alpha-p.Alpha) > 1e-3 || math.Abs(got.Gamma-p.Gamma) > 1e-3 || math.Abs(got.Beta-p.Beta) > 1e-3 {
			t.Fatalf("round trip: got %+v want %+v", got, p)
		}
	}
}

func TestStrengthClampedToUnitRange(t *testing.T) {
	p := Params{Alpha: 100, Gamma: 1, Beta: 0}
	if s := p.Strength(10); s != 1 {
		t.Fatalf("Strength should clamp to 1, got %v", s)
	}
	p = Params{Alpha: 0, Gamma: 0, Beta: -5}
	if s := p.Strength(0); s != 0 {
		t.Fatalf("Strength should clamp to 0, got %v", s)
	}
}

func TestEstimateParamsZeroOnStronglyTexturedImage(t *testing.T) {
	img := image.NewImage[float32](32, 32)
	for y := 0; y < 32; y++ {
		yRow := img.Planes[1].Row(y)
		for x := 0; x < 32; x++ {
			if (x+y)%2 == 0 {
				yRow[x] = 0.4
			} else {
				yRow[x] = -0.4
			}
		}
	}
	p := EstimateParams(img, 1.0)
	if !p.IsZero() {
		t.Fatalf("expected zero params for a checkerboard-textured image, got %+v", p)
	}
}

func TestEstimateParamsOnFlatImageFitsWithoutPanicking(t *testing.T) {
	img := image.NewImage[float32](32, 32)
	for y := 0; y < 32; y++ {
		yRow := img.Planes[1].Row(y)
		xRow := img.Planes[0].Row(y)
		for x := 0; x < 32; x++ {
			yRow[x] = 0.5
			xRow[x] = 0.0
		}
	}
	_ = EstimateParams(img, 1.0)
}

func TestAddNoiseIsDeterministic(t *testing.T) {
	p := Params{Alpha: -0.05, Gamma: 2.6, Beta: 0.025}

	build := func() *image.Image[float32] {
		img := image.NewImage[float32](16, 16)
		for y := 0; y < 16; y++ {
			yRow := img.Planes[1].Row(y)
			for x := 0; x < 16; x++ {
				yRow[x] = 0.3
			}
		}
		return img
	}

	a := build()
	b := build()
	AddNoise(p, a)
	AddNoise(p, b)

	for y := 0; y < 16; y++ {
		for c := 0; c < 3; c++ {
			ra, rb := a.Planes[c].Row(y), b.Planes[c].Row(y)
			for x := 0; x < 16; x++ {
				if ra[x] != rb[x] {
					t.Fatalf("AddNoise is not deterministic at plane %d (%d,%d): %v != %v", c, x, y, ra[x], rb[x])
				}
			}
		}
	}
}

func TestAddNoiseNoOpWhenZeroParams(t *testing.T) {
	img := image.NewImage[float32](8, 8)
	for y := 0; y < 8; y++ {
		row := img.Planes[1].Row(y)
		for x := 0; x < 8; x++ {
			row[x] = 0.25
		}
	}
	before := make([]float32, 8)
	copy(before, img.Planes[1].Row(3))
	AddNoise(Params{}, img)
	after := img.Planes[1].Row(3)
	for x := 0; x < 8; x++ {
		if before[x] != after[x] {
			t.Fatalf("AddNoise with zero params mutated pixel %d: %v != %v", x, before[x], after[x])
		}
	}
}
