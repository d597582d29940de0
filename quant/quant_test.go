package quant

import (
	"math/rand"
	"testing"

	"github.com/xybimage/xybc/image"
)

func TestAdaptiveQuantMapFlatIsLow(t *testing.T) {
	p := image.NewPlane[float32](16, 16)
	p.Fill(0.5)
	m := AdaptiveQuantMap(p)
	if m.XSize() != 2 || m.YSize() != 2 {
		t.Fatalf("map size = (%d,%d), want (2,2)", m.XSize(), m.YSize())
	}
	for y := 0; y < m.YSize(); y++ {
		for x := 0; x < m.XSize(); x++ {
			if v := m.At(x, y); v > 0.3 {
				t.Fatalf("flat block mask = %v, want close to floor", v)
			}
		}
	}
}

func TestAdaptiveQuantMapBusyIsHigher(t *testing.T) {
	flat := image.NewPlane[float32](8, 8)
	flat.Fill(0.5)

	busy := image.NewPlane[float32](8, 8)
	rng := rand.New(rand.NewSource(7))
	for y := 0; y < 8; y++ {
		row := busy.Row(y)
		for x := 0; x < 8; x++ {
			row[x] = rng.Float32()
		}
	}

	flatMask := AdaptiveQuantMap(flat).At(0, 0)
	busyMask := AdaptiveQuantMap(busy).At(0, 0)
	if busyMask <= flatMask {
		t.Fatalf("busy mask %v should exceed flat mask %v", busyMask, flatMask)
	}
}

func TestQuantizerIdempotence(t *testing.T) {
	q := NewQuantizer(0, 2, 2)
	field := []uint32{1, 2, 3, 4}

	if changed := q.SetQuantField(1.5, field); !changed {
		t.Fatalf("first SetQuantField should report changed")
	}
	scaleAfterFirst := q.Scale()
	dcAfterFirst := q.DCScale()
	fieldAfterFirst := append([]uint32(nil), q.RawField()...)

	if changed := q.SetQuantField(1.5, field); changed {
		t.Fatalf("second identical SetQuantField should report unchanged")
	}
	if q.Scale() != scaleAfterFirst || q.DCScale() != dcAfterFirst {
		t.Fatalf("quantizer state mutated on a no-op SetQuantField")
	}
	for i, v := range q.RawField() {
		if v != fieldAfterFirst[i] {
			t.Fatalf("raw field mutated on a no-op SetQuantField")
		}
	}
}

func TestQuantizeDequantizeACRoundTrip(t *testing.T) {
	q := NewQuantizer(0, 4, 4)
	field := make([]uint32, 16)
	for i := range field {
		field[i] = uint32(i + 1)
	}
	q.SetQuantField(1.0, field)

	var coef, reconstructed [64]float64
	rng := rand.New(rand.NewSource(5))
	for i := 1; i < 64; i++ {
		coef[i] = (rng.Float64()*2 - 1) * 100
	}

	var quantized [64]int16
	q.QuantizeAC(1, 1, coef[:], quantized[:])
	q.DequantizeAC(1, 1, quantized[:], reconstructed[:])

	for k := 1; k < 64; k++ {
		mult := q.BlockQuant(1, 1)
		step := mult * q.Dequant(k)
		if diff := reconstructed[k] - coef[k]; diff > step || diff < -step {
			t.Fatalf("coefficient %d: reconstructed %v too far from original %v (step %v)", k, reconstructed[k], coef[k], step)
		}
	}
}

func TestDequantMatrixPositive(t *testing.T) {
	q := NewQuantizer(1, 1, 1)
	q.SetQuantField(1.0, []uint32{1})
	for k := 0; k < 64; k++ {
		mult := q.BlockQuant(0, 0)
		if mult*q.Dequant(k) <= 0 {
			t.Fatalf("coefficient %d: quant*dequant = %v, want > 0", k, mult*q.Dequant(k))
		}
	}
}
