package noise

import (
	"math"

	"github.com/xybimage/xybc/image"
)

// xorshift128Plus is the fixed PRNG spec.md §4.9 names for decode-time
// noise synthesis: AddNoise always seeds it with the same fixed values, so
// the grain pattern is a function of (alpha, gamma, beta) and the image
// size alone and reproduces bit-for-bit on every decode.
type xorshift128Plus struct {
	s0, s1 uint64
}

func newXorshift128Plus(seed0, seed1 uint64) *xorshift128Plus {
	return &xorshift128Plus{s0: seed0, s1: seed1}
}

func (x *xorshift128Plus) next() uint64 {
	s1 := x.s0
	s0 := x.s1
	x.s0 = s0
	s1 ^= s1 << 23
	s1 ^= s1 >> 17
	s1 ^= s0
	s1 ^= s0 >> 26
	x.s1 = s1
	return x.s0 + x.s1
}

// seedA, seedB are the fixed xorshift128+ seed noise.cc hardcodes
// (Xorshift128Plus rng(65537, 123456789)), carried over verbatim since any
// other fixed seed would be equally arbitrary and this one is at least
// traceable to the system being modeled.
const (
	seedA uint64 = 65537
	seedB uint64 = 123456789
)

// correlationKernel is the zero-sum Laplacian kernel applied to the raw uniform
// field before it is used as grain (noise.cc's RandomImage /
// kernel::Laplacian3 step): it turns independent per-pixel uniform noise
// into noise with local spatial correlation, which reads as grain rather
// than as single-pixel speckle.
var correlationKernel = [3][3]float64{
	{-0.25, -1.0, -0.25},
	{-1.0, 5.0, -1.0},
	{-0.25, -1.0, -0.25},
}

// randomField draws a uniform [0,1) field from rng and convolves it with
// correlationKernel, noise.cc's RandomImage.
func randomField(rng *xorshift128Plus, xsize, ysize int) [][]float64 {
	raw := make([][]float64, ysize)
	for y := 0; y < ysize; y++ {
		row := make([]float64, xsize)
		for x := 0; x < xsize; x++ {
			bits := uint32(rng.next())
			// 1.0 + 23 random mantissa bits = [1, 2), minus 1 = [0, 1).
			mantissa := (bits >> 9) | 0x3F800000
			row[x] = float64(math.Float32frombits(mantissa)) - 1.0
		}
		raw[y] = row
	}

	out := make([][]float64, ysize)
	for y := 0; y < ysize; y++ {
		row := make([]float64, xsize)
		for x := 0; x < xsize; x++ {
			var sum float64
			for fy := -1; fy <= 1; fy++ {
				yy := reflect(y+fy, ysize)
				for fx := -1; fx <= 1; fx++ {
					xx := reflect(x+fx, xsize)
					sum += raw[yy][xx] * correlationKernel[fy+1][fx+1]
				}
			}
			row[x] = sum
		}
		out[y] = row
	}
	return out
}

// AddNoise injects the grain described by p into opsin in place,
// following noise.cc's AddNoiseT/AddNoiseToRGB: three correlated random
// fields (red, green, and a shared correlated component) are drawn from
// one fixed-seed PRNG stream, scaled by the intensity-dependent strength
// curve, mixed into red/green noise with weight 0.1 on each channel's own
// field and 0.9 on the shared correlated field, and folded back into X/Y/B.
func AddNoise(p Params, opsin *image.Image[float32]) {
	if p.IsZero() {
		return
	}
	xsize, ysize := opsin.XSize(), opsin.YSize()
	rng := newXorshift128Plus(seedA, seedB)
	red := randomField(rng, xsize, ysize)
	green := randomField(rng, xsize, ysize)
	correlated := randomField(rng, xsize, ysize)

	const normConst = 0.22
	const rgCorr = 0.9
	const rgnCorr = 0.1

	xPlane, yPlane, bPlane := opsin.Planes[0], opsin.Planes[1], opsin.Planes[2]
	for y := 0; y < ysize; y++ {
		xRow, yRow, bRow := xPlane.Row(y), yPlane.Row(y), bPlane.Row(y)
		redRow, greenRow, corrRow := red[y], green[y], correlated[y]
		for x := 0; x < xsize; x++ {
			vx, vy := float64(xRow[x]), float64(yRow[x])
			inG := clampf(0.5*(vy-vx), -xybRange[1], xybRange[1])
			inR := clampf(0.5*(vy+vx), -xybRange[1], xybRange[1])
			strengthG := p.Strength(inG)
			strengthR := p.Strength(inR)

			rndR := redRow[x] * normConst
			rndG := greenRow[x] * normConst
			rndC := corrRow[x] * normConst

			redNoise := rgnCorr*rndR*strengthR + rgCorr*rndC*strengthR
			greenNoise := rgnCorr*rndG*strengthG + rgCorr*rndC*strengthG

			nx := float64(xRow[x]) + redNoise - greenNoise
			ny := float64(yRow[x]) + redNoise + greenNoise
			nb := float64(bRow[x]) + 0.9375*(redNoise+greenNoise)

			xRow[x] = float32(clampf(nx, -xybRange[0], xybRange[0]))
			yRow[x] = float32(clampf(ny, -xybRange[1], xybRange[1]))
			bRow[x] = float32(clampf(nb, -xybRange[2], xybRange[2]))
		}
	}
}
