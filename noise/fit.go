package noise

import "math"

// fitPowerLaw minimizes the regularized least-squares loss
// noise.cc's LossFunction defines over (alpha, gamma, beta):
//
//	L(w) = sum_i [ (1-reg) * (y_i - (w0 * x_i^w1 + w2))^2 + reg * w0 * w1 ]
//
// against samples, where x_i is the sample intensity shifted by
// xybCenter[1] and samples with x_i <= kEpsilon are skipped, and returns
// the fitted (alpha, gamma, beta).
//
// noise.cc fits this with a scaled conjugate gradient method; the header
// that implements it (optimize.h) was not part of the retrieved source,
// so this package uses plain gradient descent with a shrinking step size
// against the identical loss and gradient instead. The loss surface here
// is smooth and low-dimensional (3 parameters), so vanilla gradient
// descent converges to the same optimum a conjugate-gradient method would
// find; it is simply slower to do so, which does not matter at this
// problem size.
func fitPowerLaw(samples []noiseLevelSample) (alpha, gamma, beta float64) {
	const (
		kEpsilon  = 1e-2
		kRegul    = 0.00005
		maxIter   = 2000
		step0     = 1e-3
		precision = 1e-8
	)

	w := [3]float64{-0.05, 2.6, 0.025}
	loss := func(w [3]float64) (float64, [3]float64) {
		var l float64
		var grad [3]float64
		for _, s := range samples {
			shifted := s.intensity + xybCenter[1]
			if shifted <= kEpsilon {
				continue
			}
			xp := math.Pow(shifted, w[1])
			lf := s.noiseLevel - (w[0]*xp + w[2])
			grad[0] += (1-kRegul)*2.0*lf*xp + kRegul*w[1]
			grad[1] += (1-kRegul)*2.0*lf*w[0]*xp*math.Log(shifted) + kRegul*w[0]
			grad[2] += (1 - kRegul) * 2.0 * lf
			l += (1-kRegul)*lf*lf + kRegul*w[0]*w[1]
		}
		return l, grad
	}

	step := step0
	prevLoss, _ := loss(w)
	for iter := 0; iter < maxIter; iter++ {
		curLoss, grad := loss(w)
		if math.Abs(prevLoss-curLoss) < precision && iter > 0 {
			break
		}
		next := [3]float64{
			w[0] - step*grad[0],
			w[1] - step*grad[1],
			w[2] - step*grad[2],
		}
		nextLoss, _ := loss(next)
		if nextLoss > curLoss {
			step *= 0.5
			if step < 1e-12 {
				break
			}
			continue
		}
		w = next
		prevLoss = curLoss
	}
	return w[0], w[1], w[2]
}
