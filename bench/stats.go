package bench

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// timing accumulates a running mean and variance with Welford's method.
type timing struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (t *timing) push(v float64) {
	t.n++
	if t.n == 1 {
		t.min, t.max = v, v
	}
	t.min = math.Min(t.min, v)
	t.max = math.Max(t.max, v)
	delta := v - t.mean
	t.mean += delta / float64(t.n)
	t.m2 += delta * (v - t.mean)
}

func (t *timing) variance() float64 {
	if t.n < 2 {
		return 0
	}
	return t.m2 / float64(t.n-1)
}

func (t *timing) stdev() float64 {
	return math.Sqrt(t.variance())
}

// confidence returns the half-width of the two-sided interval around the
// mean at the given percentage (e.g. 95).
func (t *timing) confidence(pct float64) float64 {
	if t.n == 0 {
		return 0
	}
	return zValue(pct) * math.Sqrt(t.variance()/float64(t.n))
}

func zValue(pct float64) float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	return normal.Quantile((1 + pct/100) / 2)
}
