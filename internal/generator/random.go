package generator

import (
	"math"
	"math/rand/v2"
)

// NewRand returns an independent random source. Each generation worker owns
// one, so no source is ever shared between goroutines.
func NewRand() *rand.Rand {
	return newRand()
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Round rounds x to d decimals by adding 0.5 to x*10^d and truncating the
// result toward zero. Non-negative input rounds half up (2.345 -> 2.35);
// negative input keeps the truncation (-2.345 -> -2.34, -0.5 -> -0.49).
func Round(x float64, d int) float64 {
	p := math.Pow(10, float64(d))
	return math.Trunc(x*p+0.5) / p
}

// uniform returns a value in [lo, hi).
func uniform(lo, hi float64, rng *rand.Rand) float64 {
	return lo + rng.Float64()*(hi-lo)
}
