package paintbody

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// Ray is one target-view ray with its depth bounds.
type Ray struct {
	Origin, Dir r3.Vector
	Near, Far   Real
}

// At returns the point at parametric depth z.
func (r Ray) At(z Real) r3.Vector { return r.Origin.Add(r.Dir.Mul(z)) }

// SampleRays places n depths per ray, evenly spaced from Near to Far.
// With jitter each depth is redrawn uniformly inside its own stratum,
// bounded by the midpoints to its neighbours (the first and last strata
// end at Near and Far). Output is ray-major: index = ray*n + sample.
// All randomness is drawn here, before any chunking.
func SampleRays(rays []Ray, n int, jitter bool, rng *rand.Rand) (pts []r3.Vector, z []Real) {
	pts = make([]r3.Vector, len(rays)*n)
	z = make([]Real, len(rays)*n)
	t := linspace(n)
	for ri, ray := range rays {
		zr := z[ri*n : (ri+1)*n]
		for s, ts := range t {
			zr[s] = ray.Near*(1-ts) + ray.Far*ts
		}
		if jitter && n > 1 {
			stratify(zr, rng)
		}
		for s, zs := range zr {
			pts[ri*n+s] = ray.At(zs)
		}
	}
	return pts, z
}

// linspace returns n values from 0 to 1 inclusive; n == 1 gives [0].
func linspace(n int) []Real {
	t := make([]Real, n)
	if n == 1 {
		return t
	}
	step := 1 / Real(n-1)
	for i := range t {
		t[i] = Real(i) * step
	}
	t[n-1] = 1
	return t
}

// stratify redraws z in place within midpoint-bounded strata.
func stratify(z []Real, rng *rand.Rand) {
	n := len(z)
	lower := make([]Real, n)
	upper := make([]Real, n)
	lower[0], upper[n-1] = z[0], z[n-1]
	for i := 0; i < n-1; i++ {
		mid := 0.5 * (z[i+1] + z[i])
		upper[i] = mid
		lower[i+1] = mid
	}
	for i := range z {
		z[i] = lower[i] + (upper[i]-lower[i])*rng.Float64()
	}
}
