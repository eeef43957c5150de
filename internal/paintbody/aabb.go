package paintbody

import (
	"math"

	"github.com/golang/geo/r3"
)

type rayRecips struct {
	invX, invY, invZ Real
	parX, parY, parZ bool // parallel flags (|D| < eps)
}

func newRayRecips(d r3.Vector) rayRecips {
	var rr rayRecips
	if rr.parX = math.Abs(d.X) < parallelEps; !rr.parX {
		rr.invX = 1 / d.X
	}
	if rr.parY = math.Abs(d.Y) < parallelEps; !rr.parY {
		rr.invY = 1 / d.Y
	}
	if rr.parZ = math.Abs(d.Z) < parallelEps; !rr.parZ {
		rr.invZ = 1 / d.Z
	}
	return rr
}

// slab narrows [tmin, tmax] by one axis; ok is false when a parallel ray
// lies outside the slab.
func slab(o, lo, hi, inv Real, par bool, tmin, tmax Real) (Real, Real, bool) {
	if par {
		return tmin, tmax, o >= lo && o <= hi
	}
	t1, t2 := (lo-o)*inv, (hi-o)*inv
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return math.Max(tmin, t1), math.Min(tmax, t2), true
}

// rayAABB returns the entry and exit depths of the ray through the box.
// The entry is clamped to 0 when the origin is inside.
func rayAABB(o r3.Vector, minP, maxP r3.Vector, rr rayRecips) (bool, Real, Real) {
	tmin, tmax := -1e300, 1e300
	var ok bool
	if tmin, tmax, ok = slab(o.X, minP.X, maxP.X, rr.invX, rr.parX, tmin, tmax); !ok {
		return false, 0, 0
	}
	if tmin, tmax, ok = slab(o.Y, minP.Y, maxP.Y, rr.invY, rr.parY, tmin, tmax); !ok {
		return false, 0, 0
	}
	if tmin, tmax, ok = slab(o.Z, minP.Z, maxP.Z, rr.invZ, rr.parZ, tmin, tmax); !ok {
		return false, 0, 0
	}
	if tmax < 0 || tmin > tmax {
		return false, 0, 0
	}
	return true, math.Max(tmin, 0), tmax
}

// BoundRays returns a copy of rays where every ray without bounds
// (Near == Far == 0) gets near/far from the box, and a mask of the rays
// that have bounds. Rays that were given bounds count as hits.
func BoundRays(rays []Ray, minP, maxP r3.Vector) (out []Ray, hit []bool, filled int) {
	out = make([]Ray, len(rays))
	hit = make([]bool, len(rays))
	for i, r := range rays {
		out[i] = r
		if r.Near != 0 || r.Far != 0 {
			hit[i] = true
			continue
		}
		if ok, near, far := rayAABB(r.Origin, minP, maxP, newRayRecips(r.Dir)); ok {
			out[i].Near, out[i].Far = near, far
			hit[i] = true
			filled++
		}
	}
	return out, hit, filled
}
