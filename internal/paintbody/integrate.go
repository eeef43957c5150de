package paintbody

import (
	"math"

	"github.com/golang/geo/r3"
)

// Integrated is the per-ray output of volume integration.
type Integrated struct {
	RGB       [][3]Real
	Disparity []Real
	Opacity   []Real
	Depth     []Real
	// Weights are the per-sample compositing weights, ray-major.
	Weights []Real
}

// IntegrateInput carries the samples of a full ray batch.
type IntegrateInput struct {
	Raw      []Raw       // rays×n, ray-major
	Z        []Real      // rays×n sample depths
	Dirs     []r3.Vector // one per ray, unnormalized
	NSamples int
	// NoiseStd > 0 adds Gaussian noise to density (training only).
	NoiseStd  Real
	WhiteBkgd bool
}

// VolumeIntegrator composites per-sample predictions along each ray.
type VolumeIntegrator interface {
	Integrate(ex *Exec, in *IntegrateInput) (*Integrated, error)
}

// Raw2Outputs is alpha compositing with sigmoid color and a 1e10 terminal
// segment.
type Raw2Outputs struct{}

func sigmoid(x Real) Real { return 1 / (1 + math.Exp(-x)) }

func (Raw2Outputs) Integrate(ex *Exec, in *IntegrateInput) (*Integrated, error) {
	n := in.NSamples
	if n < 1 {
		return nil, shapeErrorf("integrate needs at least one sample per ray, got %d", n)
	}
	rays := len(in.Dirs)
	if len(in.Raw) != rays*n || len(in.Z) != rays*n {
		return nil, shapeErrorf("integrate got %d raw and %d depths for %d rays × %d samples", len(in.Raw), len(in.Z), rays, n)
	}
	out := &Integrated{
		RGB:       make([][3]Real, rays),
		Disparity: make([]Real, rays),
		Opacity:   make([]Real, rays),
		Depth:     make([]Real, rays),
		Weights:   make([]Real, rays*n),
	}
	for r := 0; r < rays; r++ {
		norm := in.Dirs[r].Norm()
		raw, z := in.Raw[r*n:(r+1)*n], in.Z[r*n:(r+1)*n]
		trans := 1.0
		var rgb [3]Real
		var depth, acc Real
		for i := 0; i < n; i++ {
			dist := farSegment
			if i+1 < n {
				dist = z[i+1] - z[i]
			}
			dist *= norm
			sigma := raw[i][ChSigma]
			if in.NoiseStd > 0 {
				sigma += ex.Rand.NormFloat64() * in.NoiseStd
			}
			alpha := 1 - math.Exp(-math.Max(sigma, 0)*dist)
			w := alpha * trans
			trans *= 1 - alpha + transEps
			out.Weights[r*n+i] = w
			rgb[ChR] += w * sigmoid(raw[i][ChR])
			rgb[ChG] += w * sigmoid(raw[i][ChG])
			rgb[ChB] += w * sigmoid(raw[i][ChB])
			depth += w * z[i]
			acc += w
		}
		ratio := dispEps
		if acc > 0 && depth/acc > dispEps {
			ratio = depth / acc
		}
		if in.WhiteBkgd {
			for c := range rgb {
				rgb[c] += 1 - acc
			}
		}
		out.RGB[r] = rgb
		out.Disparity[r] = 1 / ratio
		out.Opacity[r] = acc
		out.Depth[r] = depth
	}
	return out, nil
}
