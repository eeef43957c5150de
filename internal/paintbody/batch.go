package paintbody

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Batch is one render request. Per-time-step slices are indexed [t] and
// per-view slices [view] in the order of Views.
type Batch struct {
	Images   [][]*Image    // [t][view]
	Views    []View        // fixed across time steps
	Vertices [][]r3.Vector // [t][vertex], fixed vertex count
	VisMasks [][][]bool    // [t][view][vertex], masked aggregation only

	// canonical frame: (p - Th)·R
	Th r3.Vector
	R  mat.Matrix

	Volume SparseVolume
	Rays   []Ray
	// RayShape is the logical shape of Rays (e.g. [H, W]); nil means flat.
	RayShape []int
	Augment  *Augmentation // applied in Train mode only
}

// Validate checks the batch against the render options and returns an
// ErrShapeMismatch wrap naming the first inconsistency.
func (b *Batch) Validate(opts *Options) error {
	t := opts.TimeSteps
	if len(b.Images) != t {
		return shapeErrorf("batch has %d image time steps, configured %d", len(b.Images), t)
	}
	if len(b.Vertices) != t {
		return shapeErrorf("batch has %d vertex time steps, configured %d", len(b.Vertices), t)
	}
	if len(b.Views) == 0 {
		return shapeErrorf("batch has no input views")
	}
	for i, v := range b.Views {
		if err := v.validate(i); err != nil {
			return err
		}
	}
	size := Size{}
	for ti, ims := range b.Images {
		if len(ims) != len(b.Views) {
			return shapeErrorf("time step %d has %d images for %d views", ti, len(ims), len(b.Views))
		}
		for vi, im := range ims {
			if im == nil {
				return shapeErrorf("time step %d view %d image missing", ti, vi)
			}
			if ti == 0 && vi == 0 {
				size = im.Size()
			}
			if im.Size() != size {
				return shapeErrorf("time step %d view %d image is %dx%d, expected %dx%d", ti, vi, im.W, im.H, size.W, size.H)
			}
		}
	}
	verts := len(b.Vertices[0])
	for ti, vs := range b.Vertices {
		if len(vs) != verts {
			return shapeErrorf("time step %d has %d vertices, time step 0 has %d", ti, len(vs), verts)
		}
	}
	if opts.Aggregation == AggregateMasked {
		if len(b.VisMasks) != t {
			return shapeErrorf("masked aggregation needs %d visibility masks, got %d", t, len(b.VisMasks))
		}
		for ti, m := range b.VisMasks {
			if len(m) != len(b.Views) {
				return shapeErrorf("time step %d mask has %d views, batch has %d", ti, len(m), len(b.Views))
			}
			for vi, row := range m {
				if len(row) != verts {
					return shapeErrorf("time step %d view %d mask has %d vertices, want %d", ti, vi, len(row), verts)
				}
			}
		}
	}
	if _, err := toMat3(b.R); err != nil {
		return errors.Wrap(err, "canonical rotation")
	}
	if len(b.Rays) == 0 {
		return shapeErrorf("batch has no rays")
	}
	for i, r := range b.Rays {
		if !isFiniteVec(r.Origin) || !isFiniteVec(r.Dir) || !isFinite(r.Near) || !isFinite(r.Far) {
			return shapeErrorf("ray %d is not finite", i)
		}
		if r.Far < r.Near {
			return shapeErrorf("ray %d has far %g before near %g", i, r.Far, r.Near)
		}
	}
	if b.RayShape != nil {
		n := 1
		for _, d := range b.RayShape {
			n *= d
		}
		if n != len(b.Rays) {
			return shapeErrorf("ray shape %v holds %d rays, batch has %d", b.RayShape, n, len(b.Rays))
		}
	}
	return nil
}

// imageSize is the input image shape; Validate guarantees it is shared.
func (b *Batch) imageSize() Size { return b.Images[0][0].Size() }

func (b *Batch) mask(t int) [][]bool {
	if t < len(b.VisMasks) {
		return b.VisMasks[t]
	}
	return nil
}
