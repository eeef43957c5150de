package paintbody

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Raw is one predicted sample: color logits and raw density.
type Raw [4]Real

// PredictorInput bundles everything the predictor sees for a contiguous
// slice of points. Holder and Volume are shared across chunks.
type PredictorInput struct {
	Pixel      *PixelFeatures
	Volume     *VolumeQuery
	GridCoords []r3.Vector
	ViewEmbed  *Embedding
	XYZEmbed   *Embedding
	Holder     *HolderInput
}

// Points is the number of points being evaluated.
func (in *PredictorInput) Points() int { return len(in.GridCoords) }

func (in *PredictorInput) validate() error {
	n := in.Points()
	if in.Pixel == nil || in.Pixel.Points != n {
		return shapeErrorf("pixel features do not cover %d points", n)
	}
	if in.ViewEmbed == nil || in.ViewEmbed.Len() != n {
		return shapeErrorf("view encodings do not cover %d points", n)
	}
	if in.XYZEmbed == nil || in.XYZEmbed.Len() != n {
		return shapeErrorf("xyz encodings do not cover %d points", n)
	}
	if in.Holder == nil || (in.Holder.Single == nil && len(in.Holder.Steps) == 0) {
		return shapeErrorf("predictor input has no painted holder")
	}
	return nil
}

// Predictor maps point features to Raw samples, one per point, in order.
// Implementations must not retain the input slices: they live in scratch
// memory reused by the next chunk.
type Predictor interface {
	Predict(ex *Exec, in *PredictorInput) ([]Raw, error)
}

// LinearHead is a fixed, seeded linear predictor over the concatenation of
// mean pixel feature, holder summary, grid coordinate, xyz and view
// encodings. It is deterministic per point, so chunking never changes its
// output.
type LinearHead struct {
	PixelC, HolderDim, XYZDim, ViewDim int

	w [4][]Real
	b [4]Real
}

// NewLinearHead draws weights scaled by 1/sqrt(input width).
func NewLinearHead(pixelC, holderDim, xyzDim, viewDim int, seed int64) (*LinearHead, error) {
	if pixelC < 1 || holderDim < 1 || xyzDim < 1 || viewDim < 1 {
		return nil, errors.Errorf("linear head widths must be >= 1, got pixel=%d holder=%d xyz=%d view=%d", pixelC, holderDim, xyzDim, viewDim)
	}
	h := &LinearHead{PixelC: pixelC, HolderDim: holderDim, XYZDim: xyzDim, ViewDim: viewDim}
	dim := h.inputDim()
	rng := rand.New(rand.NewSource(seed))
	scale := 1 / math.Sqrt(Real(dim))
	for o := range h.w {
		h.w[o] = make([]Real, dim)
		for i := range h.w[o] {
			h.w[o][i] = rng.NormFloat64() * scale
		}
	}
	return h, nil
}

func (h *LinearHead) inputDim() int { return h.PixelC + h.HolderDim + 3 + h.XYZDim + h.ViewDim }

func (h *LinearHead) Predict(ex *Exec, in *PredictorInput) ([]Raw, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Pixel.C != h.PixelC || in.XYZEmbed.Dim != h.XYZDim || in.ViewEmbed.Dim != h.ViewDim {
		return nil, shapeErrorf("predictor widths pixel=%d xyz=%d view=%d, head expects %d/%d/%d",
			in.Pixel.C, in.XYZEmbed.Dim, in.ViewEmbed.Dim, h.PixelC, h.XYZDim, h.ViewDim)
	}
	summary, err := HolderSummary(in.Holder)
	if err != nil {
		return nil, err
	}
	if len(summary) != h.HolderDim {
		return nil, shapeErrorf("holder descriptor width %d, head expects %d", len(summary), h.HolderDim)
	}
	var base [4]Real
	for o := range base {
		base[o] = h.b[o]
		for i, s := range summary {
			base[o] += h.w[o][h.PixelC+i] * Real(s)
		}
	}
	n := in.Points()
	out := make([]Raw, n)
	feat := make([]Real, h.PixelC)
	gridOff := h.PixelC + h.HolderDim
	xyzOff := gridOff + 3
	viewOff := xyzOff + h.XYZDim
	for i := 0; i < n; i++ {
		meanPixel(in.Pixel, i, feat)
		g := in.GridCoords[i]
		xyz, view := in.XYZEmbed.Row(i), in.ViewEmbed.Row(i)
		for o := range out[i] {
			w := h.w[o]
			v := base[o] + w[gridOff]*g.X + w[gridOff+1]*g.Y + w[gridOff+2]*g.Z
			v += dot(w[:h.PixelC], feat)
			v += dot(w[xyzOff:viewOff], xyz)
			v += dot(w[viewOff:], view)
			out[i][o] = v
		}
	}
	return out, nil
}

func meanPixel(p *PixelFeatures, i int, dst []Real) {
	clear(dst)
	for v := 0; v < p.Views; v++ {
		for c, f := range p.Row(v, i) {
			dst[c] += Real(f)
		}
	}
	inv := 1 / Real(imax(p.Views, 1))
	for c := range dst {
		dst[c] *= inv
	}
}

func dot(a, b []Real) Real {
	var s Real
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// HolderSummary reduces a frozen holder to one descriptor: the mean over
// visible (view, vertex) entries when a weight mask is present, the mean
// over vertices otherwise, averaged across time steps for a sequence. An
// all-zero or fully masked holder summarizes to zeros.
func HolderSummary(h *HolderInput) ([]float32, error) {
	if h == nil {
		return nil, shapeErrorf("nil holder")
	}
	if h.Single != nil {
		return stepSummary(h.Single)
	}
	var sum []float32
	for t, s := range h.Steps {
		d, err := stepSummary(s)
		if err != nil {
			return nil, errors.Wrapf(err, "time step %d", t)
		}
		if sum == nil {
			sum = make([]float32, len(d))
		}
		if len(d) != len(sum) {
			return nil, shapeErrorf("time step %d descriptor width %d, step 0 has %d", t, len(d), len(sum))
		}
		for i := range d {
			sum[i] += d[i]
		}
	}
	inv := 1 / float32(imax(len(h.Steps), 1))
	for i := range sum {
		sum[i] *= inv
	}
	return sum, nil
}

func stepSummary(s *StepPainting) ([]float32, error) {
	if s == nil || s.Holder == nil {
		return nil, shapeErrorf("empty step painting")
	}
	h := s.Holder
	out := make([]float32, h.Dim)
	if s.Weight != nil && len(s.Weight) != h.Views {
		return nil, shapeErrorf("weight has %d views, holder has %d", len(s.Weight), h.Views)
	}
	count := 0
	for v := 0; v < h.Views; v++ {
		for i := 0; i < h.Verts; i++ {
			if s.Weight != nil && !s.Weight[v][i] {
				continue
			}
			for d, f := range h.Row(v, i) {
				out[d] += f
			}
			count++
		}
	}
	if count > 0 {
		inv := 1 / float32(count)
		for d := range out {
			out[d] *= inv
		}
	}
	return out, nil
}
