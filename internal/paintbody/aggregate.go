package paintbody

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// AggregationStrategy selects how per-view vertex features are fused.
type AggregationStrategy uint8

const (
	// AggregateMasked keeps one slab per view and zeroes invisible entries.
	AggregateMasked AggregationStrategy = iota
	// AggregateAverage averages the views into one descriptor per vertex.
	AggregateAverage
)

func (s AggregationStrategy) String() string {
	switch s {
	case AggregateMasked:
		return "masked"
	case AggregateAverage:
		return "average"
	}
	return "unknown"
}

// ParseAggregationStrategy accepts "masked" and "average".
func ParseAggregationStrategy(s string) (AggregationStrategy, error) {
	switch strings.ToLower(s) {
	case "masked":
		return AggregateMasked, nil
	case "average", "":
		return AggregateAverage, nil
	}
	return AggregateAverage, errors.Errorf("unknown aggregation strategy %q (want masked|average)", s)
}

// Aggregator returns the implementation of s.
func (s AggregationStrategy) Aggregator() Aggregator {
	if s == AggregateMasked {
		return maskedAggregator{}
	}
	return averageAggregator{}
}

// PaintInput is one time step's painting input.
type PaintInput struct {
	Vertices  []r3.Vector
	Views     []View
	Grid      *FeatureGrid
	ImageSize Size
	Mask      [][]bool // [view][vertex], masked strategy only
	EmbedSize int
	Policy    ProjectionPolicy
}

// Aggregator paints vertex features of one time step. prev is the
// previous step's painting (nil at the first step).
type Aggregator interface {
	Strategy() AggregationStrategy
	Paint(ex *Exec, in PaintInput, prev *StepPainting) (*StepPainting, error)
}

func (in PaintInput) validate(prev *StepPainting) error {
	if len(in.Views) == 0 {
		return shapeErrorf("no views to paint from")
	}
	if err := in.Grid.validate(len(in.Views)); err != nil {
		return err
	}
	if prev != nil && prev.Holder != nil && prev.Holder.Verts != len(in.Vertices) {
		return shapeErrorf("vertex count changed from %d to %d between time steps", prev.Holder.Verts, len(in.Vertices))
	}
	return nil
}

// sampleViews projects every vertex into every view and samples that
// view's grid. Views run in parallel; each writes only its own slot.
func sampleViews(ex *Exec, in PaintInput) ([][]float32, error) {
	latent := make([][]float32, len(in.Views))
	var g errgroup.Group
	g.SetLimit(ex.workers())
	for vi := range in.Views {
		g.Go(func() error {
			uv, err := projectView(ex, in.Vertices, in.Views[vi], vi, in.Policy)
			if err != nil {
				return err
			}
			latent[vi] = SampleGrid(in.Grid, vi, in.ImageSize, uv, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return latent, nil
}

type maskedAggregator struct{}

func (maskedAggregator) Strategy() AggregationStrategy { return AggregateMasked }

// Paint writes each vertex's feature from every view that sees it into an
// otherwise zero Views×Verts×EmbedSize holder and returns the mask as weight.
func (maskedAggregator) Paint(ex *Exec, in PaintInput, prev *StepPainting) (*StepPainting, error) {
	if err := in.validate(prev); err != nil {
		return nil, err
	}
	nv, nverts := len(in.Views), len(in.Vertices)
	if len(in.Mask) != nv {
		return nil, shapeErrorf("visibility mask has %d views, want %d", len(in.Mask), nv)
	}
	for vi, m := range in.Mask {
		if len(m) != nverts {
			return nil, shapeErrorf("visibility mask of view %d has %d vertices, want %d", vi, len(m), nverts)
		}
	}
	if in.Grid.C != in.EmbedSize {
		return nil, shapeErrorf("holder grid has %d channels, embed size is %d", in.Grid.C, in.EmbedSize)
	}
	latent, err := sampleViews(ex, in)
	if err != nil {
		return nil, err
	}
	h := NewHolder(nv, nverts, in.EmbedSize)
	visible := 0
	seen := make([]bool, nverts)
	for vi := 0; vi < nv; vi++ {
		for i, ok := range in.Mask[vi] {
			if !ok {
				continue
			}
			copy(h.Row(vi, i), latent[vi][i*h.Dim:(i+1)*h.Dim])
			seen[i] = true
			visible++
		}
	}
	hidden := 0
	for _, s := range seen {
		if !s {
			hidden++
		}
	}
	ex.trace("paint.masked", "views", nv, "vertices", nverts, "visible", visible, "hidden", hidden)
	DebugLog("masked painting: %d visible entries, %d vertices unseen by every view", visible, hidden)
	return &StepPainting{Weight: in.Mask, Holder: h}, nil
}

type averageAggregator struct{}

func (averageAggregator) Strategy() AggregationStrategy { return AggregateAverage }

// Paint sums per-view features over the view axis and divides by the view
// count. No mask is returned.
func (averageAggregator) Paint(ex *Exec, in PaintInput, prev *StepPainting) (*StepPainting, error) {
	if err := in.validate(prev); err != nil {
		return nil, err
	}
	latent, err := sampleViews(ex, in)
	if err != nil {
		return nil, err
	}
	h := NewHolder(1, len(in.Vertices), in.Grid.C)
	for _, l := range latent {
		for i, v := range l {
			h.Data[i] += v
		}
	}
	n := float32(len(latent))
	for i := range h.Data {
		h.Data[i] /= n
	}
	return &StepPainting{Holder: h}, nil
}
