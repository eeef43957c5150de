package paintbody

// Holder is the painted per-vertex descriptor, Views×Verts×Dim. The
// averaging strategy produces a single view slab.
type Holder struct {
	Views, Verts, Dim int
	Data              []float32 // flat: (view*Verts+vertex)*Dim + d
}

// NewHolder allocates a zeroed holder.
func NewHolder(views, verts, dim int) *Holder {
	return &Holder{Views: views, Verts: verts, Dim: dim, Data: make([]float32, views*verts*dim)}
}

// Row returns the descriptor of vertex i in view slab v.
func (h *Holder) Row(v, i int) []float32 {
	off := (v*h.Verts + i) * h.Dim
	return h.Data[off : off+h.Dim]
}

// StepPainting is what painting one time step produces. Weight is the
// [view][vertex] visibility mask in masked mode and nil otherwise.
type StepPainting struct {
	Weight [][]bool
	Holder *Holder
}

// HolderInput is the frozen holder handed to the predictor: exactly one of
// Single and Steps is set. Steps is the ordered per-time-step sequence of
// masked paintings.
type HolderInput struct {
	Strategy AggregationStrategy
	Single   *StepPainting
	Steps    []*StepPainting
}

// Painting accumulates StepPaintings across the time-step loop.
type Painting struct {
	strategy  AggregationStrategy
	timeSteps int
	steps     []*StepPainting
}

// NewPainting prepares an accumulator for timeSteps steps.
func NewPainting(strategy AggregationStrategy, timeSteps int) *Painting {
	return &Painting{strategy: strategy, timeSteps: timeSteps, steps: make([]*StepPainting, 0, timeSteps)}
}

// Add records the painting of the next time step.
func (p *Painting) Add(s *StepPainting) { p.steps = append(p.steps, s) }

// Last returns the most recent step, or nil before the first one.
func (p *Painting) Last() *StepPainting {
	if len(p.steps) == 0 {
		return nil
	}
	return p.steps[len(p.steps)-1]
}

// Masked returns the latest (weight, holder) pair; only masked mode has one.
func (p *Painting) Masked() ([][]bool, *Holder, error) {
	if p.strategy != AggregateMasked {
		return nil, nil, conflictErrorf("masked output requested but aggregation is %s", p.strategy)
	}
	last := p.Last()
	if last == nil {
		return nil, nil, conflictErrorf("masked output requested before any time step was painted")
	}
	return last.Weight, last.Holder, nil
}

// Sequence returns every step in order; only masked multi-step mode fuses
// a sequence.
func (p *Painting) Sequence() ([]*StepPainting, error) {
	if p.strategy != AggregateMasked {
		return nil, conflictErrorf("temporal sequence requested but aggregation is %s", p.strategy)
	}
	if p.timeSteps <= 1 {
		return nil, conflictErrorf("temporal sequence requested with %d time step", p.timeSteps)
	}
	if len(p.steps) != p.timeSteps {
		return nil, shapeErrorf("painted %d of %d time steps", len(p.steps), p.timeSteps)
	}
	return p.steps, nil
}

// Freeze returns the predictor input: the sequence for masked multi-step
// painting, the single painting otherwise (the final one when averaging).
func (p *Painting) Freeze() (*HolderInput, error) {
	if len(p.steps) != p.timeSteps {
		return nil, shapeErrorf("painted %d of %d time steps", len(p.steps), p.timeSteps)
	}
	in := &HolderInput{Strategy: p.strategy}
	if p.strategy == AggregateMasked && p.timeSteps > 1 {
		seq, err := p.Sequence()
		if err != nil {
			return nil, err
		}
		in.Steps = seq
		return in, nil
	}
	if p.strategy == AggregateMasked {
		w, h, err := p.Masked()
		if err != nil {
			return nil, err
		}
		in.Single = &StepPainting{Weight: w, Holder: h}
		return in, nil
	}
	in.Single = p.Last()
	return in, nil
}
