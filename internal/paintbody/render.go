package paintbody

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Mode selects training or evaluation behavior of a render call.
type Mode uint8

const (
	Eval Mode = iota
	Train
)

func (m Mode) String() string {
	if m == Train {
		return "train"
	}
	return "eval"
}

// Options are the render settings; Config.Options derives them from a
// config file.
type Options struct {
	NSamples       int
	Perturb        Real
	RawNoiseStd    Real
	WhiteBkgd      bool
	TimeSteps      int
	Aggregation    AggregationStrategy
	ChunkThreshold int
	ChunkSize      int
	VoxelSize      [3]Real // d, h, w
	EmbedSize      int
	RunMode        string
	Projection     ProjectionPolicy
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		NSamples:       NSamples,
		Perturb:        Perturb,
		RawNoiseStd:    RawNoiseStd,
		TimeSteps:      TimeSteps,
		Aggregation:    AggregateAverage,
		ChunkThreshold: ChunkThreshold,
		ChunkSize:      ChunkSize,
		VoxelSize:      [3]Real{VoxelSize, VoxelSize, VoxelSize},
		EmbedSize:      EmbedSize,
		RunMode:        RunMode,
	}
}

// Validate rejects options no render could satisfy.
func (o *Options) Validate() error {
	switch {
	case o.NSamples < 1:
		return errors.Errorf("nSamples must be >= 1, got %d", o.NSamples)
	case o.TimeSteps < 1:
		return errors.Errorf("timeSteps must be >= 1, got %d", o.TimeSteps)
	case o.ChunkSize < 1:
		return errors.Errorf("chunkSize must be >= 1, got %d", o.ChunkSize)
	case o.ChunkThreshold < 0:
		return errors.Errorf("chunkThreshold must be >= 0, got %d", o.ChunkThreshold)
	case o.EmbedSize < 1:
		return errors.Errorf("embedSize must be >= 1, got %d", o.EmbedSize)
	case o.RawNoiseStd < 0:
		return errors.Errorf("rawNoiseStd must be >= 0, got %g", o.RawNoiseStd)
	}
	for _, v := range o.VoxelSize {
		if !(v > 0) {
			return errors.Errorf("voxelSize must be positive, got %v", o.VoxelSize)
		}
	}
	if o.Aggregation != AggregateMasked && o.Aggregation != AggregateAverage {
		return conflictErrorf("unknown aggregation strategy %d", o.Aggregation)
	}
	return nil
}

// RenderResult holds per-ray outputs in ray order, reshaped by Shape.
type RenderResult struct {
	Shape     []int
	RGB       [][3]Real
	Opacity   []Real
	Depth     []Real
	Disparity []Real
}

// Len is the number of rendered rays.
func (r *RenderResult) Len() int { return len(r.RGB) }

// Dims returns the (width, height) used to lay the rays out as an image:
// [H, W] shapes map directly, anything else is a single row.
func (r *RenderResult) Dims() (w, h int) {
	if len(r.Shape) == 2 {
		return r.Shape[1], r.Shape[0]
	}
	return r.Len(), 1
}

// Renderer wires the render pipeline to its collaborators.
type Renderer struct {
	Opts       Options
	Encoder    ImageEncoder
	Embedder   PositionalEmbedder
	Predictor  Predictor
	Integrator VolumeIntegrator
}

// NewRenderer validates opts and requires every collaborator.
func NewRenderer(opts Options, enc ImageEncoder, emb PositionalEmbedder, pred Predictor, integ VolumeIntegrator) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if enc == nil || emb == nil || pred == nil || integ == nil {
		return nil, errors.New("renderer needs an encoder, embedder, predictor and integrator")
	}
	return &Renderer{Opts: opts, Encoder: enc, Embedder: emb, Predictor: pred, Integrator: integ}, nil
}

// Render produces color, opacity, depth and disparity for every ray of b.
// Rays that miss the volume box are not sampled: they get zero opacity and
// depth, and only the background residual as color.
func (r *Renderer) Render(ex *Exec, b *Batch, mode Mode) (*RenderResult, error) {
	if ex == nil || ex.Rand == nil {
		return nil, errors.New("render needs an Exec with a random source")
	}
	opts := &r.Opts
	if err := b.Validate(opts); err != nil {
		return nil, err
	}
	if mode == Eval && opts.RunMode == RunModeTest {
		defer ex.Release()
	}
	start := time.Now()

	rays, hit, filled := BoundRays(b.Rays, b.Volume.BoundsMin, b.Volume.BoundsMax)
	if filled > 0 {
		DebugLog("Bounded %d of %d rays by the volume box", filled, len(rays))
	}
	live := make([]Ray, 0, len(rays))
	for i, ray := range rays {
		if hit[i] {
			live = append(live, ray)
		}
	}
	if missed := len(rays) - len(live); missed > 0 {
		ex.log().Debug("rays miss the volume box", "missed", missed, "rays", len(rays))
	}

	res := newBackground(len(rays), opts.WhiteBkgd)
	points := 0
	if len(live) > 0 {
		out, err := r.renderRays(ex, b, live, mode)
		if err != nil {
			return nil, err
		}
		if n := len(live); len(out.RGB) != n || len(out.Opacity) != n || len(out.Depth) != n || len(out.Disparity) != n {
			return nil, shapeErrorf("integrator returned %d colors for %d rays", len(out.RGB), n)
		}
		k := 0
		for i := range rays {
			if !hit[i] {
				continue
			}
			res.RGB[i] = out.RGB[k]
			res.Opacity[i] = out.Opacity[k]
			res.Depth[i] = out.Depth[k]
			res.Disparity[i] = out.Disparity[k]
			k++
		}
		points = len(live) * opts.NSamples
	}
	shape := b.RayShape
	if shape == nil {
		shape = []int{len(rays)}
	}
	res.Shape = append([]int(nil), shape...)
	ex.log().Debug("rendered", "rays", len(rays), "points", points, "mode", mode, "elapsed", time.Since(start))
	return res, nil
}

// newBackground is the result of n rays that cross nothing.
func newBackground(n int, white bool) *RenderResult {
	res := &RenderResult{
		RGB:       make([][3]Real, n),
		Opacity:   make([]Real, n),
		Depth:     make([]Real, n),
		Disparity: make([]Real, n),
	}
	for i := range res.RGB {
		if white {
			res.RGB[i] = [3]Real{1, 1, 1}
		}
		res.Disparity[i] = 1 / dispEps
	}
	return res
}

// renderRays runs sampling, painting, prediction and integration for rays
// that all have bounds.
func (r *Renderer) renderRays(ex *Exec, b *Batch, rays []Ray, mode Mode) (*Integrated, error) {
	opts := &r.Opts
	n := opts.NSamples
	jitter := mode == Train && opts.Perturb > 0
	pts, z := SampleRays(rays, n, jitter, ex.Rand)

	can, err := ToCanonical(pts, b.Th, b.R)
	if err != nil {
		return nil, err
	}
	if can, err = Augment(can, b.Augment, mode == Train); err != nil {
		return nil, err
	}
	vq, err := PrepareVolume([]*SparseVolume{&b.Volume})
	if err != nil {
		return nil, err
	}
	grid, err := GridCoords(can, b.Volume.BoundsMin, opts.VoxelSize, vq.OutShape)
	if err != nil {
		return nil, err
	}
	xyzEmb := embedPoints(r.Embedder, can)
	viewEmb := embedViewDirs(r.Embedder, rays, n)

	holder, pixelGrid, err := r.paint(ex, b)
	if err != nil {
		return nil, err
	}

	size := b.imageSize()
	eval := func(lo, hi int) ([]Raw, error) {
		buf, err := ex.buffer(len(b.Views) * (hi - lo) * pixelGrid.C)
		if err != nil {
			return nil, err
		}
		pf, err := PixelAligned(ex, pts[lo:hi], b.Views, pixelGrid, size, opts.Projection, buf)
		if err != nil {
			return nil, err
		}
		return r.Predictor.Predict(ex, &PredictorInput{
			Pixel:      pf,
			Volume:     vq,
			GridCoords: grid[lo:hi],
			ViewEmbed:  viewEmb.Slice(lo, hi),
			XYZEmbed:   xyzEmb.Slice(lo, hi),
			Holder:     holder,
		})
	}
	var raw []Raw
	if total := len(pts); total > opts.ChunkThreshold {
		ex.trace("render.chunked", "points", total, "chunk", opts.ChunkSize)
		DebugLogOnce("Chunking renders above %d points into chunks of %d", opts.ChunkThreshold, opts.ChunkSize)
		raw, err = EvaluateChunked(total, opts.ChunkSize, eval)
	} else {
		raw, err = eval(0, total)
		if err == nil && len(raw) != total {
			err = shapeErrorf("predictor produced %d outputs for %d points", len(raw), total)
		}
	}
	if err != nil {
		return nil, err
	}

	noise := 0.0
	if mode == Train {
		noise = opts.RawNoiseStd
	}
	dirs := make([]r3.Vector, len(rays))
	for i, ray := range rays {
		dirs[i] = ray.Dir
	}
	return r.Integrator.Integrate(ex, &IntegrateInput{
		Raw:       raw,
		Z:         z,
		Dirs:      dirs,
		NSamples:  n,
		NoiseStd:  noise,
		WhiteBkgd: opts.WhiteBkgd,
	})
}

// paint runs the time-step loop: encode each step's images, paint the
// vertices, and freeze the holder. The pixel grid comes from the first step.
func (r *Renderer) paint(ex *Exec, b *Batch) (*HolderInput, *FeatureGrid, error) {
	opts := &r.Opts
	agg := opts.Aggregation.Aggregator()
	painting := NewPainting(agg.Strategy(), opts.TimeSteps)
	var pixelGrid *FeatureGrid
	for t := 0; t < opts.TimeSteps; t++ {
		enc, err := r.Encoder.Encode(ex, b.Images[t], t == 0)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "encode time step %d", t)
		}
		if t == 0 {
			if enc.Pixel == nil {
				return nil, nil, shapeErrorf("encoder returned no pixel grid at the first time step")
			}
			pixelGrid = enc.Pixel
		}
		step, err := agg.Paint(ex, PaintInput{
			Vertices:  b.Vertices[t],
			Views:     b.Views,
			Grid:      enc.Holder,
			ImageSize: b.Images[t][0].Size(),
			Mask:      b.mask(t),
			EmbedSize: opts.EmbedSize,
			Policy:    opts.Projection,
		}, painting.Last())
		if err != nil {
			return nil, nil, errors.Wrapf(err, "paint time step %d", t)
		}
		painting.Add(step)
	}
	holder, err := painting.Freeze()
	if err != nil {
		return nil, nil, err
	}
	return holder, pixelGrid, nil
}
