package paintbody

import (
	"fmt"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderShapes(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	res, err := testRenderer(t, opts).Render(NewExec(1), testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, res.Shape)
	assert.Equal(t, 12, res.Len())
	assert.Len(t, res.Opacity, 12)
	assert.Len(t, res.Depth, 12)
	assert.Len(t, res.Disparity, 12)
	w, h := res.Dims()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	for i := 0; i < res.Len(); i++ {
		assert.GreaterOrEqual(t, res.Opacity[i], 0.0)
		assert.LessOrEqual(t, res.Opacity[i], 1.0+1e-6)
		for _, c := range res.RGB[i] {
			assert.True(t, isFinite(c))
		}
	}
}

func TestRenderChunkingIsTransparent(t *testing.T) {
	for _, mode := range []Mode{Eval, Train} {
		t.Run(mode.String(), func(t *testing.T) {
			opts := testOptions(1, AggregateAverage)
			opts.RawNoiseStd = 0.5
			opts.ChunkThreshold = 1 << 30
			whole, err := testRenderer(t, opts).Render(NewExec(5), testBatch(t, 1, false), mode)
			require.NoError(t, err)

			opts.ChunkThreshold = 0
			for _, chunk := range []int{1, 7, 13, 60} {
				opts.ChunkSize = chunk
				ex := NewExec(5)
				chunks := 0
				ex.Trace = func(event string, attrs ...any) {
					if event == "render.chunked" {
						chunks++
					}
				}
				got, err := testRenderer(t, opts).Render(ex, testBatch(t, 1, false), mode)
				require.NoError(t, err)
				assert.Equal(t, 1, chunks)
				assert.Equal(t, whole, got, "chunk %d", chunk)
			}
		})
	}
}

func TestRenderMaskedTemporal(t *testing.T) {
	opts := testOptions(3, AggregateMasked)
	ex := NewExec(1)
	masked := 0
	ex.Trace = func(event string, attrs ...any) {
		if event == "paint.masked" {
			masked++
		}
	}
	res, err := testRenderer(t, opts).Render(ex, testBatch(t, 3, true), Eval)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Len())
	assert.Equal(t, 3, masked)
}

func TestRenderTrainJittersEvalDoesNot(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	r := testRenderer(t, opts)
	a, err := r.Render(NewExec(1), testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	b, err := r.Render(NewExec(2), testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := r.Render(NewExec(3), testBatch(t, 1, false), Train)
	require.NoError(t, err)
	assert.NotEqual(t, a.Depth, c.Depth)
}

func TestRenderAugmentOnlyInTrain(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.Perturb = 0
	r := testRenderer(t, opts)
	plain, err := r.Render(NewExec(1), testBatch(t, 1, false), Eval)
	require.NoError(t, err)

	b := testBatch(t, 1, false)
	b.Augment = &Augmentation{Rot: eye3().Slice(0, 2, 0, 2), Trans: r3.Vector{X: 0.3}}
	eval, err := r.Render(NewExec(1), b, Eval)
	require.NoError(t, err)
	assert.Equal(t, plain, eval)

	train, err := r.Render(NewExec(1), b, Train)
	require.NoError(t, err)
	assert.NotEqual(t, plain.RGB, train.RGB)
}

func TestRenderWhiteBackgroundOnEmptySpace(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.WhiteBkgd = true
	r := testRenderer(t, opts)
	r.Predictor = emptySpace{}
	res, err := r.Render(NewExec(1), testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	for i := range res.RGB {
		assert.Equal(t, [3]Real{1, 1, 1}, res.RGB[i])
		assert.Zero(t, res.Opacity[i])
	}
}

type emptySpace struct{}

func (emptySpace) Predict(ex *Exec, in *PredictorInput) ([]Raw, error) {
	return make([]Raw, in.Points()), nil
}

func TestRenderDegenerateProjection(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	b := testBatch(t, 1, false)
	// camera sitting inside the volume
	b.Views[1] = frontView(0, 0)
	_, err := testRenderer(t, opts).Render(NewExec(1), b, Eval)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateProjection))

	opts.Projection = ProjectClamp
	_, err = testRenderer(t, opts).Render(NewExec(1), b, Eval)
	assert.NoError(t, err)
}

func TestRenderScratchLimit(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.ChunkThreshold = 0
	opts.ChunkSize = 10
	r := testRenderer(t, opts)
	ex := NewExec(1)
	ex.MaxScratch = 2 * 10 * 6
	_, err := r.Render(ex, testBatch(t, 1, false), Eval)
	require.NoError(t, err)

	ex = NewExec(1)
	ex.MaxScratch = 2*10*6 - 1
	_, err = r.Render(ex, testBatch(t, 1, false), Eval)
	assert.True(t, errors.Is(err, ErrResourceExhaustion))
}

func TestRenderTestModeReleasesScratch(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.RunMode = RunModeTest
	ex := NewExec(1)
	_, err := testRenderer(t, opts).Render(ex, testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	assert.Nil(t, ex.scratch)

	opts.RunMode = RunMode
	ex = NewExec(1)
	_, err = testRenderer(t, opts).Render(ex, testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	assert.NotNil(t, ex.scratch)
}

func TestRenderBoundsRaysFromVolume(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	res, err := testRenderer(t, opts).Render(NewExec(1), testBatch(t, 1, false), Eval)
	require.NoError(t, err)
	hit := 0
	for i, d := range res.Depth {
		if res.Opacity[i] < 1e-6 {
			continue
		}
		hit++
		// the box spans z in [-1, 1] and the camera sits at z = -4
		expected := d / res.Opacity[i]
		assert.GreaterOrEqual(t, expected, 3.0-1e-6)
		assert.LessOrEqual(t, expected, 5.0+1e-6)
	}
	assert.Positive(t, hit)
}

func TestRenderRaysMissingBoxAreBackground(t *testing.T) {
	for _, policy := range []ProjectionPolicy{ProjectFail, ProjectClamp} {
		for _, white := range []bool{false, true} {
			for _, mode := range []Mode{Eval, Train} {
				t.Run(fmt.Sprintf("%s/white=%v/%s", policy, white, mode), func(t *testing.T) {
					opts := testOptions(1, AggregateAverage)
					opts.Projection = policy
					opts.WhiteBkgd = white
					opts.RawNoiseStd = 1
					b := testBatch(t, 1, false)
					b.Volume.BoundsMin = r3.Vector{X: 5, Y: 5, Z: 5}
					b.Volume.BoundsMax = r3.Vector{X: 6, Y: 6, Z: 6}
					res, err := testRenderer(t, opts).Render(NewExec(1), b, mode)
					require.NoError(t, err)
					require.Equal(t, 12, res.Len())
					bg := 0.0
					if white {
						bg = 1
					}
					for i := 0; i < res.Len(); i++ {
						assert.Zero(t, res.Opacity[i], "ray %d", i)
						assert.Zero(t, res.Depth[i], "ray %d", i)
						assert.Equal(t, [3]Real{bg, bg, bg}, res.RGB[i], "ray %d", i)
						assert.Equal(t, 1/dispEps, res.Disparity[i], "ray %d", i)
					}
				})
			}
		}
	}
}

func TestRenderMixedHitAndMiss(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.WhiteBkgd = true
	inside := Ray{Origin: r3.Vector{Z: -4}, Dir: r3.Vector{Z: 1}}
	outside := Ray{Origin: r3.Vector{X: 5, Z: -4}, Dir: r3.Vector{Z: 1}}

	b := testBatch(t, 1, false)
	b.Rays = []Ray{outside, inside, outside}
	b.RayShape = nil
	mixed, err := testRenderer(t, opts).Render(NewExec(1), b, Eval)
	require.NoError(t, err)

	b.Rays = []Ray{inside}
	alone, err := testRenderer(t, opts).Render(NewExec(1), b, Eval)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, mixed.Shape)
	assert.Positive(t, mixed.Opacity[1])
	assert.Equal(t, alone.RGB[0], mixed.RGB[1])
	assert.Equal(t, alone.Opacity[0], mixed.Opacity[1])
	assert.Equal(t, alone.Depth[0], mixed.Depth[1])
	assert.Equal(t, alone.Disparity[0], mixed.Disparity[1])
	for _, i := range []int{0, 2} {
		assert.Zero(t, mixed.Opacity[i])
		assert.Equal(t, [3]Real{1, 1, 1}, mixed.RGB[i])
	}
}

func TestNewRendererValidates(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	opts.NSamples = 0
	_, err := NewRenderer(opts, nil, nil, nil, nil)
	assert.Error(t, err)
	opts = testOptions(1, AggregateAverage)
	_, err = NewRenderer(opts, nil, FrequencyEmbedder{}, nil, Raw2Outputs{})
	assert.Error(t, err)
}

// onesEncoder returns feature grids filled with ones.
type onesEncoder struct{ c int }

func (e onesEncoder) Encode(ex *Exec, images []*Image, first bool) (*EncoderOutput, error) {
	grid := func() *FeatureGrid {
		g := NewFeatureGrid(len(images), e.c, 3, 3, CornerAlignedScale(images[0].Size()))
		g.Fill(1)
		return g
	}
	out := &EncoderOutput{Holder: grid()}
	if first {
		out.Pixel = grid()
	}
	return out, nil
}

// recordingPredictor keeps every pixel feature and raw output it produced.
type recordingPredictor struct {
	pixels []float32
	raw    []Raw
}

func (p *recordingPredictor) Predict(ex *Exec, in *PredictorInput) ([]Raw, error) {
	p.pixels = append(p.pixels, in.Pixel.Data...)
	out := make([]Raw, in.Points())
	for i, g := range in.GridCoords {
		var sum Real
		for v := 0; v < in.Pixel.Views; v++ {
			for _, f := range in.Pixel.Row(v, i) {
				sum += Real(f)
			}
		}
		out[i] = Raw{g.X, g.Y, g.Z, sum}
	}
	p.raw = append(p.raw, out...)
	return out, nil
}

func TestRenderIdentityCamerasOnesGrid(t *testing.T) {
	ident := View{R: eye3(), K: eye3()}
	im := gradientImage(3, 4, 4, 0)
	b := &Batch{
		Images:   [][]*Image{{im, im, im}},
		Views:    []View{ident, ident, ident},
		Vertices: [][]r3.Vector{{{Z: 1.5}, {X: 0.1, Z: 1.5}}},
		R:        eye3(),
		Volume: SparseVolume{
			OutShape:  [3]int{4, 4, 4},
			BoundsMin: r3.Vector{X: -1, Y: -1},
			BoundsMax: r3.Vector{X: 1, Y: 1, Z: 3},
		},
		Rays: []Ray{{Origin: r3.Vector{Z: 1}, Dir: r3.Vector{Z: 1}, Near: 0, Far: 1}},
	}
	opts := testOptions(1, AggregateAverage)
	opts.NSamples = 4
	opts.ChunkThreshold = 1 << 30
	render := func(opts Options) (*RenderResult, *recordingPredictor) {
		rec := &recordingPredictor{}
		r, err := NewRenderer(opts, onesEncoder{c: 2}, FrequencyEmbedder{XYZFreqs: 1, ViewFreqs: 1}, rec, Raw2Outputs{})
		require.NoError(t, err)
		res, err := r.Render(NewExec(1), b, Eval)
		require.NoError(t, err)
		return res, rec
	}
	whole, recWhole := render(opts)
	require.Len(t, recWhole.pixels, 3*4*2)
	for _, f := range recWhole.pixels {
		assert.InDelta(t, 1, f, 1e-6)
	}

	opts.ChunkThreshold = 0
	opts.ChunkSize = 1
	chunked, recChunked := render(opts)
	assert.Equal(t, recWhole.raw, recChunked.raw)
	assert.Equal(t, whole, chunked)
}
