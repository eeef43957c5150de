package paintbody

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func eye3() *mat.Dense { return mat.NewDense(3, 3, []Real{1, 0, 0, 0, 1, 0, 0, 0, 1}) }

func intrinsics(f, cx, cy Real) *mat.Dense {
	return mat.NewDense(3, 3, []Real{f, 0, cx, 0, f, cy, 0, 0, 1})
}

// frontView looks down +z at the origin from distance dist, shifted by dx.
func frontView(dx, dist Real) View {
	return View{R: eye3(), T: r3.Vector{X: dx, Z: dist}, K: intrinsics(8, 8, 8)}
}

func gradientImage(c, h, w int, offset float32) *Image {
	im := &Image{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
	for ch := 0; ch < c; ch++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				im.Data[(ch*h+y)*w+x] = offset + float32(ch+1)*0.1 + float32(x)/float32(w) + float32(y)/float32(2*h)
			}
		}
	}
	return im
}

func cubeVertices(n int, shift Real) []r3.Vector {
	out := make([]r3.Vector, n)
	for i := range out {
		t := Real(i) / Real(n)
		out[i] = r3.Vector{X: t - 0.5 + shift, Y: 0.4 - t*0.8, Z: (t - 0.5) * 0.6}
	}
	return out
}

// testBatch is a small synthetic scene: two views 4 units in front of the
// origin, a 2-unit volume box and a 4×3 target camera looking through it.
func testBatch(t *testing.T, timeSteps int, masked bool) *Batch {
	t.Helper()
	views := []View{frontView(0, 4), frontView(0.3, 4)}
	b := &Batch{
		Views: views,
		Th:    r3.Vector{X: 0.1},
		R:     eye3(),
		Volume: SparseVolume{
			Coords:    []VoxelCoord{{1, 2, 3}, {4, 5, 6}},
			OutShape:  [3]int{20, 20, 20},
			BoundsMin: r3.Vector{X: -1, Y: -1, Z: -1},
			BoundsMax: r3.Vector{X: 1, Y: 1, Z: 1},
		},
	}
	for ti := 0; ti < timeSteps; ti++ {
		b.Images = append(b.Images, []*Image{
			gradientImage(3, 16, 16, float32(ti)*0.05),
			gradientImage(3, 16, 16, 0.2+float32(ti)*0.05),
		})
		b.Vertices = append(b.Vertices, cubeVertices(12, Real(ti)*0.01))
		if masked {
			m := make([][]bool, len(views))
			for vi := range m {
				m[vi] = make([]bool, 12)
				for i := range m[vi] {
					m[vi][i] = (i+vi+ti)%3 != 0
				}
			}
			b.VisMasks = append(b.VisMasks, m)
		}
	}
	target := View{R: eye3(), T: r3.Vector{Z: 4}, K: intrinsics(100, 1.5, 1)}
	rays, err := RaysFromCamera(target, Size{W: 4, H: 3})
	require.NoError(t, err)
	b.Rays = rays
	b.RayShape = []int{3, 4}
	return b
}

func testOptions(timeSteps int, agg AggregationStrategy) Options {
	o := DefaultOptions()
	o.NSamples = 5
	o.TimeSteps = timeSteps
	o.Aggregation = agg
	o.EmbedSize = 4
	o.VoxelSize = [3]Real{0.1, 0.1, 0.1}
	return o
}

func testRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	enc, err := NewPoolingEncoder(3, 4, 2, opts.EmbedSize, 6, 1)
	require.NoError(t, err)
	emb := FrequencyEmbedder{XYZFreqs: 2, ViewFreqs: 1}
	head, err := NewLinearHead(6, opts.EmbedSize, emb.XYZDim(), emb.ViewDim(), 2)
	require.NoError(t, err)
	// keep the synthetic scene mostly opaque
	head.b[ChSigma] = 2
	r, err := NewRenderer(opts, enc, emb, head, Raw2Outputs{})
	require.NoError(t, err)
	return r
}
