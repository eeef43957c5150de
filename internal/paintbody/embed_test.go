package paintbody

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyEmbedderDims(t *testing.T) {
	e := FrequencyEmbedder{XYZFreqs: XYZFreqs, ViewFreqs: ViewFreqs}
	assert.Equal(t, 63, e.XYZDim())
	assert.Equal(t, 27, e.ViewDim())
}

func TestFrequencyEmbedderLayout(t *testing.T) {
	e := FrequencyEmbedder{XYZFreqs: 2}
	dst := make([]Real, e.XYZDim())
	p := r3.Vector{X: 0.5, Y: -1, Z: 2}
	e.EmbedXYZ(p, dst)
	assert.Equal(t, []Real{0.5, -1, 2}, dst[:3])
	assert.InDelta(t, math.Sin(0.5), dst[3], 1e-15)
	assert.InDelta(t, math.Cos(2), dst[8], 1e-15)
	assert.InDelta(t, math.Sin(-2), dst[10], 1e-15)
	assert.InDelta(t, math.Cos(4), dst[14], 1e-15)
}

func TestEmbedViewDirsRepeatsPerSample(t *testing.T) {
	e := FrequencyEmbedder{ViewFreqs: 1}
	rays := []Ray{{Dir: r3.Vector{Z: 5}}, {Dir: r3.Vector{X: 2}}}
	emb := embedViewDirs(e, rays, 3)
	require.Equal(t, 6, emb.Len())
	assert.Equal(t, emb.Row(0), emb.Row(2))
	assert.Equal(t, []Real{0, 0, 1}, emb.Row(1)[:3])
	assert.Equal(t, []Real{1, 0, 0}, emb.Row(4)[:3])
	assert.Equal(t, 2, emb.Slice(1, 3).Len())
}
