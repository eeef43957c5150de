package paintbody

import "github.com/golang/geo/r2"

// Size is an image shape in (W, H) order, matching uv = (x, y).
type Size struct {
	W, H int
}

// FeatureGrid is an N×C×H×W float32 tensor, one slab per view, paired with
// the uv scale that addresses it. A scale must only be used with the grid
// it was produced for.
type FeatureGrid struct {
	N, C, H, W int
	Data       []float32 // flat: ((n*C+c)*H+y)*W + x
	Scale      r2.Point
}

// NewFeatureGrid allocates a zeroed grid.
func NewFeatureGrid(n, c, h, w int, scale r2.Point) *FeatureGrid {
	return &FeatureGrid{N: n, C: c, H: h, W: w, Data: make([]float32, n*c*h*w), Scale: scale}
}

func (g *FeatureGrid) idx(n, c, y, x int) int {
	return ((n*g.C+c)*g.H+y)*g.W + x
}

// At returns the texel value of view n, channel c at (x, y).
func (g *FeatureGrid) At(n, c, y, x int) float32 { return g.Data[g.idx(n, c, y, x)] }

// Set stores a texel value.
func (g *FeatureGrid) Set(n, c, y, x int, v float32) { g.Data[g.idx(n, c, y, x)] = v }

// Fill sets every texel to v.
func (g *FeatureGrid) Fill(v float32) {
	for i := range g.Data {
		g.Data[i] = v
	}
}

func (g *FeatureGrid) validate(views int) error {
	if g == nil {
		return shapeErrorf("missing feature grid")
	}
	if g.N != views {
		return shapeErrorf("feature grid has %d views, batch has %d", g.N, views)
	}
	if g.C <= 0 || g.H <= 0 || g.W <= 0 {
		return shapeErrorf("feature grid has empty shape %dx%dx%d", g.C, g.H, g.W)
	}
	if len(g.Data) != g.N*g.C*g.H*g.W {
		return shapeErrorf("feature grid data has %d values, want %d", len(g.Data), g.N*g.C*g.H*g.W)
	}
	return nil
}

// CornerAlignedScale returns the scale for which pixel 0 maps to -1 and
// pixel size-1 maps to +1 under uv*(scale/size) - 1.
func CornerAlignedScale(size Size) r2.Point {
	return r2.Point{
		X: 2 * Real(size.W) / Real(imax(size.W-1, 1)),
		Y: 2 * Real(size.H) / Real(imax(size.H-1, 1)),
	}
}
