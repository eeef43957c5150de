package paintbody

import (
	"github.com/chewxy/math32"
	"github.com/golang/geo/r2"
)

// SampleGrid bilinearly samples view n of g at pixel coordinates uv taken
// in an image of the given size. Coordinates are normalized with
// uv*(scale/size) - 1, corner aligned (-1 and +1 hit the outer texel
// centers) and clamped to the border. The result is points×C, written into
// dst when it is large enough.
func SampleGrid(g *FeatureGrid, n int, size Size, uv []r2.Point, dst []float32) []float32 {
	C, H, W := g.C, g.H, g.W
	if cap(dst) < len(uv)*C {
		dst = make([]float32, len(uv)*C)
	}
	dst = dst[:len(uv)*C]

	fx := float32(g.Scale.X) / float32(size.W)
	fy := float32(g.Scale.Y) / float32(size.H)
	plane := H * W
	base := n * C * plane

	for i, p := range uv {
		ix := unnormalize(float32(p.X)*fx-1, W)
		iy := unnormalize(float32(p.Y)*fy-1, H)

		x0f, y0f := math32.Floor(ix), math32.Floor(iy)
		tx, ty := ix-x0f, iy-y0f
		x0, y0 := int(x0f), int(y0f)
		x1, y1 := x0+1, y0+1

		wNW := (1 - tx) * (1 - ty)
		wNE := tx * (1 - ty)
		wSW := (1 - tx) * ty
		wSE := tx * ty
		inX1, inY1 := x1 < W, y1 < H

		out := dst[i*C : (i+1)*C]
		for c := 0; c < C; c++ {
			off := base + c*plane
			v := g.Data[off+y0*W+x0] * wNW
			if inX1 {
				v += g.Data[off+y0*W+x1] * wNE
			}
			if inY1 {
				v += g.Data[off+y1*W+x0] * wSW
				if inX1 {
					v += g.Data[off+y1*W+x1] * wSE
				}
			}
			out[c] = v
		}
	}
	return dst
}

// unnormalize maps [-1, 1] onto [0, size-1] and clamps to the border.
// NaN lands on texel 0.
func unnormalize(g float32, size int) float32 {
	x := (g + 1) / 2 * float32(size-1)
	if math32.IsNaN(x) || x < 0 {
		return 0
	}
	if hi := float32(size - 1); x > hi {
		return hi
	}
	return x
}
