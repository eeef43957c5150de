package paintbody

import (
	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"
)

// PixelFeatures are pixel-aligned features of sample points, Views×Points×C.
type PixelFeatures struct {
	Views, Points, C int
	Data             []float32 // flat: (view*Points+point)*C + c
}

// Row returns the feature of point i sampled from view v.
func (p *PixelFeatures) Row(v, i int) []float32 {
	off := (v*p.Points + i) * p.C
	return p.Data[off : off+p.C]
}

// PixelAligned projects pts into every view and samples that view's slab of
// grid. dst is reused when it holds Views×len(pts)×C values.
func PixelAligned(ex *Exec, pts []r3.Vector, views []View, grid *FeatureGrid, size Size, policy ProjectionPolicy, dst []float32) (*PixelFeatures, error) {
	if err := grid.validate(len(views)); err != nil {
		return nil, err
	}
	n := len(views) * len(pts) * grid.C
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	pf := &PixelFeatures{Views: len(views), Points: len(pts), C: grid.C, Data: dst[:n]}
	per := len(pts) * grid.C
	var g errgroup.Group
	g.SetLimit(ex.workers())
	for vi := range views {
		g.Go(func() error {
			uv, err := projectView(ex, pts, views[vi], vi, policy)
			if err != nil {
				return err
			}
			SampleGrid(grid, vi, size, uv, pf.Data[vi*per:(vi+1)*per])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pf, nil
}
