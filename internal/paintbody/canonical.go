package paintbody

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Augmentation is the training-time jitter of sample points: an in-plane
// rotation of (x, z) about Center followed by a translation.
type Augmentation struct {
	Center r3.Vector
	Rot    mat.Matrix // 2×2, acts on the (x, z) columns
	Trans  r3.Vector
}

func pointsDense(pts []r3.Vector, offset r3.Vector) *mat.Dense {
	data := make([]Real, 0, len(pts)*3)
	for _, p := range pts {
		data = append(data, p.X-offset.X, p.Y-offset.Y, p.Z-offset.Z)
	}
	return mat.NewDense(len(pts), 3, data)
}

// ToCanonical subtracts the global translation th, then right-multiplies the
// row points by R: (p - th)·R. The order is fixed; it is not the inverse
// transform.
func ToCanonical(pts []r3.Vector, th r3.Vector, R mat.Matrix) ([]r3.Vector, error) {
	if R == nil {
		return nil, shapeErrorf("canonical rotation missing")
	}
	if r, c := R.Dims(); r != 3 || c != 3 {
		return nil, shapeErrorf("canonical rotation must be 3x3, got %dx%d", r, c)
	}
	out := make([]r3.Vector, len(pts))
	if len(pts) == 0 {
		return out, nil
	}
	var Y mat.Dense
	Y.Mul(pointsDense(pts, th), R)
	for i := range out {
		out[i] = r3.Vector{X: Y.At(i, 0), Y: Y.At(i, 1), Z: Y.At(i, 2)}
	}
	return out, nil
}

// Augment recenters about aug.Center, rotates the (x, z) columns by
// aug.Rot (rows·Rotᵀ) leaving y untouched, re-adds the center and adds
// aug.Trans. It returns pts unchanged when disabled or aug is nil.
func Augment(pts []r3.Vector, aug *Augmentation, enabled bool) ([]r3.Vector, error) {
	if !enabled || aug == nil || len(pts) == 0 {
		return pts, nil
	}
	if aug.Rot == nil {
		return nil, shapeErrorf("augmentation rotation missing")
	}
	if r, c := aug.Rot.Dims(); r != 2 || c != 2 {
		return nil, shapeErrorf("augmentation rotation must be 2x2, got %dx%d", r, c)
	}
	xz := mat.NewDense(len(pts), 2, nil)
	for i, p := range pts {
		xz.Set(i, 0, p.X-aug.Center.X)
		xz.Set(i, 1, p.Z-aug.Center.Z)
	}
	var rot mat.Dense
	rot.Mul(xz, aug.Rot.T())
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		out[i] = r3.Vector{
			X: rot.At(i, 0) + aug.Center.X + aug.Trans.X,
			Y: p.Y + aug.Trans.Y,
			Z: rot.At(i, 1) + aug.Center.Z + aug.Trans.Z,
		}
	}
	return out, nil
}

// GridCoords converts canonical points to the [-1, 1] query coordinates of
// the sparse volume. The volume is indexed depth-height-width (z, y, x), so
// voxelSize and outShape are given in that order; the returned queries are
// in width-height-depth order (X=w, Y=h, Z=d).
func GridCoords(pts []r3.Vector, boundsMin r3.Vector, voxelSize [3]Real, outShape [3]int) ([]r3.Vector, error) {
	for a := 0; a < 3; a++ {
		if voxelSize[a] <= 0 {
			return nil, errors.Errorf("voxel size must be positive, got %v", voxelSize)
		}
		if outShape[a] <= 0 {
			return nil, shapeErrorf("volume out shape must be positive, got %v", outShape)
		}
	}
	minDHW := [3]Real{boundsMin.Z, boundsMin.Y, boundsMin.X}
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		dhw := [3]Real{p.Z, p.Y, p.X}
		for a := range dhw {
			dhw[a] = (dhw[a]-minDHW[a])/voxelSize[a]/Real(outShape[a])*2 - 1
		}
		out[i] = r3.Vector{X: dhw[2], Y: dhw[1], Z: dhw[0]}
	}
	return out, nil
}
