package paintbody

import (
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// View is one input camera: world→camera rotation R, translation T and
// intrinsics K. Views are indexed consistently across every per-view input.
type View struct {
	R mat.Matrix
	T r3.Vector
	K mat.Matrix
}

// ProjectionPolicy decides what happens to points with camera depth <= 0.
type ProjectionPolicy uint8

const (
	// ProjectFail returns ErrDegenerateProjection.
	ProjectFail ProjectionPolicy = iota
	// ProjectClamp clamps depth to minDepth and reports the count.
	ProjectClamp
)

func (p ProjectionPolicy) String() string {
	if p == ProjectClamp {
		return "clamp"
	}
	return "fail"
}

// ParseProjectionPolicy accepts "fail" (or empty) and "clamp".
func ParseProjectionPolicy(s string) (ProjectionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "fail":
		return ProjectFail, nil
	case "clamp":
		return ProjectClamp, nil
	}
	return ProjectFail, errors.Errorf("unknown projection policy %q (want fail|clamp)", s)
}

// row-major 3×3 copy of a gonum matrix for the per-point loops
type mat3 [3][3]Real

func toMat3(m mat.Matrix) (mat3, error) {
	var out mat3
	if m == nil {
		return out, shapeErrorf("missing 3x3 matrix")
	}
	if r, c := m.Dims(); r != 3 || c != 3 {
		return out, shapeErrorf("want 3x3 matrix, got %dx%d", r, c)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out, nil
}

func (m mat3) mulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (v View) validate(i int) error {
	if _, err := toMat3(v.R); err != nil {
		return errors.Wrapf(err, "view %d rotation", i)
	}
	if _, err := toMat3(v.K); err != nil {
		return errors.Wrapf(err, "view %d intrinsics", i)
	}
	if mat.Det(v.K) == 0 {
		return shapeErrorf("view %d intrinsics are singular", i)
	}
	if !isFiniteVec(v.T) {
		return shapeErrorf("view %d translation is not finite: %v", i, v.T)
	}
	return nil
}

// Project maps world points into pixel coordinates of every view.
// Result is indexed [view][point].
func Project(ex *Exec, pts []r3.Vector, views []View, policy ProjectionPolicy) ([][]r2.Point, error) {
	uv := make([][]r2.Point, len(views))
	for vi, v := range views {
		out, err := projectView(ex, pts, v, vi, policy)
		if err != nil {
			return nil, err
		}
		uv[vi] = out
	}
	return uv, nil
}

// projectView applies R·p, then +T, then K·p, and divides x,y by z.
func projectView(ex *Exec, pts []r3.Vector, v View, vi int, policy ProjectionPolicy) ([]r2.Point, error) {
	R, err := toMat3(v.R)
	if err != nil {
		return nil, errors.Wrapf(err, "view %d rotation", vi)
	}
	K, err := toMat3(v.K)
	if err != nil {
		return nil, errors.Wrapf(err, "view %d intrinsics", vi)
	}
	out := make([]r2.Point, len(pts))
	clamped := 0
	for i, p := range pts {
		c := K.mulVec(R.mulVec(p).Add(v.T))
		if !(c.Z > 0) {
			if policy != ProjectClamp {
				return nil, errors.Wrapf(ErrDegenerateProjection, "view %d point %d %v has camera depth %g", vi, i, p, c.Z)
			}
			c.Z = minDepth
			clamped++
		}
		out[i] = r2.Point{X: c.X / c.Z, Y: c.Y / c.Z}
	}
	if clamped > 0 {
		ex.log().Warn("clamped projection depth", "view", vi, "points", clamped, "of", len(pts))
		ex.trace("project.clamp", "view", vi, "points", clamped)
	}
	return out, nil
}

// RaysFromCamera returns one ray per pixel of a size.W×size.H target view,
// row-major, starting at the camera center with a unit direction through
// the pixel corner (u, v). Bounds are left zero for BoundRays.
func RaysFromCamera(v View, size Size) ([]Ray, error) {
	if err := v.validate(0); err != nil {
		return nil, err
	}
	if size.W < 1 || size.H < 1 {
		return nil, shapeErrorf("target size must be positive, got %dx%d", size.W, size.H)
	}
	var kinv mat.Dense
	if err := kinv.Inverse(v.K); err != nil {
		return nil, errors.Wrap(ErrShapeMismatch, "target intrinsics are not invertible")
	}
	Kinv, _ := toMat3(&kinv)
	Rt, _ := toMat3(v.R.T())
	origin := Rt.mulVec(v.T).Mul(-1)
	rays := make([]Ray, 0, size.W*size.H)
	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			d := Rt.mulVec(Kinv.mulVec(r3.Vector{X: Real(x), Y: Real(y), Z: 1}))
			rays = append(rays, Ray{Origin: origin, Dir: d.Normalize()})
		}
	}
	return rays, nil
}
