package paintbody

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func assertVec(t *testing.T, want, got r3.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Z, got.Z, 1e-12)
}

func TestToCanonicalSubtractThenRowMultiply(t *testing.T) {
	R := mat.NewDense(3, 3, []Real{0, 1, 0, -1, 0, 0, 0, 0, 1})
	out, err := ToCanonical([]r3.Vector{{X: 2, Y: 1, Z: 3}}, r3.Vector{X: 1, Y: 1, Z: 1}, R)
	require.NoError(t, err)
	// (1, 0, 2)·R = 1*row0 + 2*row2
	assertVec(t, r3.Vector{X: 0, Y: 1, Z: 2}, out[0])
}

func TestToCanonicalRejectsBadRotation(t *testing.T) {
	_, err := ToCanonical([]r3.Vector{{}}, r3.Vector{}, mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = ToCanonical([]r3.Vector{{}}, r3.Vector{}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestAugment(t *testing.T) {
	pts := []r3.Vector{{X: 1, Y: 5, Z: 0}}
	aug := &Augmentation{
		Center: r3.Vector{},
		Rot:    mat.NewDense(2, 2, []Real{0, -1, 1, 0}),
		Trans:  r3.Vector{X: 0.5, Y: 0.25, Z: -1},
	}
	same, err := Augment(pts, aug, false)
	require.NoError(t, err)
	assert.Equal(t, pts, same)

	out, err := Augment(pts, aug, true)
	require.NoError(t, err)
	// (x, z)·Rotᵀ = (-z, x)
	assertVec(t, r3.Vector{X: 0.5, Y: 5.25, Z: 0}, out[0])

	aug.Center = r3.Vector{X: 1, Y: 100, Z: 1}
	out, err = Augment(pts, aug, true)
	require.NoError(t, err)
	// (0, -1) → (1, 0), re-centered
	assertVec(t, r3.Vector{X: 2.5, Y: 5.25, Z: 0}, out[0])
}

func TestGridCoords(t *testing.T) {
	pts := []r3.Vector{{}, {X: 2, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 4}}
	out, err := GridCoords(pts, r3.Vector{}, [3]Real{0.5, 0.5, 0.5}, [3]int{8, 4, 4})
	require.NoError(t, err)
	assertVec(t, r3.Vector{X: -1, Y: -1, Z: -1}, out[0])
	assertVec(t, r3.Vector{X: 1, Y: 0, Z: -1}, out[1])
	assertVec(t, r3.Vector{X: -1, Y: -1, Z: 1}, out[2])
}

func TestGridCoordsAnisotropicVoxel(t *testing.T) {
	// voxel size is d, h, w
	out, err := GridCoords([]r3.Vector{{X: 1, Y: 1, Z: 1}}, r3.Vector{}, [3]Real{1, 0.5, 0.25}, [3]int{2, 4, 8})
	require.NoError(t, err)
	assertVec(t, r3.Vector{X: 0, Y: 0, Z: 0}, out[0])
}

func TestGridCoordsRejectsBadShape(t *testing.T) {
	_, err := GridCoords(nil, r3.Vector{}, [3]Real{0, 1, 1}, [3]int{1, 1, 1})
	assert.Error(t, err)
	_, err = GridCoords(nil, r3.Vector{}, [3]Real{1, 1, 1}, [3]int{1, 0, 1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
