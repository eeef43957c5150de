package paintbody

import (
	"math"

	"github.com/golang/geo/r3"
)

// Real is the scalar type of all geometry. Feature tensors stay float32.
type Real = float64

func isFinite(x Real) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func isFiniteVec(v r3.Vector) bool { return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z) }

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func imin(a, b int) int {
	if a < b {
		return a
	}
	return b
}
