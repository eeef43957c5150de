package paintbody

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestIsFinite(t *testing.T) {
	if !isFinite(1) || isFinite(math.Inf(-1)) || isFinite(math.NaN()) {
		t.Fatal("isFinite failed")
	}
	if !isFiniteVec(r3.Vector{X: 1, Y: 2, Z: 3}) || isFiniteVec(r3.Vector{Y: math.NaN()}) {
		t.Fatal("isFiniteVec failed")
	}
}

func TestIMinIMax(t *testing.T) {
	if imax(3, 5) != 5 || imax(5, 3) != 5 || imin(3, 5) != 3 || imin(5, 3) != 3 {
		t.Fatal("imin/imax failed")
	}
}
