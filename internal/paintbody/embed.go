package paintbody

import (
	"math"

	"github.com/golang/geo/r3"
)

// PositionalEmbedder encodes points and unit view directions into fixed
// size vectors.
type PositionalEmbedder interface {
	XYZDim() int
	ViewDim() int
	EmbedXYZ(p r3.Vector, dst []Real)
	EmbedView(d r3.Vector, dst []Real)
}

// Embedding is a flat Points×Dim matrix of encodings.
type Embedding struct {
	Dim  int
	Data []Real
}

// Row returns the encoding of point i.
func (e *Embedding) Row(i int) []Real { return e.Data[i*e.Dim : (i+1)*e.Dim] }

// Len is the number of encoded points.
func (e *Embedding) Len() int {
	if e.Dim == 0 {
		return 0
	}
	return len(e.Data) / e.Dim
}

// Slice returns the rows [lo, hi) without copying.
func (e *Embedding) Slice(lo, hi int) *Embedding {
	return &Embedding{Dim: e.Dim, Data: e.Data[lo*e.Dim : hi*e.Dim]}
}

// FrequencyEmbedder is the NeRF encoding: the input followed by
// sin(2^k x), cos(2^k x) for k < freqs, each over the three axes.
type FrequencyEmbedder struct {
	XYZFreqs  int
	ViewFreqs int
}

func frequencyDim(freqs int) int { return 3 + 3*2*freqs }

func (f FrequencyEmbedder) XYZDim() int  { return frequencyDim(f.XYZFreqs) }
func (f FrequencyEmbedder) ViewDim() int { return frequencyDim(f.ViewFreqs) }

func (f FrequencyEmbedder) EmbedXYZ(p r3.Vector, dst []Real)  { encodeFrequencies(p, f.XYZFreqs, dst) }
func (f FrequencyEmbedder) EmbedView(d r3.Vector, dst []Real) { encodeFrequencies(d, f.ViewFreqs, dst) }

func encodeFrequencies(v r3.Vector, freqs int, dst []Real) {
	dst[0], dst[1], dst[2] = v.X, v.Y, v.Z
	o := 3
	for k := 0; k < freqs; k++ {
		f := math.Ldexp(1, k)
		dst[o+0], dst[o+1], dst[o+2] = math.Sin(v.X*f), math.Sin(v.Y*f), math.Sin(v.Z*f)
		dst[o+3], dst[o+4], dst[o+5] = math.Cos(v.X*f), math.Cos(v.Y*f), math.Cos(v.Z*f)
		o += 6
	}
}

// embedPoints encodes every point.
func embedPoints(e PositionalEmbedder, pts []r3.Vector) *Embedding {
	out := &Embedding{Dim: e.XYZDim(), Data: make([]Real, len(pts)*e.XYZDim())}
	for i, p := range pts {
		e.EmbedXYZ(p, out.Row(i))
	}
	return out
}

// embedViewDirs encodes each ray's unit direction once and repeats it for
// the ray's n samples.
func embedViewDirs(e PositionalEmbedder, rays []Ray, n int) *Embedding {
	dim := e.ViewDim()
	out := &Embedding{Dim: dim, Data: make([]Real, len(rays)*n*dim)}
	enc := make([]Real, dim)
	for ri, r := range rays {
		e.EmbedView(r.Dir.Normalize(), enc)
		for s := 0; s < n; s++ {
			copy(out.Row(ri*n+s), enc)
		}
	}
	return out
}
