package paintbody

import (
	"math/rand"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Image is a C×H×W float32 picture with values nominally in [0, 1].
type Image struct {
	C, H, W int
	Data    []float32 // flat: (c*H+y)*W + x
}

// Size returns the (W, H) shape.
func (im *Image) Size() Size { return Size{W: im.W, H: im.H} }

// EncoderOutput holds the feature grids of one time step. Pixel is the
// higher resolution grid; it is only required at the first step.
type EncoderOutput struct {
	Holder *FeatureGrid
	Pixel  *FeatureGrid
}

// ImageEncoder turns the per-view images of one time step into feature
// grids. first is true only for the first time step.
type ImageEncoder interface {
	Encode(ex *Exec, images []*Image, first bool) (*EncoderOutput, error)
}

// PoolingEncoder average-pools images by a stride and lifts the pooled
// channels to the requested width: the first channels copy the pooled
// input, the rest are a fixed seeded linear mix of it.
type PoolingEncoder struct {
	HolderStride, PixelStride     int
	HolderChannels, PixelChannels int
	InChannels                    int

	holderMix [][]float32
	pixelMix  [][]float32
}

// NewPoolingEncoder builds an encoder for inChannels-channel images.
func NewPoolingEncoder(inChannels, holderStride, pixelStride, holderChannels, pixelChannels int, seed int64) (*PoolingEncoder, error) {
	if holderStride < 1 || pixelStride < 1 {
		return nil, errors.Errorf("encoder strides must be >= 1, got %d and %d", holderStride, pixelStride)
	}
	if inChannels < 1 || holderChannels < 1 || pixelChannels < 1 {
		return nil, errors.Errorf("encoder channels must be >= 1, got in=%d holder=%d pixel=%d", inChannels, holderChannels, pixelChannels)
	}
	rng := rand.New(rand.NewSource(seed))
	e := &PoolingEncoder{
		HolderStride:   holderStride,
		PixelStride:    pixelStride,
		HolderChannels: holderChannels,
		PixelChannels:  pixelChannels,
		InChannels:     inChannels,
	}
	e.holderMix = channelMix(rng, inChannels, holderChannels)
	e.pixelMix = channelMix(rng, inChannels, pixelChannels)
	DebugLog("Created pooling encoder strides=(%d, %d), channels=(%d, %d)", holderStride, pixelStride, holderChannels, pixelChannels)
	return e, nil
}

func channelMix(rng *rand.Rand, in, out int) [][]float32 {
	mix := make([][]float32, out)
	for o := range mix {
		mix[o] = make([]float32, in)
		if o < in {
			mix[o][o] = 1
			continue
		}
		for i := range mix[o] {
			mix[o][i] = float32(rng.NormFloat64())
		}
	}
	return mix
}

func (e *PoolingEncoder) Encode(ex *Exec, images []*Image, first bool) (*EncoderOutput, error) {
	if len(images) == 0 {
		return nil, shapeErrorf("no images to encode")
	}
	size := images[0].Size()
	for i, im := range images {
		if im.C != e.InChannels {
			return nil, shapeErrorf("image %d has %d channels, encoder takes %d", i, im.C, e.InChannels)
		}
		if im.Size() != size {
			return nil, shapeErrorf("image %d is %dx%d, image 0 is %dx%d", i, im.W, im.H, size.W, size.H)
		}
		if len(im.Data) != im.C*im.H*im.W {
			return nil, shapeErrorf("image %d has %d values, want %d", i, len(im.Data), im.C*im.H*im.W)
		}
	}
	out := &EncoderOutput{Holder: poolAndMix(images, e.HolderStride, e.holderMix)}
	if first {
		out.Pixel = poolAndMix(images, e.PixelStride, e.pixelMix)
	}
	return out, nil
}

func poolAndMix(images []*Image, stride int, mix [][]float32) *FeatureGrid {
	im0 := images[0]
	h := (im0.H + stride - 1) / stride
	w := (im0.W + stride - 1) / stride
	g := NewFeatureGrid(len(images), len(mix), h, w, r2.Point{})
	// a pooled grid covers the full image, so the image-space scale applies
	g.Scale = CornerAlignedScale(im0.Size())
	pooled := make([]float32, im0.C)
	for n, im := range images {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				poolCell(im, x*stride, y*stride, stride, pooled)
				for c, row := range mix {
					var v float32
					for i, wgt := range row {
						v += wgt * pooled[i]
					}
					g.Set(n, c, y, x, v)
				}
			}
		}
	}
	return g
}

func poolCell(im *Image, x0, y0, stride int, dst []float32) {
	x1, y1 := imin(x0+stride, im.W), imin(y0+stride, im.H)
	inv := 1 / float32((x1-x0)*(y1-y0))
	for c := 0; c < im.C; c++ {
		var s float32
		for y := y0; y < y1; y++ {
			row := (c*im.H + y) * im.W
			for x := x0; x < x1; x++ {
				s += im.Data[row+x]
			}
		}
		dst[c] = s * inv
	}
}
