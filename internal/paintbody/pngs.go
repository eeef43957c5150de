package paintbody

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// toUnit maps v into [0, 1] by scale, with optional gamma (e.g. 0.7 brightens).
func toUnit(v, scale, gamma Real) Real {
	if !(v > 0) {
		return 0
	}
	n := math.Min(v*scale, 1)
	if gamma != 1 {
		n = math.Pow(n, 1.0/gamma)
	}
	return n
}

// RGBImage lays the result out as an 8-bit image. Colors are already in
// [0, 1] so no normalization is applied beyond gamma.
func (r *RenderResult) RGBImage(gamma Real) *image.NRGBA {
	w, h := r.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range r.RGB {
		p := i * 4
		img.Pix[p+0] = uint8(math.Round(toUnit(c[ChR], 1, gamma) * 255))
		img.Pix[p+1] = uint8(math.Round(toUnit(c[ChG], 1, gamma) * 255))
		img.Pix[p+2] = uint8(math.Round(toUnit(c[ChB], 1, gamma) * 255))
		img.Pix[p+3] = 255
	}
	return img
}

// gray16 lays a per-ray scalar out as a 16-bit image normalized by its max.
func (r *RenderResult) gray16(vals []Real) *image.Gray16 {
	w, h := r.Dims()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	peak := 0.0
	for _, v := range vals {
		if v > peak && isFinite(v) {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1 // avoid div-by-zero, the map is black anyway
	}
	for i, v := range vals {
		img.SetGray16(i%w, i/w, color.Gray16{Y: uint16(math.Round(toUnit(v, 1/peak, 1) * 65535))})
	}
	return img
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

// SavePNGs writes prefix_rgb.png (8-bit) and, when maps is set,
// prefix_depth.png and prefix_acc.png as 16-bit grayscale.
func SavePNGs(r *RenderResult, prefix string, gamma Real, maps bool) error {
	if err := writePNG(prefix+"_rgb.png", r.RGBImage(gamma)); err != nil {
		return err
	}
	if !maps {
		return nil
	}
	if err := writePNG(prefix+"_depth.png", r.gray16(r.Depth)); err != nil {
		return err
	}
	return writePNG(prefix+"_acc.png", r.gray16(r.Opacity))
}
