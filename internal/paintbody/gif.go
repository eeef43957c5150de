package paintbody

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
)

// SaveAnimatedGIF writes one frame per rendered result, in order.
// delay is in 100ths of a second (e.g., 5 => 20 fps).
func SaveAnimatedGIF(results []*RenderResult, path string, delay int, gamma Real) error {
	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(results)),
		Delay:     make([]int, 0, len(results)),
		LoopCount: 0,
	}
	for k, r := range results {
		if k%imax(1, len(results)/100) == 0 {
			fmt.Printf("[GIF] %.2f%%\n", Real(k+1)*100/Real(len(results)))
		}
		rgba := r.RGBImage(gamma)
		pimg := image.NewPaletted(rgba.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), rgba, image.Point{})
		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, out)
}
