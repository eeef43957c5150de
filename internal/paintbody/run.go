package paintbody

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// NewReferenceRenderer builds a renderer from cfg using the built-in
// pooling encoder, frequency embedder, linear head and Raw2Outputs.
func NewReferenceRenderer(cfg *Config) (*Renderer, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	ref := cfg.Reference
	enc, err := NewPoolingEncoder(3, ref.HolderStride, ref.PixelStride, opts.EmbedSize, ref.PixelChannels, ref.Seed)
	if err != nil {
		return nil, err
	}
	emb := FrequencyEmbedder{XYZFreqs: ref.XYZFreqs, ViewFreqs: ref.ViewFreqs}
	head, err := NewLinearHead(ref.PixelChannels, opts.EmbedSize, emb.XYZDim(), emb.ViewDim(), ref.Seed+1)
	if err != nil {
		return nil, err
	}
	return NewRenderer(opts, enc, emb, head, Raw2Outputs{})
}

// NewExecFromConfig returns an Exec seeded, sized and bounded by cfg.
func NewExecFromConfig(cfg *Config) *Exec {
	ex := NewExec(cfg.Seed)
	if cfg.Workers > 0 {
		ex.Workers = cfg.Workers
	} else {
		ex.Workers = runtime.NumCPU()
	}
	ex.MaxScratch = cfg.MaxScratch
	return ex
}

// Run renders every batch file in Eval mode with the reference renderer and
// writes the outputs configured in cfg.Output.
func Run(cfg *Config, batchPaths []string) ([]*RenderResult, error) {
	if len(batchPaths) == 0 {
		return nil, errors.New("no batch files to render")
	}
	r, err := NewReferenceRenderer(cfg)
	if err != nil {
		return nil, err
	}
	ex := NewExecFromConfig(cfg)
	results := make([]*RenderResult, 0, len(batchPaths))
	for i, path := range batchPaths {
		b, err := LoadBatch(path)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := r.Render(ex, b, Eval)
		if err != nil {
			return nil, errors.Wrapf(err, "render %s", path)
		}
		ex.log().Info("rendered batch", "batch", i, "path", path, "rays", res.Len(), "elapsed", time.Since(start))

		prefix := filepath.Join(cfg.Output.Dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if err := SavePNGs(res, prefix, cfg.Output.Gamma, cfg.Output.PNG16); err != nil {
			return nil, err
		}
		DebugLog("Saved PNGs with prefix: %s", prefix)
		if cfg.Output.Raw {
			if err := res.SaveRaw(prefix + ".raw"); err != nil {
				return nil, err
			}
			DebugLog("Saved raw dump: %s.raw", prefix)
		}
		results = append(results, res)
	}
	if len(results) > 1 && sameDims(results) {
		path := filepath.Join(cfg.Output.Dir, "render.gif")
		if err := SaveAnimatedGIF(results, path, cfg.Output.GIFDelay, cfg.Output.Gamma); err != nil {
			return nil, err
		}
		DebugLog("Saved animated GIF: %s", path)
	}
	return results, nil
}

func sameDims(results []*RenderResult) bool {
	w0, h0 := results[0].Dims()
	for _, r := range results[1:] {
		if w, h := r.Dims(); w != w0 || h != h0 {
			return false
		}
	}
	return true
}
