package paintbody

import (
	"encoding/json"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MatrixInfo is a row-major matrix as stored in batch files.
type MatrixInfo struct {
	Shape [2]int `json:"shape"`
	Data  []Real `json:"data"`
}

// Dense converts m to a gonum matrix.
func (m MatrixInfo) Dense() (*mat.Dense, error) {
	r, c := m.Shape[0], m.Shape[1]
	if r < 1 || c < 1 || len(m.Data) != r*c {
		return nil, shapeErrorf("matrix shape %v does not match %d values", m.Shape, len(m.Data))
	}
	return mat.NewDense(r, c, append([]Real(nil), m.Data...)), nil
}

// Vec3 is an (x, y, z) triple.
type Vec3 [3]Real

func (v Vec3) r3() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

// ViewFile is one input camera: world→camera R and T, intrinsics K.
type ViewFile struct {
	R MatrixInfo `json:"R"`
	T Vec3       `json:"T"`
	K MatrixInfo `json:"K"`
}

func (vf ViewFile) view() (View, error) {
	R, err := vf.R.Dense()
	if err != nil {
		return View{}, errors.Wrap(err, "R")
	}
	K, err := vf.K.Dense()
	if err != nil {
		return View{}, errors.Wrap(err, "K")
	}
	return View{R: R, T: vf.T.r3(), K: K}, nil
}

// TargetFile describes the target camera; its pixels become the rays.
type TargetFile struct {
	ViewFile
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RayFile is one explicit ray. Zero near and far are taken from the volume box.
type RayFile struct {
	Origin Vec3 `json:"origin"`
	Dir    Vec3 `json:"dir"`
	Near   Real `json:"near,omitempty"`
	Far    Real `json:"far,omitempty"`
}

// VolumeFile is the sparse occupancy of the body and its world box.
type VolumeFile struct {
	Coords    []VoxelCoord `json:"coords"` // z, y, x
	Features  [][]float32  `json:"features,omitempty"`
	OutShape  [3]int       `json:"outShape"` // d, h, w
	BoundsMin Vec3         `json:"boundsMin"`
	BoundsMax Vec3         `json:"boundsMax"`
}

// AugmentFile is the training augmentation of canonical points.
type AugmentFile struct {
	Center Vec3       `json:"center"`
	Rot    MatrixInfo `json:"rot"`
	Trans  Vec3       `json:"trans"`
}

// BatchFile is the JSON form of a Batch. Image paths are relative to the
// batch file. Exactly one of Rays and Target should be given.
type BatchFile struct {
	Images   [][]string   `json:"images"` // [t][view] PNG paths
	Views    []ViewFile   `json:"views"`
	Vertices [][]Vec3     `json:"vertices"`
	VisMasks [][][]bool   `json:"visMasks,omitempty"`
	Th       Vec3         `json:"Th"`
	R        MatrixInfo   `json:"R"`
	Volume   VolumeFile   `json:"volume"`
	Rays     []RayFile    `json:"rays,omitempty"`
	RayShape []int        `json:"rayShape,omitempty"`
	Target   *TargetFile  `json:"target,omitempty"`
	Augment  *AugmentFile `json:"augment,omitempty"`
}

// LoadBatch reads a batch JSON file and the images it references.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bf BatchFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, errors.Wrapf(err, "decode batch %s", path)
	}
	b, err := bf.Batch(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "batch %s", path)
	}
	DebugLog("Loaded batch from %s: views=%d, timeSteps=%d, rays=%d", path, len(b.Views), len(b.Images), len(b.Rays))
	return b, nil
}

// Batch converts the file form, resolving image paths against dir.
func (bf *BatchFile) Batch(dir string) (*Batch, error) {
	b := &Batch{
		Th:       bf.Th.r3(),
		VisMasks: bf.VisMasks,
		RayShape: bf.RayShape,
	}
	for i, vf := range bf.Views {
		v, err := vf.view()
		if err != nil {
			return nil, errors.Wrapf(err, "view %d", i)
		}
		b.Views = append(b.Views, v)
	}
	for t, paths := range bf.Images {
		ims := make([]*Image, len(paths))
		for vi, p := range paths {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			im, err := LoadImage(p)
			if err != nil {
				return nil, errors.Wrapf(err, "time step %d view %d", t, vi)
			}
			ims[vi] = im
		}
		b.Images = append(b.Images, ims)
	}
	for _, vs := range bf.Vertices {
		pts := make([]r3.Vector, len(vs))
		for i, v := range vs {
			pts[i] = v.r3()
		}
		b.Vertices = append(b.Vertices, pts)
	}
	R, err := bf.R.Dense()
	if err != nil {
		return nil, errors.Wrap(err, "canonical R")
	}
	b.R = R
	b.Volume = SparseVolume{
		Coords:    bf.Volume.Coords,
		Features:  bf.Volume.Features,
		OutShape:  bf.Volume.OutShape,
		BoundsMin: bf.Volume.BoundsMin.r3(),
		BoundsMax: bf.Volume.BoundsMax.r3(),
	}
	if bf.Augment != nil {
		rot, err := bf.Augment.Rot.Dense()
		if err != nil {
			return nil, errors.Wrap(err, "augmentation rotation")
		}
		b.Augment = &Augmentation{Center: bf.Augment.Center.r3(), Rot: rot, Trans: bf.Augment.Trans.r3()}
	}
	switch {
	case bf.Target != nil && len(bf.Rays) > 0:
		return nil, conflictErrorf("batch gives both rays and a target camera")
	case bf.Target != nil:
		v, err := bf.Target.view()
		if err != nil {
			return nil, errors.Wrap(err, "target")
		}
		if b.Rays, err = RaysFromCamera(v, Size{W: bf.Target.Width, H: bf.Target.Height}); err != nil {
			return nil, errors.Wrap(err, "target")
		}
		b.RayShape = []int{bf.Target.Height, bf.Target.Width}
	default:
		for _, rf := range bf.Rays {
			b.Rays = append(b.Rays, Ray{Origin: rf.Origin.r3(), Dir: rf.Dir.r3(), Near: rf.Near, Far: rf.Far})
		}
	}
	return b, nil
}

// LoadImage decodes an image file into a 3×H×W picture in [0, 1].
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return FromImage(src), nil
}

// FromImage converts any image.Image into a 3-channel float picture.
func FromImage(src image.Image) *Image {
	bb := src.Bounds()
	w, h := bb.Dx(), bb.Dy()
	im := &Image{C: 3, H: h, W: w, Data: make([]float32, 3*h*w)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			o := y*w + x
			im.Data[o] = float32(r) / 0xffff
			im.Data[h*w+o] = float32(g) / 0xffff
			im.Data[2*h*w+o] = float32(b) / 0xffff
		}
	}
	return im
}
