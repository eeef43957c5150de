package paintbody

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SaveRaw dumps a result as little-endian binary: int32 W, H, then
// float64 RGB (interleaved), opacity, depth and disparity, each in ray order.
func (r *RenderResult) SaveRaw(path string) error {
	n := r.Len()
	if len(r.Opacity) != n || len(r.Depth) != n || len(r.Disparity) != n {
		return shapeErrorf("result has %d colors, %d opacities, %d depths, %d disparities", n, len(r.Opacity), len(r.Depth), len(r.Disparity))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	width, height := r.Dims()
	for _, v := range []any{int32(width), int32(height), r.RGB, r.Opacity, r.Depth, r.Disparity} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return w.Flush()
}

// maxRawRays bounds what ReadRaw allocates from a header (4096×4096).
const maxRawRays = 1 << 24

// bytes per ray after the header: RGB, opacity, depth, disparity
const rawRayBytes = 6 * 8

// ReadRaw loads a dump written by SaveRaw. When rd can report its size
// (files, bytes and strings readers) the header must match it.
func ReadRaw(rd io.Reader) (*RenderResult, error) {
	var dims [2]int32
	if err := binary.Read(rd, binary.LittleEndian, &dims); err != nil {
		return nil, err
	}
	w, h := int64(dims[0]), int64(dims[1])
	if w < 0 || h < 0 {
		return nil, shapeErrorf("negative dimensions %dx%d", w, h)
	}
	if w*h > maxRawRays {
		return nil, errors.Wrapf(ErrResourceExhaustion, "raw dump of %dx%d rays exceeds %d", w, h, maxRawRays)
	}
	n := int(w * h)
	if rest, ok := remaining(rd); ok && rest != int64(n)*rawRayBytes {
		return nil, shapeErrorf("raw dump header %dx%d needs %d bytes, %d left", w, h, int64(n)*rawRayBytes, rest)
	}
	r := &RenderResult{
		Shape:     []int{int(h), int(w)},
		RGB:       make([][3]Real, n),
		Opacity:   make([]Real, n),
		Depth:     make([]Real, n),
		Disparity: make([]Real, n),
	}
	for _, v := range []any{r.RGB, r.Opacity, r.Depth, r.Disparity} {
		if err := binary.Read(rd, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// remaining reports the unread byte count of rd when it is knowable.
func remaining(rd io.Reader) (int64, bool) {
	switch v := rd.(type) {
	case interface{ Len() int }:
		return int64(v.Len()), true
	case *os.File:
		st, err := v.Stat()
		if err != nil || !st.Mode().IsRegular() {
			return 0, false
		}
		pos, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		return st.Size() - pos, true
	}
	return 0, false
}
