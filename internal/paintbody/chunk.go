package paintbody

import "github.com/pkg/errors"

// EvaluateChunked splits [0, total) into contiguous slices of at most chunk
// points, evaluates each slice independently and concatenates the results
// in the original point order. Chunking only bounds memory: the output
// matches a single eval(0, total) call.
func EvaluateChunked(total, chunk int, eval func(lo, hi int) ([]Raw, error)) ([]Raw, error) {
	if chunk < 1 {
		return nil, errors.Errorf("chunk size must be at least 1, got %d", chunk)
	}
	out := make([]Raw, 0, total)
	for lo := 0; lo < total; lo += chunk {
		hi := imin(lo+chunk, total)
		raw, err := eval(lo, hi)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk [%d, %d)", lo, hi)
		}
		if len(raw) != hi-lo {
			return nil, shapeErrorf("chunk [%d, %d) produced %d outputs", lo, hi, len(raw))
		}
		out = append(out, raw...)
	}
	return out, nil
}
